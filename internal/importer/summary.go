package importer

import (
	"fmt"

	"github.com/nikbrunner/rainmd/internal/writer"
)

// Summary counts the outcomes of a run.
type Summary struct {
	Created       int
	Updated       int
	Skipped       int
	Errors        int
	FetchFailures int      // units abandoned while fetching
	Paths         []string // notes created or updated, in processing order
}

func (s *Summary) add(o writer.Outcome, path string) {
	switch o {
	case writer.Created:
		s.Created++
	case writer.Updated:
		s.Updated++
	default:
		s.Skipped++
		return
	}
	s.Paths = append(s.Paths, path)
}

// Total is the number of records processed.
func (s Summary) Total() int {
	return s.Created + s.Updated + s.Skipped + s.Errors
}

// String renders the end of run notice, e.g.
// "3 notes created. 1 updated. 2 skipped (already exist). 1 errors."
func (s Summary) String() string {
	msg := fmt.Sprintf("%d notes created.", s.Created)
	if s.Updated > 0 {
		msg += fmt.Sprintf(" %d updated.", s.Updated)
	}
	if s.Skipped > 0 {
		msg += fmt.Sprintf(" %d skipped (already exist).", s.Skipped)
	}
	if s.Errors > 0 {
		msg += fmt.Sprintf(" %d errors.", s.Errors)
	}
	return msg
}

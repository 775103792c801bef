// Package writer stores rendered notes below a root directory.
package writer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nikbrunner/rainmd/internal/naming"
)

// Outcome is what a write did.
type Outcome int

const (
	Created Outcome = iota
	Updated
	Skipped // the file existed and overwriting was not requested
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// ErrNotDir is returned when a directory is needed but a file is in the way.
var ErrNotDir = errors.New("path exists but is not a directory")

// Writer creates notes. Paths are slash separated and relative to the
// writer's root.
type Writer interface {
	// EnsureDir creates dir and its missing parents, outermost first.
	EnsureDir(dir string) error
	// Write creates path with content. An existing file is left alone and
	// reported as Skipped unless overwrite is set.
	Write(path, content string, overwrite bool) (Outcome, error)
}

// DirWriter writes to the local file system.
type DirWriter struct {
	root string
}

func NewDirWriter(root string) *DirWriter {
	return &DirWriter{root: root}
}

// Path returns the file system path of the relative note path p.
func (w *DirWriter) Path(p string) string {
	return filepath.Join(w.root, filepath.FromSlash(naming.NormalizePath(p)))
}

func (w *DirWriter) EnsureDir(dir string) error {
	dir = naming.NormalizePath(dir)

	current := w.root
	if err := ensureOne(current); err != nil {
		return err
	}
	if dir == "" {
		return nil
	}
	for _, seg := range strings.Split(dir, "/") {
		current = filepath.Join(current, seg)
		if err := ensureOne(current); err != nil {
			return err
		}
	}
	return nil
}

func ensureOne(dir string) error {
	if dir == "" {
		return nil
	}
	info, err := os.Stat(dir)
	switch {
	case err == nil && info.IsDir():
		return nil
	case err == nil:
		return fmt.Errorf("%w: %s", ErrNotDir, dir)
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if err := os.Mkdir(dir, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("create folder %s: %w", dir, err)
	}
	return nil
}

func (w *DirWriter) Write(p, content string, overwrite bool) (Outcome, error) {
	p = naming.NormalizePath(p)
	if p == "" {
		return Skipped, errors.New("empty note path")
	}
	if err := w.EnsureDir(dirOf(p)); err != nil {
		return Skipped, err
	}

	full := w.Path(p)
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err == nil {
		if _, err := f.WriteString(content); err != nil {
			_ = f.Close()
			return Skipped, fmt.Errorf("write %s: %w", p, err)
		}
		if err := f.Close(); err != nil {
			return Skipped, fmt.Errorf("close %s: %w", p, err)
		}
		return Created, nil
	}
	if !errors.Is(err, fs.ErrExist) {
		return Skipped, fmt.Errorf("create %s: %w", p, err)
	}

	if !overwrite {
		return Skipped, nil
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return Skipped, fmt.Errorf("update %s: %w", p, err)
	}
	return Updated, nil
}

func dirOf(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[:i]
	}
	return ""
}

// Package fetch decides how an import queries the Raindrop API and pages
// through every result.
package fetch

import (
	"errors"
	"strconv"

	"github.com/nikbrunner/rainmd/internal/model"
	"github.com/nikbrunner/rainmd/internal/raindrop"
)

// PerPage is the fixed page size of every fetch.
const PerPage = raindrop.MaxPerPage

// ErrNoTargets means collection inputs were given but none resolved.
var ErrNoTargets = errors.New("no valid collection IDs or names provided")

// Mode is the fetch strategy of one run.
type Mode int

const (
	ModeAll Mode = iota
	ModeCollections
	ModeTags
)

func (m Mode) String() string {
	switch m {
	case ModeCollections:
		return "collections"
	case ModeTags:
		return "tags"
	default:
		return "all"
	}
}

// Scope names the kind of unit a failure is attributed to.
type Scope string

const (
	ScopeCollection Scope = "collection"
	ScopeTag        Scope = "tag"
	ScopeSearch     Scope = "search"
	ScopeAll        Scope = "all"
)

// Unit is one independently paginated query.
type Unit struct {
	Scope        Scope
	Label        string // collection title, tag or search string
	CollectionID int64
	Query        raindrop.PageQuery // Page is ignored
}

// Plan is the ordered list of units of a run.
type Plan struct {
	Mode  Mode
	Units []Unit
	// Dedup drops records already seen in an earlier unit.
	Dedup bool
}

// PlanFor picks the fetch mode for opts. ids are the resolved collection
// ids in the order they should be fetched; title names them in progress
// messages and may be nil.
func PlanFor(opts model.FetchOptions, ids []int64, title func(id int64) string) Plan {
	typ := opts.TypeFilter()
	search := opts.SearchString()

	if len(ids) > 0 {
		p := Plan{Mode: ModeCollections}
		for _, id := range ids {
			label := ""
			if title != nil {
				label = title(id)
			}
			if label == "" {
				label = strconv.FormatInt(id, 10)
			}
			p.Units = append(p.Units, Unit{
				Scope:        ScopeCollection,
				Label:        label,
				CollectionID: id,
				Query: raindrop.PageQuery{
					PerPage: PerPage,
					Type:    typ,
					Search:  search,
					Nested:  opts.IncludeSubcollections,
				},
			})
		}
		return p
	}

	tags := opts.Tags()
	if len(tags) > 0 && opts.Match() == model.TagMatchAny {
		p := Plan{Mode: ModeTags, Dedup: true}
		for _, tag := range tags {
			p.Units = append(p.Units, Unit{
				Scope:        ScopeTag,
				Label:        tag,
				CollectionID: model.RootCollectionID,
				Query:        raindrop.PageQuery{PerPage: PerPage, Type: typ, Search: "#" + tag},
			})
		}
		return p
	}

	if search != "" {
		return Plan{Mode: ModeTags, Units: []Unit{{
			Scope:        ScopeSearch,
			Label:        search,
			CollectionID: model.RootCollectionID,
			Query:        raindrop.PageQuery{PerPage: PerPage, Type: typ, Search: search},
		}}}
	}

	return Plan{Mode: ModeAll, Units: []Unit{{
		Scope:        ScopeAll,
		Label:        "all items",
		CollectionID: model.RootCollectionID,
		Query:        raindrop.PageQuery{PerPage: PerPage, Type: typ},
	}}}
}

// Filtered reports whether the plan narrows the account by collection or
// tag.
func (p Plan) Filtered() bool { return p.Mode != ModeAll }

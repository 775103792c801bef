// Package collections builds the collection hierarchy of an account and
// resolves user input against it.
package collections

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nikbrunner/rainmd/internal/logging"
	"github.com/nikbrunner/rainmd/internal/model"
	"github.com/nikbrunner/rainmd/internal/naming"
)

// ErrNoCollections is returned alongside an empty list when neither
// collection endpoint could be read.
var ErrNoCollections = errors.New("no collections could be fetched")

// Source lists collections. *raindrop.Client satisfies it.
type Source interface {
	RootCollections(ctx context.Context) ([]model.Collection, error)
	ChildCollections(ctx context.Context) ([]model.Collection, error)
}

// FetchAll returns root and nested collections, deduplicated by id, without
// the Unsorted and Trash system collections.
//
// A failing endpoint is logged and skipped. If both fail the result is empty
// and the error wraps ErrNoCollections; callers are expected to carry on,
// placing notes in the base folder.
func FetchAll(ctx context.Context, src Source, log logging.Logger) ([]model.Collection, error) {
	if log == nil {
		log = logging.Nop()
	}

	var (
		all  []model.Collection
		errs []error
	)
	for _, ep := range []struct {
		name  string
		fetch func(context.Context) ([]model.Collection, error)
	}{
		{"root", src.RootCollections},
		{"nested", src.ChildCollections},
	} {
		cols, err := ep.fetch(ctx)
		if err != nil {
			log.Warn(ctx, "failed to fetch collections", "endpoint", ep.name, "error", err)
			errs = append(errs, fmt.Errorf("%s collections: %w", ep.name, err))
			continue
		}
		all = append(all, cols...)
	}

	if len(errs) == 2 {
		return nil, fmt.Errorf("%w: %w", ErrNoCollections, errors.Join(errs...))
	}

	seen := make(map[int64]bool, len(all))
	out := make([]model.Collection, 0, len(all))
	for _, c := range all {
		if seen[c.ID] || model.IsSystemCollection(c.ID) {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}

	if len(out) == 0 {
		log.Info(ctx, "no user collections found")
	}
	return out, nil
}

// Node is one entry of the hierarchy map.
type Node struct {
	Title    string
	ParentID *int64
}

// Resolution is the outcome of resolving collection inputs.
type Resolution struct {
	IDs        []int64  // resolved ids, deduplicated, in input order
	Unresolved []string // inputs matching neither an id nor a title
}

// ResolveInputsToIDs maps each input to a collection id. An input that
// parses as an integer present in ids is taken as an id; anything else is
// looked up by lower-cased title in names.
func ResolveInputsToIDs(inputs []string, names map[string]int64, ids map[int64]bool) Resolution {
	var res Resolution
	seen := make(map[int64]bool)

	for _, raw := range inputs {
		in := strings.TrimSpace(raw)
		if in == "" {
			continue
		}

		id, ok := int64(0), false
		if n, err := strconv.ParseInt(in, 10, 64); err == nil && ids[n] {
			id, ok = n, true
		} else if n, found := names[strings.ToLower(in)]; found {
			id, ok = n, true
		}

		if !ok {
			res.Unresolved = append(res.Unresolved, in)
			continue
		}
		if !seen[id] {
			seen[id] = true
			res.IDs = append(res.IDs, id)
		}
	}
	return res
}

// UnknownSegment is the path segment used for a collection without a name.
func UnknownSegment(id int64) string {
	return "Unknown_Collection_" + strconv.FormatInt(id, 10)
}

// PathSegments returns the sanitized titles from the top-level ancestor
// down to id. The walk stops at the root (0), at a system collection and at
// an id missing from hierarchy.
func PathSegments(id int64, hierarchy map[int64]Node, names map[int64]string) []string {
	var segments []string
	visited := make(map[int64]bool)

	for id != model.RootCollectionID && !model.IsSystemCollection(id) && !visited[id] {
		visited[id] = true

		node, ok := hierarchy[id]
		if !ok {
			break
		}

		seg := UnknownSegment(id)
		if name := names[id]; name != "" {
			seg = naming.SanitizeFileName(name)
		}
		segments = append(segments, seg)

		if node.ParentID == nil {
			break
		}
		id = *node.ParentID
	}

	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return segments
}

package collections

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/nikbrunner/rainmd/internal/model"
)

// Hierarchy indexes a set of collections by id, title and parent.
type Hierarchy struct {
	cols     map[int64]model.Collection
	nodes    map[int64]Node
	names    map[int64]string
	byName   map[string]int64
	ids      map[int64]bool
	children map[int64][]int64
	order    []int64
}

// NewHierarchy indexes cols. Top-level collections are children of 0. When
// two collections share a title, lookups by name find the later one.
func NewHierarchy(cols []model.Collection) *Hierarchy {
	h := &Hierarchy{
		cols:     make(map[int64]model.Collection, len(cols)),
		nodes:    make(map[int64]Node, len(cols)),
		names:    make(map[int64]string, len(cols)),
		byName:   make(map[string]int64, len(cols)),
		ids:      make(map[int64]bool, len(cols)),
		children: make(map[int64][]int64),
	}

	for _, c := range cols {
		if _, dup := h.cols[c.ID]; dup {
			continue
		}
		h.cols[c.ID] = c
		h.nodes[c.ID] = Node{Title: c.Title, ParentID: c.ParentID}
		h.ids[c.ID] = true
		h.order = append(h.order, c.ID)
		if c.Title != "" {
			h.names[c.ID] = c.Title
			h.byName[strings.ToLower(c.Title)] = c.ID
		}

		parent := model.RootCollectionID
		if c.ParentID != nil {
			parent = *c.ParentID
		}
		h.children[parent] = append(h.children[parent], c.ID)
	}
	return h
}

func (h *Hierarchy) Len() int { return len(h.order) }

func (h *Hierarchy) Has(id int64) bool { return h.ids[id] }

func (h *Hierarchy) Get(id int64) (model.Collection, bool) {
	c, ok := h.cols[id]
	return c, ok
}

// Title returns the title of id, or "" when it is unknown.
func (h *Hierarchy) Title(id int64) string { return h.names[id] }

// ParentID returns the parent of id. The second value is false for unknown
// ids and top-level collections.
func (h *Hierarchy) ParentID(id int64) (int64, bool) {
	n, ok := h.nodes[id]
	if !ok || n.ParentID == nil {
		return 0, false
	}
	return *n.ParentID, true
}

// Children returns the ids whose parent is id, in the order they were
// fetched. Use 0 for top-level collections.
func (h *Hierarchy) Children(id int64) []int64 { return h.children[id] }

// Resolve maps names and ids to collection ids.
func (h *Hierarchy) Resolve(inputs []string) Resolution {
	return ResolveInputsToIDs(inputs, h.byName, h.ids)
}

// PathSegments returns the folder segments for id, top-level first.
func (h *Hierarchy) PathSegments(id int64) []string {
	return PathSegments(id, h.nodes, h.names)
}

// Path returns the segments of id joined with "/".
func (h *Hierarchy) Path(id int64) string {
	return strings.Join(h.PathSegments(id), "/")
}

type titles []model.Collection

func (t titles) String(i int) string { return t[i].Title }
func (t titles) Len() int            { return len(t) }

// Suggest returns up to limit collection titles that fuzzily match input,
// best first.
func (h *Hierarchy) Suggest(input string, limit int) []string {
	input = strings.TrimSpace(input)
	if input == "" || limit <= 0 {
		return nil
	}

	list := make(titles, 0, len(h.order))
	for _, id := range h.order {
		list = append(list, h.cols[id])
	}

	var out []string
	for _, m := range fuzzy.FindFrom(input, list) {
		out = append(out, list[m.Index].Title)
		if len(out) == limit {
			break
		}
	}
	return out
}

// Walk visits every collection depth first, top-level collections first.
// Collections whose parent is unknown are visited as top-level ones.
// Siblings are visited in title order.
func (h *Hierarchy) Walk(fn func(c model.Collection, depth int)) {
	visited := make(map[int64]bool, len(h.order))

	var visit func(id int64, depth int)
	visit = func(id int64, depth int) {
		if visited[id] {
			return
		}
		visited[id] = true
		fn(h.cols[id], depth)
		for _, child := range h.sorted(h.children[id]) {
			visit(child, depth+1)
		}
	}

	var roots []int64
	for _, id := range h.order {
		parent, ok := h.ParentID(id)
		if !ok || !h.ids[parent] {
			roots = append(roots, id)
		}
	}
	for _, id := range h.sorted(roots) {
		visit(id, 0)
	}
}

func (h *Hierarchy) sorted(ids []int64) []int64 {
	out := append([]int64(nil), ids...)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(h.cols[out[i]].Title) < strings.ToLower(h.cols[out[j]].Title)
	})
	return out
}

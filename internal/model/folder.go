package model

const (
	// RootCollectionID is the synthetic parent of top-level collections and,
	// for the raindrops endpoint, "everything".
	RootCollectionID int64 = 0
	// UnsortedCollectionID is the system Unsorted collection.
	UnsortedCollectionID int64 = -1
	// TrashCollectionID is the system Trash collection.
	TrashCollectionID int64 = -99
)

// IsSystemCollection reports whether id is Unsorted or Trash.
func IsSystemCollection(id int64) bool {
	return id == UnsortedCollectionID || id == TrashCollectionID
}

// Collection is a named grouping node. Collections form a forest.
type Collection struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	ParentID   *int64 `json:"parentId"` // nil = root level
	Count      int    `json:"count,omitempty"`
	Created    string `json:"created,omitempty"`
	LastUpdate string `json:"lastUpdate,omitempty"`
}

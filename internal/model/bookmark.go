package model

import "time"

// ContentType is the kind of item Raindrop.io reports for a bookmark.
type ContentType string

const (
	TypeLink     ContentType = "link"
	TypeArticle  ContentType = "article"
	TypeImage    ContentType = "image"
	TypeVideo    ContentType = "video"
	TypeDocument ContentType = "document"
	TypeAudio    ContentType = "audio"

	// TypeAll disables content-type filtering.
	TypeAll ContentType = "all"
)

// ContentTypes lists every concrete content type in display order.
var ContentTypes = []ContentType{TypeLink, TypeArticle, TypeImage, TypeVideo, TypeDocument, TypeAudio}

var typeLabels = map[ContentType]string{
	TypeLink:     "Web Link",
	TypeArticle:  "Article",
	TypeImage:    "Image",
	TypeVideo:    "Video",
	TypeDocument: "Document",
	TypeAudio:    "Audio",
}

// Valid reports whether t is one of the six concrete content types.
func (t ContentType) Valid() bool {
	_, ok := typeLabels[t]
	return ok
}

// Label returns the human-readable name, or the raw value for unknown types.
func (t ContentType) Label() string {
	if label, ok := typeLabels[t]; ok {
		return label
	}
	return string(t)
}

// Highlight is a text fragment the user marked inside a bookmark.
type Highlight struct {
	Text    string `json:"text"`
	Note    string `json:"note,omitempty"`
	Color   string `json:"color,omitempty"`
	Created string `json:"created"`
}

// CollectionRef points at the collection a bookmark belongs to.
type CollectionRef struct {
	ID    int64  `json:"id"`
	Title string `json:"title,omitempty"`
}

// Raindrop is one imported bookmark. Timestamps are kept as the ISO 8601
// strings the API returned so they can be written back verbatim.
type Raindrop struct {
	ID         int64          `json:"id"`
	Title      string         `json:"title"`
	Excerpt    string         `json:"excerpt,omitempty"`
	Note       string         `json:"note,omitempty"`
	Link       string         `json:"link"`
	Cover      string         `json:"cover,omitempty"`
	Created    string         `json:"created"`
	LastUpdate string         `json:"lastUpdate"`
	Tags       []string       `json:"tags"`
	Collection *CollectionRef `json:"collection,omitempty"` // nil = no collection
	Highlights []Highlight    `json:"highlights,omitempty"`
	Type       ContentType    `json:"type"`
}

// CollectionID returns the owning collection id, or 0 when there is none.
func (r Raindrop) CollectionID() int64 {
	if r.Collection == nil {
		return RootCollectionID
	}
	return r.Collection.ID
}

// CreatedTime parses Created. The second value is false when it is empty or
// not a valid timestamp.
func (r Raindrop) CreatedTime() (time.Time, bool) {
	return ParseTimestamp(r.Created)
}

// ParseTimestamp parses the ISO 8601 variants the API emits.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

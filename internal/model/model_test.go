package model_test

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/nikbrunner/rainmd/internal/model"
)

func TestContentType_Label(t *testing.T) {
	tests := []struct {
		typ  model.ContentType
		want string
	}{
		{model.TypeLink, "Web Link"},
		{model.TypeArticle, "Article"},
		{model.TypeImage, "Image"},
		{model.TypeVideo, "Video"},
		{model.TypeDocument, "Document"},
		{model.TypeAudio, "Audio"},
		{model.ContentType("podcast"), "podcast"},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			if got := tt.typ.Label(); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContentType_Valid(t *testing.T) {
	for _, typ := range model.ContentTypes {
		if !typ.Valid() {
			t.Errorf("expected %q to be valid", typ)
		}
	}
	if model.TypeAll.Valid() {
		t.Error("\"all\" is a filter value, not a content type")
	}
}

func TestRaindrop_CollectionID(t *testing.T) {
	r := model.Raindrop{ID: 1}
	if got := r.CollectionID(); got != model.RootCollectionID {
		t.Errorf("expected root id for missing collection, got %d", got)
	}

	r.Collection = &model.CollectionRef{ID: 42, Title: "Reading"}
	if got := r.CollectionID(); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
}

func TestRaindrop_CreatedTime(t *testing.T) {
	tests := []struct {
		name    string
		created string
		want    time.Time
		ok      bool
	}{
		{"rfc3339", "2025-01-15T10:30:00Z", time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC), true},
		{"millis", "2025-01-15T10:30:00.123Z", time.Date(2025, 1, 15, 10, 30, 0, 123000000, time.UTC), true},
		{"empty", "", time.Time{}, false},
		{"garbage", "yesterday", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := model.Raindrop{Created: tt.created}.CreatedTime()
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsSystemCollection(t *testing.T) {
	if !model.IsSystemCollection(model.UnsortedCollectionID) || !model.IsSystemCollection(model.TrashCollectionID) {
		t.Error("expected Unsorted and Trash to be system collections")
	}
	if model.IsSystemCollection(0) || model.IsSystemCollection(123) {
		t.Error("root and user collections are not system collections")
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{" a , b ,, c ", []string{"a", "b", "c"}},
		{" , ", nil},
	}

	for _, tt := range tests {
		if got := model.SplitList(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitList(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestFetchOptions_Defaults(t *testing.T) {
	var opts model.FetchOptions
	if opts.Match() != model.TagMatchAll {
		t.Errorf("expected default match all, got %q", opts.Match())
	}
	if opts.TypeFilter() != model.TypeAll {
		t.Errorf("expected default type filter all, got %q", opts.TypeFilter())
	}

	opts.FilterTags = "go, rust ,"
	if got := opts.SearchString(); got != "go rust" {
		t.Errorf("SearchString() = %q, want %q", got, "go rust")
	}
}

func TestFetchOptions_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(model.FetchOptions{Collections: "Reading", TagMatch: model.TagMatchAny})
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if raw["collections"] != "Reading" {
		t.Errorf("expected collections field, got %v", raw["collections"])
	}
	if raw["tagMatchType"] != "any" {
		t.Errorf("expected tagMatchType field, got %v", raw["tagMatchType"])
	}
}

func TestNewRunID(t *testing.T) {
	a, b := model.NewRunID(), model.NewRunID()
	if a == "" || a == b {
		t.Errorf("expected distinct non-empty run ids, got %q and %q", a, b)
	}
}

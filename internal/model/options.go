package model

import "strings"

// TagMatch selects how multiple filter tags combine.
type TagMatch string

const (
	// TagMatchAll requires every tag (server-side AND search).
	TagMatchAll TagMatch = "all"
	// TagMatchAny accepts items carrying at least one tag.
	TagMatchAny TagMatch = "any"
)

// FetchOptions configures one import run. It is passed by value through the
// pipeline and never mutated.
type FetchOptions struct {
	VaultPath             string      `json:"vaultPath,omitempty"`
	Collections           string      `json:"collections"`   // comma-separated names or ids
	FilterTags            string      `json:"apiFilterTags"` // comma-separated
	TagMatch              TagMatch    `json:"tagMatchType" validate:"omitempty,oneof=all any"`
	FilterType            ContentType `json:"filterType" validate:"omitempty,oneof=all link article image video document audio"`
	IncludeSubcollections bool        `json:"includeSubcollections"`
	AppendTags            string      `json:"appendTagsToNotes"` // comma-separated
	UseTitleForFileName   bool        `json:"useRaindropTitleForFileName"`
	FetchOnlyNew          bool        `json:"fetchOnlyNew"`
	UpdateExisting        bool        `json:"updateExisting"`
	UseDefaultTemplate    bool        `json:"useDefaultTemplate"`
	OverrideTemplates     bool        `json:"overrideTemplates"`
}

// SplitList splits a comma-separated list, trimming blanks and dropping
// empty entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// CollectionInputs returns the user's collection names or ids.
func (o FetchOptions) CollectionInputs() []string {
	return SplitList(o.Collections)
}

// Tags returns the filter tags in input order.
func (o FetchOptions) Tags() []string {
	return SplitList(o.FilterTags)
}

// SearchString joins the filter tags with spaces, which the API treats as AND.
func (o FetchOptions) SearchString() string {
	return strings.Join(o.Tags(), " ")
}

// ExtraTags returns the tags stamped onto every produced document.
func (o FetchOptions) ExtraTags() []string {
	return SplitList(o.AppendTags)
}

// Match returns the tag match mode, defaulting to TagMatchAll.
func (o FetchOptions) Match() TagMatch {
	if o.TagMatch == "" {
		return TagMatchAll
	}
	return o.TagMatch
}

// TypeFilter returns the content-type filter, or TypeAll when unset.
func (o FetchOptions) TypeFilter() ContentType {
	if o.FilterType == "" {
		return TypeAll
	}
	return o.FilterType
}

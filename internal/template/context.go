package template

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/nikbrunner/rainmd/internal/model"
)

// DefaultDateFormat is the layout of the human readable dates.
const DefaultDateFormat = "1/2/2006"

// CollectionInfo describes the collection a raindrop belongs to, as seen
// in the collection hierarchy.
type CollectionInfo struct {
	ID       int64
	Title    string
	Path     string // sanitized segments joined with "/"
	ParentID *int64
}

// ContextOptions carries the settings that shape a template context.
type ContextOptions struct {
	BannerFieldName string
	DateFormat      string
	ExtraTags       []string
	Location        *time.Location // nil = local time
}

// BuildContext projects r into the values templates can use. Free-text
// values are escaped for use inside double-quoted front matter.
//
// Keys: id, title, excerpt, note, link, url, cover, created, lastupdate,
// updated, type, collectionId, collectionTitle, collectionPath,
// collectionParentId (only when the collection has a parent), tags,
// highlights (text, note, noteLine, color, created), bannerFieldName,
// domain, renderedType, formattedCreatedDate, formattedUpdatedDate and
// formattedTags.
func BuildContext(r model.Raindrop, info CollectionInfo, opts ContextOptions) Context {
	collectionTitle := info.Title
	if collectionTitle == "" {
		collectionTitle = "Unknown"
	}

	tags := MergeTags(r.Tags, opts.ExtraTags)
	escapedTags := make([]string, len(tags))
	for i, t := range tags {
		escapedTags[i] = escapeQuotes(t)
	}

	highlights := make([]any, 0, len(r.Highlights))
	for _, h := range r.Highlights {
		note := escapeQuotes(h.Note)
		noteLine := ""
		if note != "" {
			noteLine = "  *Note:* " + note + "\n"
		}
		highlights = append(highlights, map[string]any{
			"text":     escapeQuotes(h.Text),
			"note":     note,
			"noteLine": noteLine,
			"color":    h.Color,
			"created":  h.Created,
		})
	}

	ctx := Context{
		"id":                   r.ID,
		"title":                escapeQuotes(r.Title),
		"excerpt":              escapeQuotes(r.Excerpt),
		"note":                 escapeQuotes(r.Note),
		"link":                 r.Link,
		"url":                  r.Link,
		"cover":                r.Cover,
		"created":              r.Created,
		"lastupdate":           r.LastUpdate,
		"updated":              r.LastUpdate,
		"type":                 string(r.Type),
		"collectionId":         info.ID,
		"collectionTitle":      escapeQuotes(collectionTitle),
		"collectionPath":       escapeQuotes(info.Path),
		"tags":                 escapedTags,
		"highlights":           highlights,
		"bannerFieldName":      opts.BannerFieldName,
		"domain":               Domain(r.Link),
		"renderedType":         r.Type.Label(),
		"formattedCreatedDate": FormatDate(r.Created, opts.DateFormat, opts.Location),
		"formattedUpdatedDate": FormatDate(r.LastUpdate, opts.DateFormat, opts.Location),
		"formattedTags":        FormatTags(escapedTags),
	}
	if info.ParentID != nil {
		ctx["collectionParentId"] = *info.ParentID
	}
	return ctx
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// MergeTags appends extra to tags, dropping blanks and repeats.
func MergeTags(tags, extra []string) []string {
	out := make([]string, 0, len(tags)+len(extra))
	seen := make(map[string]bool, cap(out))
	for _, list := range [][]string{tags, extra} {
		for _, t := range list {
			t = strings.TrimSpace(t)
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// Domain returns the host name of link, or "" when it does not parse.
func Domain(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// FormatDate renders an API timestamp with layout in loc. Unparsable input
// gives "".
func FormatDate(s, layout string, loc *time.Location) string {
	t, ok := model.ParseTimestamp(s)
	if !ok {
		return ""
	}
	if layout == "" {
		layout = DefaultDateFormat
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(layout)
}

// FormatTags renders tags as space-separated hashtags.
func FormatTags(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, "#"+t)
		}
	}
	return strings.Join(parts, " ")
}

var fallbackTagChars = regexp.MustCompile(`[#?"*<>:|]`)

// CleanTag makes a tag safe for a bare YAML list entry: spaces become
// underscores and characters with YAML or tag meaning are dropped.
func CleanTag(tag string) string {
	tag = strings.ReplaceAll(strings.TrimSpace(tag), " ", "_")
	return fallbackTagChars.ReplaceAllString(tag, "")
}

// Package naming derives file names and folder paths for imported notes.
// Paths are slash separated and relative to the note root.
package naming

import (
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nikbrunner/rainmd/internal/model"
)

const (
	// DefaultFileNameTemplate names notes after the raindrop title.
	DefaultFileNameTemplate = "{{title}}"
	// IDFileNameTemplate is used when titles are not wanted in file names.
	IDFileNameTemplate = "{{id}}"

	// MaxNameLength caps a sanitized name, in characters.
	MaxNameLength = 200

	unnamed = "Unnamed_Raindrop"
)

var illegalChars = regexp.MustCompile("[/\\\\:*?\"<>|#%&{}$!@'`+=]")

// now is replaced in tests.
var now = time.Now

// clean strips illegal characters, trims and caps. It may return "".
// Names made only of dots are dropped so "." and ".." never reach a path.
func clean(name string) string {
	name = strings.TrimSpace(illegalChars.ReplaceAllString(name, ""))
	if strings.Trim(name, ".") == "" {
		return ""
	}
	if r := []rune(name); len(r) > MaxNameLength {
		name = string(r[:MaxNameLength])
	}
	return name
}

// SanitizeFileName removes characters that are illegal in file names, trims
// the result and caps it at MaxNameLength characters. Names that end up
// empty become "Unnamed_Raindrop".
func SanitizeFileName(name string) string {
	if s := clean(name); s != "" {
		return s
	}
	return unnamed
}

// GenerateFilename names a note after its raindrop using the default
// template, or the id when useTitle is false. The result has no extension.
func GenerateFilename(r model.Raindrop, useTitle bool) string {
	return Filename(r, DefaultFileNameTemplate, useTitle)
}

// Filename expands tmpl for r. Supported placeholders, matched without
// regard to case, are {{title}}, {{id}}, {{collectionTitle}} and {{date}}.
// When useTitle is false tmpl is ignored and the id is used.
func Filename(r model.Raindrop, tmpl string, useTitle bool) string {
	if !useTitle || strings.TrimSpace(tmpl) == "" {
		if useTitle {
			tmpl = DefaultFileNameTemplate
		} else {
			tmpl = IDFileNameTemplate
		}
	}

	title := r.Title
	if title == "" {
		title = "Untitled"
	}
	id := "unknown_id"
	if r.ID != 0 {
		id = strconv.FormatInt(r.ID, 10)
	}
	collectionTitle := "No Collection"
	if r.Collection != nil && r.Collection.Title != "" {
		collectionTitle = r.Collection.Title
	}
	date := "no_date"
	if t, ok := r.CreatedTime(); ok {
		date = t.UTC().Format("2006-01-02")
	}

	name := tmpl
	for _, p := range []struct{ placeholder, value string }{
		{"title", title},
		{"id", id},
		{"collectionTitle", collectionTitle},
		{"date", date},
	} {
		name = replacePlaceholder(name, p.placeholder, SanitizeFileName(p.value))
	}

	if s := clean(name); s != "" {
		return s
	}
	if r.ID != 0 {
		return unnamed + "_" + strconv.FormatInt(r.ID, 10)
	}
	return unnamed + "_" + strconv.FormatInt(now().UnixMilli(), 10)
}

func replacePlaceholder(s, placeholder, value string) string {
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta("{{"+placeholder+"}}"))
	return re.ReplaceAllLiteralString(s, value)
}

// NormalizePath turns p into a clean, slash separated relative path.
// "", "." and "/" all normalize to "".
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean("/" + p)
	return strings.Trim(p, "/")
}

// TargetDir joins the base folder and the collection path segments. A
// segment never climbs out of base: "." and ".." become "Unnamed_Raindrop".
func TargetDir(base string, segments []string) string {
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, NormalizePath(base))
	for _, seg := range segments {
		if seg == "." || seg == ".." {
			seg = unnamed
		}
		parts = append(parts, seg)
	}
	return NormalizePath(path.Join(parts...))
}

// NotePath returns the path of the markdown note named name inside dir.
func NotePath(dir, name string) string {
	return NormalizePath(path.Join(dir, name+".md"))
}

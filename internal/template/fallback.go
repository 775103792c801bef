package template

import (
	"strings"

	"github.com/nikbrunner/rainmd/internal/model"
	"github.com/nikbrunner/rainmd/internal/naming"
)

// Fallback renders r in the fixed layout used when templates are turned
// off.
func Fallback(r model.Raindrop, info CollectionInfo, opts ContextOptions) string {
	fields := Fields{
		{"id", r.ID},
		{"title", r.Title},
		{"description", r.Excerpt},
		{"source", r.Link},
		{"type", string(r.Type)},
		{"created", r.Created},
		{"lastupdate", r.LastUpdate},
	}
	if info.ID != 0 {
		fields = append(fields,
			Field{"collectionId", info.ID},
			Field{"collectionTitle", info.Title},
			Field{"collectionPath", info.Path},
		)
		if info.ParentID != nil {
			fields = append(fields, Field{"collectionParentId", *info.ParentID})
		}
	}

	tags := MergeTags(r.Tags, opts.ExtraTags)
	cleaned := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = CleanTag(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	fields = append(fields, Field{"tags", cleaned})

	if r.Cover != "" {
		banner := opts.BannerFieldName
		if banner == "" {
			banner = "banner"
		}
		fields = append(fields, Field{banner, r.Cover})
	}

	var b strings.Builder
	b.WriteString(Frontmatter(fields))

	if r.Cover != "" {
		b.WriteString("![" + naming.SanitizeFileName(r.Title) + "](" + r.Cover + ")\n\n")
	}
	b.WriteString("# " + r.Title + "\n\n")
	if r.Excerpt != "" {
		b.WriteString("## Description\n" + r.Excerpt + "\n\n")
	}
	if r.Note != "" {
		b.WriteString("## Notes\n" + r.Note + "\n\n")
	}
	if len(r.Highlights) > 0 {
		b.WriteString("## Highlights\n")
		for _, h := range r.Highlights {
			b.WriteString("- " + singleLine(h.Text) + "\n")
			if h.Note != "" {
				b.WriteString("  *Note:* " + singleLine(h.Note) + "\n")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func singleLine(s string) string {
	return strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(s)
}

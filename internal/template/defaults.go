package template

import "github.com/nikbrunner/rainmd/internal/model"

const frontMatter = `---
title: "{{title}}"
source: {{link}}
type: {{type}}
created: {{created}}
lastupdate: {{lastupdate}}
id: {{id}}
collectionId: {{collectionId}}
collectionTitle: "{{collectionTitle}}"
collectionPath: "{{collectionPath}}"
{{#if collectionParentId}}collectionParentId: {{collectionParentId}}
{{/if}}tags:
{{#each tags}}  - {{this}}
{{/each}}{{#if cover}}{{bannerFieldName}}: {{cover}}
{{/if}}---

`

const coverAndTitle = `{{#if cover}}![{{title}}]({{cover}})

{{/if}}# {{title}}

`

const details = `---
## Details
- **Type**: {{renderedType}}
- **Domain**: {{domain}}
- **Created**: {{formattedCreatedDate}}
- **Updated**: {{formattedUpdatedDate}}
- **Tags**: {{formattedTags}}
`

func section(cond, heading, body string) string {
	return "{{#if " + cond + "}}## " + heading + "\n" + body + "\n\n{{/if}}"
}

func highlightSection(heading, bullet string) string {
	return "{{#if highlights}}## " + heading + "\n{{/if}}" +
		"{{#each highlights}}" + bullet + " {{text}}\n{{noteLine}}{{/each}}" +
		"{{#if highlights}}\n{{/if}}"
}

// DefaultTemplate is used for every content type unless a type template
// is enabled.
const DefaultTemplate = frontMatter + coverAndTitle +
	`{{#if excerpt}}## Description
{{excerpt}}

{{/if}}{{#if note}}## Notes
{{note}}

{{/if}}{{#if highlights}}## Highlights
{{/if}}{{#each highlights}}- {{text}}
{{noteLine}}{{/each}}{{#if highlights}}
{{/if}}` + details

// DefaultTypeTemplates returns the built-in template of every content type.
func DefaultTypeTemplates() map[model.ContentType]string {
	return map[model.ContentType]string{
		model.TypeLink: DefaultTemplate + "\n[Source]({{link}})\n",

		model.TypeArticle: frontMatter + coverAndTitle +
			section("excerpt", "Summary", "{{excerpt}}") +
			section("note", "Notes", "{{note}}") +
			highlightSection("Key Points", ">") +
			details + "\n[Read Article]({{link}})\n",

		model.TypeImage: frontMatter +
			"![{{title}}]({{cover}})\n\n" +
			"{{#if excerpt}}*{{excerpt}}*\n\n{{/if}}" +
			section("note", "Notes", "{{note}}") +
			details + "\n[View Original]({{link}})\n",

		model.TypeVideo: frontMatter + coverAndTitle +
			section("excerpt", "Description", "{{excerpt}}") +
			highlightSection("Timestamps", "-") +
			section("note", "Notes", "{{note}}") +
			details + "\n[Watch Video]({{link}})\n",

		model.TypeDocument: frontMatter + "# {{title}}\n\n" +
			section("excerpt", "Summary", "{{excerpt}}") +
			highlightSection("Key Points", "-") +
			section("note", "Notes", "{{note}}") +
			details + "\n[Open Document]({{link}})\n",

		model.TypeAudio: frontMatter + coverAndTitle +
			section("excerpt", "Description", "{{excerpt}}") +
			highlightSection("Timestamps", "-") +
			section("note", "Notes", "{{note}}") +
			details + "\n[Listen to Audio]({{link}})\n",
	}
}

package template

import (
	"strings"

	"github.com/nikbrunner/rainmd/internal/model"
)

// Set is the configured templates.
type Set struct {
	Default string
	ByType  map[model.ContentType]string
	Enabled map[model.ContentType]bool
}

// DefaultSet returns the built-in templates with every type template
// enabled.
func DefaultSet() Set {
	enabled := make(map[model.ContentType]bool, len(model.ContentTypes))
	for _, t := range model.ContentTypes {
		enabled[t] = true
	}
	return Set{Default: DefaultTemplate, ByType: DefaultTypeTemplates(), Enabled: enabled}
}

// For picks the template for a content type. useDefault forces the default
// template. override selects the type template even when it is disabled.
// Otherwise the type template is used when enabled and not blank.
func (s Set) For(t model.ContentType, useDefault, override bool) string {
	def := s.Default
	if strings.TrimSpace(def) == "" {
		def = DefaultTemplate
	}
	if useDefault {
		return def
	}

	typed, ok := s.ByType[t]
	if override && ok {
		return typed
	}
	if s.Enabled[t] && strings.TrimSpace(typed) != "" {
		return typed
	}
	return def
}

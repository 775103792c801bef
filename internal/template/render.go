// Package template renders raindrops into markdown notes.
//
// The template language is deliberately small:
//
//	{{#if path}}...{{else}}...{{/if}}   conditional
//	{{#each path}}...{{/each}}          loop; {{this}} and {{key}} refer to the item
//	{{path}}                            substitution; dotted paths reach into maps
//
// Blocks do not nest. Conditionals are expanded first over the whole text,
// then loops, then substitutions, so a conditional written inside a loop
// body is evaluated against the outer context.
package template

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

var (
	ifPattern   = regexp.MustCompile(`\{\{#if ([^}]+)\}\}([\s\S]*?)(?:\{\{else\}\}([\s\S]*?))?\{\{/if\}\}`)
	eachPattern = regexp.MustCompile(`\{\{#each ([^}]+)\}\}([\s\S]*?)\{\{/each\}\}`)
	varPattern  = regexp.MustCompile(`\{\{([^}]+)\}\}`)
	thisPattern = regexp.MustCompile(`\{\{this\}\}`)
)

// Context is the data a template is rendered against.
type Context map[string]any

// Renderer expands templates. The zero value treats numeric zero as false
// in conditionals and as empty in substitutions.
type Renderer struct {
	// ZeroTruthy makes 0 count as true in {{#if}} and render as "0".
	ZeroTruthy bool
}

// Render expands tmpl against data with the default Renderer.
func Render(tmpl string, data Context) string {
	return Renderer{}.Render(tmpl, data)
}

// Render expands tmpl against data. It has no side effects.
func (r Renderer) Render(tmpl string, data Context) string {
	out := replaceMatches(ifPattern, tmpl, func(m []string) string {
		if r.truthy(Lookup(data, strings.TrimSpace(m[1]))) {
			return m[2]
		}
		return m[3]
	})

	out = replaceMatches(eachPattern, out, func(m []string) string {
		items := sliceOf(Lookup(data, strings.TrimSpace(m[1])))
		if items == nil {
			return ""
		}

		var b strings.Builder
		for _, item := range items {
			body := thisPattern.ReplaceAllLiteralString(m[2], r.itemString(item))
			body = replaceMatches(varPattern, body, func(v []string) string {
				return r.scalarString(Lookup(item, v[1]))
			})
			b.WriteString(body)
		}
		return b.String()
	})

	return replaceMatches(varPattern, out, func(m []string) string {
		v := Lookup(data, strings.TrimSpace(m[1]))
		if isComposite(v) {
			return FormatValue(v, 0)
		}
		return r.scalarString(v)
	})
}

// replaceMatches replaces every match of re in s with fn(submatches).
// Unmatched optional groups are passed as "".
func replaceMatches(re *regexp.Regexp, s string, fn func(m []string) string) string {
	idx := re.FindAllStringSubmatchIndex(s, -1)
	if idx == nil {
		return s
	}

	var b strings.Builder
	last := 0
	for _, loc := range idx {
		b.WriteString(s[last:loc[0]])
		groups := make([]string, len(loc)/2)
		for g := range groups {
			if start := loc[2*g]; start >= 0 {
				groups[g] = s[start:loc[2*g+1]]
			}
		}
		b.WriteString(fn(groups))
		last = loc[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

// Lookup resolves a dotted path against v. It returns nil as soon as a
// segment is missing or a non-map value is reached.
func Lookup(v any, path string) any {
	cur := v
	for _, seg := range strings.Split(path, ".") {
		switch m := cur.(type) {
		case Context:
			cur = m[seg]
		case map[string]any:
			cur = m[seg]
		case Fields:
			cur = m.Get(seg)
		case map[string]string:
			s, ok := m[seg]
			if !ok {
				return nil
			}
			cur = s
		default:
			return nil
		}
		if cur == nil {
			return nil
		}
	}
	return cur
}

func (r Renderer) truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}
	if n, ok := number(v); ok {
		return r.ZeroTruthy || n != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// scalarString renders a value in substitution position: nil and false
// render empty, as does zero unless ZeroTruthy is set.
func (r Renderer) scalarString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return ""
	}
	if n, ok := number(v); ok {
		if n == 0 && !r.ZeroTruthy {
			return ""
		}
		return formatNumber(v)
	}
	if isComposite(v) {
		return FormatValue(v, 0)
	}
	return ""
}

// itemString renders a loop item for {{this}}.
func (r Renderer) itemString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	}
	if _, ok := number(v); ok {
		return formatNumber(v)
	}
	return FormatValue(v, 0)
}

func sliceOf(v any) []any {
	if v == nil {
		return nil
	}
	if s, ok := v.([]any); ok {
		return s
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func isComposite(v any) bool {
	if v == nil {
		return false
	}
	switch v.(type) {
	case Fields, Context:
		return true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return true
	}
	return false
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func formatNumber(v any) string {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n)
	case int32:
		return strconv.FormatInt(int64(n), 10)
	case int64:
		return strconv.FormatInt(n, 10)
	case uint:
		return strconv.FormatUint(uint64(n), 10)
	case uint64:
		return strconv.FormatUint(n, 10)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

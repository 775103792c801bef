package template

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
)

// Field is one key of an ordered mapping.
type Field struct {
	Key   string
	Value any
}

// Fields is a mapping that keeps its key order when formatted.
type Fields []Field

// Get returns the value of key, or nil.
func (f Fields) Get(key string) any {
	for _, field := range f {
		if field.Key == key {
			return field.Value
		}
	}
	return nil
}

var (
	needsQuoting = regexp.MustCompile("[\n:{}\\[\\]#*&!|>`]")
	startsDigit  = regexp.MustCompile(`^[0-9]`)
	looksBool    = regexp.MustCompile(`(?i)^(true|false|yes|no|on|off)$`)
)

// EscapeString escapes backslashes, double quotes, tabs and carriage
// returns for use inside a double-quoted YAML scalar.
func EscapeString(s string) string {
	return strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\t", `\t`,
		"\r", `\r`,
	).Replace(s)
}

// FormatValue renders v as a YAML value at the given nesting level.
// Sequences and mappings start with a newline so that the caller can put
// them after "key:". Map keys are sorted; use Fields to keep an order.
//
// Strings are left bare unless they contain YAML syntax, are blank, start
// with a digit or read as a boolean. Such strings are double-quoted, or
// written as a "|" block when they span lines.
func FormatValue(v any, level int) string {
	indent := strings.Repeat("  ", level)

	switch x := v.(type) {
	case nil:
		return "null"
	case bool:
		if x {
			return "true"
		}
		return "false"
	case string:
		return formatString(x, indent)
	case Fields:
		return formatMapping(x, level, indent)
	case Context:
		return formatMapping(sortedFields(map[string]any(x)), level, indent)
	case map[string]any:
		return formatMapping(sortedFields(x), level, indent)
	}

	if _, ok := number(v); ok {
		return formatNumber(v)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return "[]"
		}
		var b strings.Builder
		b.WriteString("\n")
		for i := 0; i < rv.Len(); i++ {
			b.WriteString(indent + "- " + FormatValue(rv.Index(i).Interface(), level+1) + "\n")
		}
		return strings.TrimRight(b.String(), " \t\r\n")
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return formatMapping(sortedFields(m), level, indent)
	case reflect.String:
		return formatString(rv.String(), indent)
	case reflect.Pointer:
		if rv.IsNil() {
			return "null"
		}
		return FormatValue(rv.Elem().Interface(), level)
	}
	return formatString(fmt.Sprint(v), indent)
}

func formatString(s, indent string) string {
	if !needsQuoting.MatchString(s) && strings.TrimSpace(s) != "" &&
		!startsDigit.MatchString(s) && !looksBool.MatchString(s) {
		return s
	}
	if strings.Contains(s, "\n") {
		var b strings.Builder
		b.WriteString("|\n")
		for _, line := range strings.Split(s, "\n") {
			b.WriteString(indent + "  " + line + "\n")
		}
		return strings.TrimRight(b.String(), " \t\r\n")
	}
	return `"` + EscapeString(s) + `"`
}

func formatMapping(fields Fields, level int, indent string) string {
	if len(fields) == 0 {
		return "{}"
	}
	var b strings.Builder
	b.WriteString("\n")
	for _, f := range fields {
		val := FormatValue(f.Value, level+1)
		if strings.HasPrefix(val, "\n") {
			b.WriteString(indent + f.Key + ":" + val + "\n")
		} else {
			b.WriteString(indent + f.Key + ": " + val + "\n")
		}
	}
	return strings.TrimRight(b.String(), " \t\r\n")
}

func sortedFields(m map[string]any) Fields {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Fields, 0, len(keys))
	for _, k := range keys {
		out = append(out, Field{Key: k, Value: m[k]})
	}
	return out
}

// Frontmatter renders fields as a YAML front matter block followed by a
// blank line.
func Frontmatter(fields Fields) string {
	var b strings.Builder
	b.WriteString("---\n")
	for _, f := range fields {
		val := FormatValue(f.Value, 0)
		if strings.HasPrefix(val, "\n") {
			b.WriteString(f.Key + ":" + val + "\n")
		} else {
			b.WriteString(f.Key + ": " + val + "\n")
		}
	}
	b.WriteString("---\n\n")
	return b.String()
}

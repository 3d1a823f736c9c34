// Package ident validates and quotes SQL identifiers that are interpolated
// into query text.
//
// Column and table names discovered from a live schema are not trusted. Every
// name placed directly into SQL must go through Escape; names that also become
// output keys or generated aliases must additionally pass IsSafeName.
package ident

import (
	"regexp"
	"strings"
)

var safeName = regexp.MustCompile(`^[A-Za-z0-9_ ]+$`)

// Escape wraps name in backticks, doubling any backtick it contains.
func Escape(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// EscapeList escapes each name and joins them with ", ".
func EscapeList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = Escape(n)
	}
	return strings.Join(quoted, ", ")
}

// IsSafeName reports whether name is non-empty and consists only of ASCII
// letters, digits, underscores and spaces.
func IsSafeName(name string) bool {
	return safeName.MatchString(name)
}

// FilterSafe returns the names that pass IsSafeName, preserving order.
func FilterSafe(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if IsSafeName(n) {
			out = append(out, n)
		}
	}
	return out
}

// Alias derives a result-set alias from a column name: spaces become
// underscores, anything else outside [A-Za-z0-9_] becomes an underscore, and an
// empty result becomes "p".
func Alias(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ReplaceAll(name, " ", "_") {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "p"
	}
	return b.String()
}

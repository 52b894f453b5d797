package ffigen

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Registry resolves package and library identifier collisions within
// one generation run. The first claimant of a base name keeps it;
// later claimants receive numeric suffixes in first-seen order. A
// fresh registry is created per run, there is no cross-run state.
type Registry struct {
	used map[string]int
}

// NewRegistry returns an empty naming registry.
func NewRegistry() *Registry { return &Registry{used: make(map[string]int)} }

// Claim reserves base, or base_N for the Nth collision.
func (r *Registry) Claim(base string) string {
	n := r.used[base]
	r.used[base] = n + 1
	if n == 0 {
		return base
	}
	return base + "_" + itoa(n+1)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// Sanitize maps an arbitrary name onto a lower-case identifier made of
// letters, digits and underscores. Names starting with a digit get an
// "ext_" prefix so the result is a valid identifier everywhere.
func Sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('_')
		}
	}
	s := b.String()
	if s == "" {
		return "external"
	}
	if s[0] >= '0' && s[0] <= '9' {
		s = "ext_" + s
	}
	return s
}

var titleCaser = cases.Title(language.English, cases.NoLower)

// WrapperTypeName derives the exported host-wrapper type name from a
// package identifier: underscore-separated words in CamelCase.
func WrapperTypeName(pkgID string) string {
	parts := strings.Split(pkgID, "_")
	var b strings.Builder
	for _, part := range parts {
		if part == "" {
			continue
		}
		b.WriteString(titleCaser.String(part))
	}
	if b.Len() == 0 {
		return "ExternalModule"
	}
	return b.String()
}

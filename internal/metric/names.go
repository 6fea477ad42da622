package metric

import (
	"strings"
	"unicode"
)

// SnakeCase converts a camelCase metric identifier to snake_case: an
// underscore is inserted before each run of uppercase letters and the
// result is lowercased. Names without uppercase letters pass through
// unchanged, so already-snake_case identifiers are stable.
func SnakeCase(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	prevUpper := false
	for _, r := range s {
		if unicode.IsUpper(r) {
			if !prevUpper {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevUpper = true
			continue
		}
		b.WriteRune(r)
		prevUpper = false
	}
	return b.String()
}

package profile

import (
	"strings"
	"unicode"
)

// allowedPunct lists the non-alphanumeric characters kept by Sanitize.
const allowedPunct = " _-()[]"

// Sanitize reduces a display name to a storage key: Unicode letters and
// numbers, spaces and the characters _-()[] are kept, everything else is
// dropped, and surrounding spaces are trimmed.
func Sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || strings.ContainsRune(allowedPunct, r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

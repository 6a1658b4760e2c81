package util

import (
	"strings"
	"unicode"
)

// Slugify converts a name into a lowercase URL slug
// (e.g. "Kambing Etawa Perah Super" -> "kambing-etawa-perah-super").
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true // suppress leading dash
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

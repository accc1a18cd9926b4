package service

import (
	"strings"
	"unicode"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const slugSuffixLength = 8

// Slugify lowercases the title and collapses every run of
// non-alphanumeric characters into a single dash.
func Slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastDash = false
		} else if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// SlugSuffix returns a short random suffix appended on slug collision.
func SlugSuffix() (string, error) {
	return gonanoid.Generate("0123456789abcdefghijklmnopqrstuvwxyz", slugSuffixLength)
}

package rag

import (
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// Normalize strips angle-bracket tags and collapses whitespace runs to a
// single space. Tags are replaced before collapsing so the result is a
// fixed point: Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	stripped := tagPattern.ReplaceAllString(raw, " ")
	return strings.Join(strings.Fields(stripped), " ")
}

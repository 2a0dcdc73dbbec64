// Package htmlsanitize strips markup from user-supplied text before it is
// stored. Circle names, descriptions and brew notes are plain text; any tags
// a client sends are removed and entities are unescaped back to characters.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// PlainText removes every HTML element from s and trims surrounding space.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// PlainTextPtr applies PlainText to *s. A nil pointer stays nil.
func PlainTextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := PlainText(*s)
	return &v
}

// PlainTextAll applies PlainText to every element, dropping ones that end up
// empty.
func PlainTextAll(in []string) []string {
	if len(in) == 0 {
		return in
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if v := PlainText(s); v != "" {
			out = append(out, v)
		}
	}
	return out
}

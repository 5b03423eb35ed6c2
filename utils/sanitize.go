package utils

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	sanitizer    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
	slugInvalid  = regexp.MustCompile(`[^a-z0-9-]`)
)

// Sanitize cleans rich-text HTML content to prevent XSS attacks.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}

// StripTags removes every HTML tag, used for plain-text fields such as titles.
// The result is plain text: entities the policy encodes are decoded again.
func StripTags(input string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(input)))
}

// Slugify turns a post title into its URL slug.
func Slugify(title string) string {
	slug := strings.ToLower(strings.Join(strings.Fields(title), "-"))
	return slugInvalid.ReplaceAllString(slug, "")
}

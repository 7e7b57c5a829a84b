package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// StrictPolicy removes every tag; used for names and catalog text
var StrictPolicy = bluemonday.StrictPolicy()

// CleanText strips markup from user or API supplied text and collapses the
// surrounding whitespace. Entities escaped by the policy are decoded again so
// "Tom & Jerry" survives unchanged.
func CleanText(s string) string {
	cleaned := StrictPolicy.Sanitize(s)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// NormalizeEmail is the canonical form used as the user key
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Package htmlsanitize strips dangerous HTML from user-supplied rich
// text before it is stored. Announcement bodies and organizer notes
// accept a limited formatting vocabulary; everything else is removed.
package htmlsanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	once   sync.Once
	policy *bluemonday.Policy
)

func getPolicy() *bluemonday.Policy {
	once.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowElements("u", "s", "sub", "sup", "mark")
		p.AllowAttrs("class").OnElements("table", "thead", "tbody", "tr", "th", "td")
		p.AllowAttrs("colspan", "rowspan").OnElements("th", "td")
		policy = p
	})
	return policy
}

// Sanitize removes everything outside the allowed formatting
// vocabulary. Plain text passes through unchanged.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return getPolicy().Sanitize(s)
}

// IsPlainText reports whether the string contains no HTML tags.
func IsPlainText(s string) bool {
	return !strings.Contains(s, "<") || !strings.Contains(s, ">")
}

// StripTags removes all HTML, returning plain text. Used for fields
// that never accept formatting, like organizer note bodies shown in
// compact lists.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return bluemonday.StrictPolicy().Sanitize(s)
}

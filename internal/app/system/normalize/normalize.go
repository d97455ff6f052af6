// Package normalize provides input normalization helpers used by the
// stores before persisting user-supplied fields.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name, preserving case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// ChapterName trims a chapter name, preserving case. Chapter names are
// matched case-insensitively via their folded name_ci field.
func ChapterName(s string) string {
	return strings.TrimSpace(s)
}

// Country trims a country name, preserving case.
func Country(s string) string {
	return strings.TrimSpace(s)
}

// Instagram trims an instagram handle and strips a leading @.
func Instagram(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "@")
}

// QueryParam trims a free-text query parameter, preserving case.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Package htmlsanitize cleans user-entered task and comment text.
//
// Titles and comments are plain text: every tag is stripped. Descriptions
// may carry a small subset of formatting HTML (bluemonday's UGC policy) and
// are rendered for display with PrepareForDisplay.
package htmlsanitize

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugc    = bluemonday.UGCPolicy()
	strict = bluemonday.StrictPolicy()

	tagPattern = regexp.MustCompile(`<[a-zA-Z/!][^>]*>`)
)

// Sanitize keeps safe formatting HTML and drops scripts, handlers and
// dangerous URLs.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return ugc.Sanitize(s)
}

// PlainText strips all markup and returns trimmed, unescaped text.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// IsPlainText reports whether s contains no tags. Bare comparison operators
// ("5 < 10") are not tags.
func IsPlainText(s string) bool {
	return !tagPattern.MatchString(s)
}

// PlainTextToHTML escapes s and turns newlines into <br> inside one paragraph.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	esc := html.EscapeString(s)
	esc = strings.ReplaceAll(esc, "\r\n", "\n")
	return "<p>" + strings.ReplaceAll(esc, "\n", "<br>") + "</p>"
}

// PrepareForDisplay renders a stored description, which has already been
// through Sanitize: text without tags is paragraphed with its entities
// normalized, HTML is sanitized again.
func PrepareForDisplay(s string) string {
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return PlainTextToHTML(html.UnescapeString(s))
	}
	return Sanitize(s)
}

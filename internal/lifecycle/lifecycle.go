// Package lifecycle holds the pre-persistence transforms and derived
// attributes for posts. They are invoked explicitly by the post service,
// never as implicit model hooks.
package lifecycle

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const (
	excerptLimit     = 150
	wordsPerMinute   = 200
	excerptTruncated = "..."
)

var stripPolicy = bluemonday.StrictPolicy()

// StripMarkup removes HTML markup from content, leaving plain text.
func StripMarkup(content string) string {
	return html.UnescapeString(stripPolicy.Sanitize(content))
}

// Slugify derives a URL-safe, lowercased, hyphen-separated slug from a title.
// "Hello World!" becomes "hello-world".
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Excerpt derives a short summary from content: markup stripped, cut to
// roughly excerptLimit characters at a word boundary, with an ellipsis
// marker when truncated.
func Excerpt(content string) string {
	text := strings.Join(strings.Fields(StripMarkup(content)), " ")
	if len(text) <= excerptLimit {
		return text
	}

	// Back up to a rune boundary so multi-byte characters are never split.
	limit := excerptLimit
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	cut := text[:limit]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return cut + excerptTruncated
}

// ReadingTime estimates reading minutes from the stripped word count,
// never less than one minute.
func ReadingTime(content string) int {
	words := len(strings.Fields(StripMarkup(content)))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

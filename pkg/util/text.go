package util

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// CleanText strips HTML tags and collapses runs of whitespace into one space.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = htmlTagRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// SanitizePathName keeps letters, digits, spaces, '-' and '_' and trims the
// result to maxLen runes.
func SanitizePathName(name string, maxLen int) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	out := []rune(strings.TrimRight(b.String(), " "))
	if maxLen > 0 && len(out) > maxLen {
		out = out[:maxLen]
	}
	return string(out)
}

// TruncateRunes cuts s to at most maxLen runes and appends "..." when it did.
func TruncateRunes(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

package markdown

import "strings"

// Taken from https://core.telegram.org/bots/api#markdownv2-style.
const (
	mdV2SpecialChars  = `\_*[]()~` + "`" + `>#+-=|{}.!`
	mdV2LinkURLChars  = `\)`
	ellipsis          = "…"
	minTruncateLength = 1
)

//nolint:gochecknoglobals // Lookup tables meant to be immutable.
var (
	textLookup = lookup(mdV2SpecialChars)
	urlLookup  = lookup(mdV2LinkURLChars)
)

// EscapeV2 escapes text for MarkdownV2 outside of entities.
func EscapeV2(input string) string {
	return escape(input, &textLookup)
}

// EscapeLinkURL escapes the URL part of an inline link.
func EscapeLinkURL(input string) string {
	return escape(input, &urlLookup)
}

// Truncate cuts s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:max(n-1, minTruncateLength)]) + ellipsis
}

func escape(input string, table *[256]bool) string {
	charsToEscape := 0

	for i := range len(input) {
		if table[input[i]] {
			charsToEscape++
		}
	}
	if charsToEscape == 0 {
		return input
	}

	var b strings.Builder
	b.Grow(len(input) + charsToEscape)

	for i := range len(input) {
		c := input[i]
		if table[c] {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}

	return b.String()
}

func lookup(chars string) [256]bool {
	var m [256]bool
	for _, c := range []byte(chars) {
		m[c] = true
	}
	return m
}

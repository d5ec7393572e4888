package headlines

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

//nolint:gochecknoglobals // Immutable list of layouts seen in upstream payloads.
var publishedAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
}

// markupRe matches a complete tag or a character reference.
//
//nolint:gochecknoglobals // Compiled once, read-only.
var markupRe = regexp.MustCompile(`</?[A-Za-z][^<>]*>|&(?:[A-Za-z]+|#[0-9]+|#[xX][0-9A-Fa-f]+);`)

// plainText strips markup and collapses whitespace. Text without a tag or
// entity, and text that turns out to be markup only, is returned unchanged.
func plainText(s string) string {
	if !markupRe.MatchString(s) {
		return s
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}

	text := strings.Join(strings.Fields(doc.Text()), " ")
	if text == "" {
		return s
	}

	return text
}

// parsePublishedAt returns the zero time for values it cannot parse.
func parsePublishedAt(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}

	for _, layout := range publishedAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}

	return time.Time{}
}

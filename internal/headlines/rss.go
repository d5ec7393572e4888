package headlines

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"
)

// CategoryPlaceholder in an RSS endpoint is replaced with the category.
const CategoryPlaceholder = "{category}"

const rssUserAgent = "newsdash/1.0 (+https://github.com/mmcdole/gofeed)"

// RSS reads headlines from an RSS, Atom or JSON feed per category. The
// endpoint is a template such as
// https://example.com/rss/{category}.xml; no credential is sent.
type RSS struct{}

var _ Adapter = RSS{}

func (RSS) Name() string { return "rss" }

func (RSS) DefaultEndpoint() string { return "" }

func (RSS) RequiresCredential() bool { return false }

func (RSS) NewRequest(ctx context.Context, q Query) (*http.Request, error) {
	if strings.TrimSpace(q.Endpoint) == "" {
		return nil, errors.New("feed endpoint is empty")
	}

	feedURL := strings.ReplaceAll(q.Endpoint, CategoryPlaceholder, q.Category)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", rssUserAgent)

	return req, nil
}

func (RSS) Decode(body []byte, q Query) ([]RawArticle, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse feed: %w", ErrUpstream, err)
	}

	sourceName := strings.TrimSpace(feed.Title)

	items := feed.Items
	if q.PageSize > 0 && len(items) > q.PageSize {
		items = items[:q.PageSize]
	}

	raw := make([]RawArticle, 0, len(items))
	for _, item := range items {
		raw = append(raw, rssItemToRaw(item, sourceName))
	}

	return raw, nil
}

func rssItemToRaw(item *gofeed.Item, sourceName string) RawArticle {
	description := item.Description
	if strings.TrimSpace(description) == "" {
		description = item.Content
	}

	r := RawArticle{
		Title:       item.Title,
		Description: description,
		URL:         item.Link,
		SourceName:  sourceName,
	}

	if item.PublishedParsed != nil {
		r.PublishedAt = item.PublishedParsed.UTC()
	} else if item.UpdatedParsed != nil {
		r.PublishedAt = item.UpdatedParsed.UTC()
	}

	if item.Image != nil {
		r.ImageURL = item.Image.URL
	} else {
		for _, enclosure := range item.Enclosures {
			if enclosure != nil && strings.HasPrefix(enclosure.Type, "image/") {
				r.ImageURL = enclosure.URL
				break
			}
		}
	}

	return r
}

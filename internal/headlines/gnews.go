package headlines

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	gnewsDefaultEndpoint = "https://gnews.io/api/v4/top-headlines"
	gnewsLanguage        = "en"
)

type gnewsResponse struct {
	TotalArticles int            `json:"totalArticles"`
	Articles      []gnewsArticle `json:"articles"`
	Errors        []string       `json:"errors"`
}

type gnewsArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Image       string `json:"image"`
	PublishedAt string `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
	} `json:"source"`
}

// GNews talks to the gnews.io top-headlines endpoint.
type GNews struct{}

var _ Adapter = GNews{}

func (GNews) Name() string { return "gnews" }

func (GNews) DefaultEndpoint() string { return gnewsDefaultEndpoint }

func (GNews) RequiresCredential() bool { return true }

func (GNews) NewRequest(ctx context.Context, q Query) (*http.Request, error) {
	u, err := url.Parse(q.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}

	params := u.Query()
	params.Set("category", q.Category)
	params.Set("country", q.Country)
	params.Set("lang", gnewsLanguage)
	params.Set("max", strconv.Itoa(q.PageSize))
	params.Set("apikey", q.Credential)
	u.RawQuery = params.Encode()

	return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
}

func (GNews) Decode(body []byte, _ Query) ([]RawArticle, error) {
	var payload gnewsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode payload: %w", ErrUpstream, err)
	}

	if len(payload.Errors) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, strings.Join(payload.Errors, "; "))
	}

	if payload.Articles == nil {
		return nil, fmt.Errorf("%w: payload has no articles list", ErrUpstream)
	}

	raw := make([]RawArticle, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		raw = append(raw, RawArticle{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			SourceName:  a.Source.Name,
			PublishedAt: parsePublishedAt(a.PublishedAt),
			ImageURL:    a.Image,
		})
	}

	return raw, nil
}

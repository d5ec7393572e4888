package headlines

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const newsAPIDefaultEndpoint = "https://newsapi.org/v2/top-headlines"

type newsAPIResponse struct {
	Status       string           `json:"status"`
	Code         string           `json:"code"`
	Message      string           `json:"message"`
	TotalResults int              `json:"totalResults"`
	Articles     []newsAPIArticle `json:"articles"`
}

type newsAPIArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
}

// NewsAPI talks to the newsapi.org top-headlines endpoint.
type NewsAPI struct{}

var _ Adapter = NewsAPI{}

func (NewsAPI) Name() string { return "newsapi" }

func (NewsAPI) DefaultEndpoint() string { return newsAPIDefaultEndpoint }

func (NewsAPI) RequiresCredential() bool { return true }

func (NewsAPI) NewRequest(ctx context.Context, q Query) (*http.Request, error) {
	u, err := url.Parse(q.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}

	params := u.Query()
	params.Set("country", q.Country)
	params.Set("category", q.Category)
	params.Set("pageSize", strconv.Itoa(q.PageSize))
	params.Set("apiKey", q.Credential)
	u.RawQuery = params.Encode()

	return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
}

func (NewsAPI) Decode(body []byte, _ Query) ([]RawArticle, error) {
	var payload newsAPIResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode payload: %w", ErrUpstream, err)
	}

	if payload.Status == "error" {
		message := payload.Message
		if message == "" {
			message = "API returned an error"
		}

		return nil, fmt.Errorf("%w: %s (code = %s)", ErrUpstream, message, payload.Code)
	}

	if payload.Articles == nil {
		return nil, fmt.Errorf("%w: payload has no articles list (status = %q)", ErrUpstream, payload.Status)
	}

	raw := make([]RawArticle, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		raw = append(raw, RawArticle{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			SourceName:  a.Source.Name,
			PublishedAt: parsePublishedAt(a.PublishedAt),
			ImageURL:    a.URLToImage,
		})
	}

	return raw, nil
}

package headlines

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"newsdash/internal/config"
	"newsdash/internal/domain"
)

const (
	DefaultCountry  = "us"
	DefaultPageSize = 12

	clientTimeout      = 30 * time.Second
	maxBodyBytes       = 4 << 20
	errorSnippetLength = 512
)

// Query is what an adapter needs to build one top-headlines request.
type Query struct {
	Endpoint   string
	Credential string
	Country    string
	Category   string
	PageSize   int
}

// RawArticle is an article record as decoded from an upstream payload,
// before validity filtering.
type RawArticle struct {
	Title       string
	Description string
	URL         string
	SourceName  string
	PublishedAt time.Time
	ImageURL    string
}

// Adapter isolates everything specific to one headline source: request
// shape and payload shape. Decode must wrap application-level and
// malformed-payload errors with ErrUpstream.
type Adapter interface {
	Name() string
	DefaultEndpoint() string
	RequiresCredential() bool
	NewRequest(ctx context.Context, q Query) (*http.Request, error)
	Decode(body []byte, q Query) ([]RawArticle, error)
}

type Options struct {
	Endpoint   string
	Credential string
	Country    string
	PageSize   int
	HTTPClient *http.Client
}

// Provider fetches top headlines through an Adapter and substitutes
// fallback data when the source fails for reasons other than credentials or
// quota.
type Provider struct {
	adapter    Adapter
	endpoint   string
	credential string
	country    string
	pageSize   int
	client     *http.Client
	fallback   *Fallback
	log        *slog.Logger
}

func NewProvider(
	adapter Adapter,
	opts Options,
	fallback *Fallback,
	log *slog.Logger,
) *Provider {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = adapter.DefaultEndpoint()
	}

	country := strings.TrimSpace(opts.Country)
	if country == "" {
		country = DefaultCountry
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: clientTimeout}
	}

	return &Provider{
		adapter:    adapter,
		endpoint:   endpoint,
		credential: strings.TrimSpace(opts.Credential),
		country:    country,
		pageSize:   pageSize,
		client:     client,
		fallback:   fallback,
		log:        log,
	}
}

// FetchHeadlines returns the filtered top headlines for category.
func (p *Provider) FetchHeadlines(
	ctx context.Context,
	category string,
) (domain.HeadlineBatch, error) {
	category = domain.NormalizeCategory(category)

	if p.adapter.RequiresCredential() && !config.IsConfigured(p.credential) {
		return domain.HeadlineBatch{}, fmt.Errorf("%w (source = %s)", ErrConfiguration, p.adapter.Name())
	}

	batch, err := p.fetch(ctx, category)
	if err == nil {
		return batch, nil
	}

	if !recoverable(err) || p.fallback == nil {
		return domain.HeadlineBatch{}, err
	}

	fallbackBatch := p.fallback.Batch(category)
	p.log.WarnContext(ctx, "Failed to fetch headlines so fallback data will be used",
		"error", err,
		"source", p.adapter.Name(),
		"category", category,
		"fallbackCount", fallbackBatch.TotalCount)

	return fallbackBatch, nil
}

func (p *Provider) fetch(
	ctx context.Context,
	category string,
) (domain.HeadlineBatch, error) {
	q := Query{
		Endpoint:   p.endpoint,
		Credential: p.credential,
		Country:    p.country,
		Category:   category,
		PageSize:   p.pageSize,
	}

	req, err := p.adapter.NewRequest(ctx, q)
	if err != nil {
		return domain.HeadlineBatch{}, fmt.Errorf("%w: create request: %w", ErrUpstream, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.HeadlineBatch{}, fmt.Errorf("%w: do request: %w", ErrUpstream, err)
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			p.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"source", p.adapter.Name(),
				"category", category)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return domain.HeadlineBatch{}, fmt.Errorf("%w: read body: %w", ErrUpstream, err)
	}

	if err = statusError(resp.StatusCode, body); err != nil {
		return domain.HeadlineBatch{}, err
	}

	raw, err := p.adapter.Decode(body, q)
	if err != nil {
		return domain.HeadlineBatch{}, err
	}

	articles := FilterArticles(raw)

	p.log.DebugContext(ctx, "Headlines are fetched",
		"source", p.adapter.Name(),
		"category", category,
		"rawCount", len(raw),
		"validCount", len(articles))

	return domain.NewHeadlineBatch(articles), nil
}

func statusError(statusCode int, body []byte) error {
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return nil
	}

	snippet := strings.TrimSpace(string(body))
	if len(snippet) > errorSnippetLength {
		snippet = snippet[:errorSnippetLength]
	}

	switch statusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w (status = %d): %s", ErrAuth, statusCode, snippet)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w (status = %d): %s", ErrRateLimit, statusCode, snippet)
	default:
		return fmt.Errorf("%w: unexpected status: %d: %s", ErrUpstream, statusCode, snippet)
	}
}

// FilterArticles drops records that cannot be displayed and converts the
// rest, preserving order.
func FilterArticles(raw []RawArticle) []domain.Article {
	articles := make([]domain.Article, 0, len(raw))

	for _, r := range raw {
		article := domain.Article{
			Title:       strings.TrimSpace(r.Title),
			Description: strings.TrimSpace(r.Description),
			URL:         strings.TrimSpace(r.URL),
			SourceName:  strings.TrimSpace(r.SourceName),
			PublishedAt: r.PublishedAt,
			ImageURL:    strings.TrimSpace(r.ImageURL),
		}
		if !article.Displayable() {
			continue
		}

		article.Title = plainText(article.Title)
		article.Description = plainText(article.Description)

		articles = append(articles, article)
	}

	return articles
}

// AdapterByName resolves a configured source name to its adapter.
func AdapterByName(name string) (Adapter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NewsAPI{}.Name():
		return NewsAPI{}, nil
	case GNews{}.Name():
		return GNews{}, nil
	case RSS{}.Name():
		return RSS{}, nil
	default:
		return nil, fmt.Errorf("unknown headline source %q", name)
	}
}

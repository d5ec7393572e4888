// Package app builds the news pipeline from configuration for the binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"newsdash/internal/config"
	"newsdash/internal/dashboard"
	"newsdash/internal/headlines"
	"newsdash/internal/summarizer"
)

// NewHeadlineProvider builds the configured headline source with the
// embedded fallback data.
func NewHeadlineProvider(
	ctx context.Context,
	cfg config.Config,
	log *slog.Logger,
) (*headlines.Provider, error) {
	adapter, err := headlines.AdapterByName(cfg.NewsProvider)
	if err != nil {
		return nil, fmt.Errorf("select adapter: %w", err)
	}

	fallback, err := headlines.LoadFallback()
	if err != nil {
		return nil, fmt.Errorf("load fallback data: %w", err)
	}

	if adapter.RequiresCredential() && !config.IsConfigured(cfg.NewsAPIKey) {
		log.WarnContext(ctx, "NEWS_API_KEY is missing so refreshes will show a credential error",
			"envVar", "NEWS_API_KEY",
			"source", adapter.Name())
	}

	provider := headlines.NewProvider(adapter, headlines.Options{
		Endpoint:   cfg.NewsAPIEndpoint,
		Credential: cfg.NewsAPIKey,
		Country:    cfg.NewsCountry,
		PageSize:   cfg.NewsPageSize,
	}, fallback, log)

	log.InfoContext(ctx, "Headline provider is initialized",
		"source", adapter.Name(),
		"country", cfg.NewsCountry,
		"pageSize", cfg.NewsPageSize)

	return provider, nil
}

// NewSummarizer builds the configured summarizer. Without a usable
// credential every summary is a fallback one.
func NewSummarizer(ctx context.Context, cfg config.Config, log *slog.Logger) *summarizer.ArticleSummarizer {
	completer, envVar, err := newCompleter(cfg)
	if err != nil {
		log.WarnContext(ctx, "Summarizer is not configured so fallback will be used",
			"error", err,
			"envVar", envVar,
			"provider", cfg.SummarizerProvider)

		return summarizer.New(nil, log)
	}

	log.InfoContext(ctx, "Summarizer is initialized",
		"provider", cfg.SummarizerProvider)

	return summarizer.New(completer, log)
}

func newCompleter(cfg config.Config) (summarizer.Completer, string, error) {
	switch cfg.SummarizerProvider {
	case config.SummarizerProviderOpenAI:
		c, err := summarizer.NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.SummaryMaxTokens)
		return c, "OPENAI_API_KEY", err
	default:
		c, err := summarizer.NewAnthropicCompleter(summarizer.AnthropicOptions{
			BaseURL:   cfg.AnthropicBaseURL,
			APIKey:    cfg.AnthropicAPIKey,
			Model:     cfg.AnthropicModel,
			MaxTokens: cfg.SummaryMaxTokens,
		})
		return c, "ANTHROPIC_API_KEY", err
	}
}

// Pipeline holds the shared collaborators every dashboard session uses.
type Pipeline struct {
	Headlines  *headlines.Provider
	Summarizer *summarizer.ArticleSummarizer
	Log        *slog.Logger
}

func NewPipeline(ctx context.Context, cfg config.Config, log *slog.Logger) (*Pipeline, error) {
	provider, err := NewHeadlineProvider(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		Headlines:  provider,
		Summarizer: NewSummarizer(ctx, cfg, log),
		Log:        log,
	}, nil
}

// NewController builds a dashboard session rendering to observer.
func (p *Pipeline) NewController(observer dashboard.Observer) *dashboard.Controller {
	return dashboard.New(p.Headlines, p.Summarizer, observer, p.Log)
}

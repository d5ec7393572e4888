package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"newsdash/internal/domain"
	"newsdash/internal/headlines"
)

const (
	MessageInvalidCredential = "🔑 Invalid or missing API key. Please update your news API key configuration."
	MessageRateLimited       = "⏱️ API rate limit exceeded. Please wait a moment and try again."
	MessageNoArticles        = "No articles found for this category. Try a different category."
	MessageFetchFailed       = "Failed to fetch news. Please try again."
)

var (
	// ErrSuperseded is returned by a Refresh whose cycle was replaced by a
	// newer one before it settled.
	ErrSuperseded = errors.New("refresh superseded by a newer one")
	// ErrNoArticles means the source returned an empty batch.
	ErrNoArticles = errors.New("no articles found")
)

type HeadlineFetcher interface {
	FetchHeadlines(ctx context.Context, category string) (domain.HeadlineBatch, error)
}

type Summarizer interface {
	SummarizeArticle(ctx context.Context, index int, article domain.Article) domain.SummaryResult
}

// Controller owns one dashboard state and drives it through
// fetch-then-summarize refresh cycles.
type Controller struct {
	headlines  HeadlineFetcher
	summarizer Summarizer
	observer   Observer
	log        *slog.Logger

	mu    sync.Mutex
	state domain.DashboardState
}

func New(
	headlines HeadlineFetcher,
	summarizer Summarizer,
	observer Observer,
	log *slog.Logger,
) *Controller {
	if observer == nil {
		observer = nopObserver{}
	}

	return &Controller{
		headlines:  headlines,
		summarizer: summarizer,
		observer:   observer,
		log:        log,
		state: domain.DashboardState{
			Category: domain.DefaultCategory,
			Phase:    domain.PhaseIdle,
		},
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() domain.DashboardState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state.Clone()
}

// Refresh runs one cycle for category and returns once every summary has
// settled. A fetch failure moves the dashboard to the error phase and is
// returned wrapped. If a newer Refresh starts meanwhile, the results of this
// one are dropped and ErrSuperseded is returned with the newer state.
func (c *Controller) Refresh(
	ctx context.Context,
	category string,
) (domain.DashboardState, error) {
	category = domain.NormalizeCategory(category)
	start := time.Now()

	cycle := c.begin(category)

	batch, err := c.headlines.FetchHeadlines(ctx, category)
	if err == nil && len(batch.Articles) == 0 {
		err = ErrNoArticles
	}
	if err != nil {
		return c.fail(ctx, cycle, err)
	}

	if !c.display(cycle, batch) {
		return c.Snapshot(), ErrSuperseded
	}

	var wg sync.WaitGroup
	for i, article := range batch.Articles {
		wg.Go(func() {
			result := c.summarizer.SummarizeArticle(ctx, i, article)
			c.apply(cycle, article, result)
		})
	}
	wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Cycle != cycle {
		return c.state.Clone(), ErrSuperseded
	}

	c.log.InfoContext(ctx, "Refreshed dashboard",
		"cycle", cycle,
		"category", category,
		"articles", c.state.Articles.TotalCount,
		"summarized", c.state.SummarizedCount,
		"duration", time.Since(start))

	return c.state.Clone(), nil
}

func (c *Controller) begin(category string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = domain.DashboardState{
		Cycle:     c.state.Cycle + 1,
		Category:  category,
		Phase:     domain.PhaseLoading,
		IsLoading: true,
	}
	c.observer.SetLoading(true)

	return c.state.Cycle
}

func (c *Controller) fail(
	ctx context.Context,
	cycle uint64,
	err error,
) (domain.DashboardState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Cycle != cycle {
		return c.state.Clone(), ErrSuperseded
	}

	message := ErrorMessage(err)
	c.state.Phase = domain.PhaseError
	c.state.IsLoading = false
	c.state.ErrorMessage = message
	c.observer.SetLoading(false)
	c.observer.ShowError(message)

	c.log.WarnContext(ctx, "Failed to refresh dashboard",
		"error", err,
		"cycle", cycle,
		"category", c.state.Category)

	return c.state.Clone(), fmt.Errorf("fetch headlines: %w", err)
}

func (c *Controller) display(cycle uint64, batch domain.HeadlineBatch) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Cycle != cycle {
		return false
	}

	c.state.Phase = domain.PhaseDisplaying
	c.state.Articles = batch
	c.state.Summaries = make([]string, len(batch.Articles))
	c.state.SummarizedCount = 0
	c.state.IsLoading = false

	c.observer.RenderArticles(batch)
	c.observer.SetStats(batch.TotalCount, 0)
	c.observer.SetLoading(false)

	return true
}

func (c *Controller) apply(cycle uint64, article domain.Article, result domain.SummaryResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Cycle != cycle {
		return
	}
	if result.ArticleIndex < 0 || result.ArticleIndex >= len(c.state.Summaries) {
		return
	}

	text := result.Text
	if !result.Succeeded {
		text = article.Description
	}

	c.state.Summaries[result.ArticleIndex] = text
	c.observer.UpdateSummary(result.ArticleIndex, text)

	if result.Succeeded {
		c.state.SummarizedCount++
		c.observer.SetStats(c.state.Articles.TotalCount, c.state.SummarizedCount)
	}
}

// ErrorMessage maps a refresh error to the text shown to users.
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, headlines.ErrAuth), errors.Is(err, headlines.ErrConfiguration):
		return MessageInvalidCredential
	case errors.Is(err, headlines.ErrRateLimit):
		return MessageRateLimited
	case errors.Is(err, ErrNoArticles):
		return MessageNoArticles
	default:
		return MessageFetchFailed
	}
}

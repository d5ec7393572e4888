package dashboard_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"

	"newsdash/internal/dashboard"
	"newsdash/internal/domain"
	"newsdash/internal/headlines"
	"newsdash/internal/summarizer"
)

type stubFetcher struct {
	batches map[string]domain.HeadlineBatch
	err     error
}

func (s stubFetcher) FetchHeadlines(_ context.Context, category string) (domain.HeadlineBatch, error) {
	if s.err != nil {
		return domain.HeadlineBatch{}, s.err
	}

	return s.batches[category], nil
}

type funcSummarizer func(ctx context.Context, index int, article domain.Article) domain.SummaryResult

func (f funcSummarizer) SummarizeArticle(ctx context.Context, index int, article domain.Article) domain.SummaryResult {
	return f(ctx, index, article)
}

type recordingObserver struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingObserver) record(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recordingObserver) RenderArticles(batch domain.HeadlineBatch) {
	r.record("render %d", batch.TotalCount)
}

func (r *recordingObserver) UpdateSummary(index int, text string) {
	r.record("summary %d %s", index, text)
}

func (r *recordingObserver) SetStats(total int, summarized int) {
	r.record("stats %d/%d", summarized, total)
}

func (r *recordingObserver) SetLoading(loading bool) {
	r.record("loading %v", loading)
}

func (r *recordingObserver) ShowError(message string) {
	r.record("error %s", message)
}

func (r *recordingObserver) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.events)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func articles(titles ...string) domain.HeadlineBatch {
	out := make([]domain.Article, 0, len(titles))
	for _, title := range titles {
		out = append(out, domain.Article{
			Title:       title,
			Description: title + " description",
			URL:         "https://example.com/" + title,
		})
	}

	return domain.NewHeadlineBatch(out)
}

func succeeding(_ context.Context, index int, article domain.Article) domain.SummaryResult {
	return domain.SummaryResult{ArticleIndex: index, Text: article.Title + " summary", Succeeded: true}
}

func TestRefreshWithFailingSourceAndSummarizerShowsDescriptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	fallback, err := headlines.LoadFallback()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	provider := headlines.NewProvider(headlines.NewsAPI{}, headlines.Options{
		Endpoint:   srv.URL,
		Credential: "secret",
	}, fallback, discardLogger())

	s := summarizer.New(failingCompleter{}, discardLogger())

	c := dashboard.New(provider, s, nil, discardLogger())

	state, err := c.Refresh(context.Background(), "technology")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if state.Phase != domain.PhaseDisplaying {
		t.Fatalf("unexpected phase: %s", state.Phase)
	}
	if state.Articles.TotalCount != 2 {
		t.Fatalf("expected 2 articles, got %d", state.Articles.TotalCount)
	}
	for i, article := range state.Articles.Articles {
		if state.Summaries[i] != article.Description {
			t.Fatalf("summary %d: got %q want %q", i, state.Summaries[i], article.Description)
		}
	}
	if state.SummarizedCount != 0 {
		t.Fatalf("expected summarized count 0, got %d", state.SummarizedCount)
	}
	if state.IsLoading {
		t.Fatalf("expected loading to be finished")
	}
}

type failingCompleter struct{}

func (failingCompleter) Complete(context.Context, string) (string, error) {
	return "", errors.New("completion failed")
}

func TestRefreshCountsSuccessfulSummaries(t *testing.T) {
	observer := &recordingObserver{}
	c := dashboard.New(stubFetcher{batches: map[string]domain.HeadlineBatch{
		"science": articles("a", "b", "c"),
	}}, funcSummarizer(succeeding), observer, discardLogger())

	state, err := c.Refresh(context.Background(), "Science")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if state.Category != "science" || state.SummarizedCount != 3 || state.Pending() != 0 {
		t.Fatalf("unexpected state: %+v", state)
	}
	for i, article := range state.Articles.Articles {
		if state.Summaries[i] != article.Title+" summary" {
			t.Fatalf("unexpected summary %d: %q", i, state.Summaries[i])
		}
	}

	events := observer.snapshot()
	want := []string{"loading true", "render 3", "stats 0/3", "loading false"}
	if !slices.Equal(events[:len(want)], want) {
		t.Fatalf("unexpected leading events: %v", events[:len(want)])
	}
	if events[len(events)-1] != "stats 3/3" {
		t.Fatalf("unexpected last event: %q", events[len(events)-1])
	}
}

func TestRefreshMixedResults(t *testing.T) {
	s := funcSummarizer(func(_ context.Context, index int, article domain.Article) domain.SummaryResult {
		if index == 1 {
			return domain.SummaryResult{ArticleIndex: index, Text: "truncated fallback", Succeeded: false}
		}

		return succeeding(context.Background(), index, article)
	})

	c := dashboard.New(stubFetcher{batches: map[string]domain.HeadlineBatch{
		"general": articles("a", "b"),
	}}, s, nil, discardLogger())

	state, err := c.Refresh(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if state.SummarizedCount != 1 {
		t.Fatalf("expected 1 summarized article, got %d", state.SummarizedCount)
	}
	if state.Summaries[1] != "b description" {
		t.Fatalf("expected raw description for failed summary, got %q", state.Summaries[1])
	}
}

func TestRefreshErrors(t *testing.T) {
	tests := []struct {
		name    string
		fetcher stubFetcher
		message string
	}{
		{"Auth", stubFetcher{err: fmt.Errorf("%w: unexpected status: 401", headlines.ErrAuth)}, dashboard.MessageInvalidCredential},
		{"Configuration", stubFetcher{err: headlines.ErrConfiguration}, dashboard.MessageInvalidCredential},
		{"Rate limit", stubFetcher{err: headlines.ErrRateLimit}, dashboard.MessageRateLimited},
		{"Other", stubFetcher{err: errors.New("boom")}, dashboard.MessageFetchFailed},
		{"Empty batch", stubFetcher{}, dashboard.MessageNoArticles},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			observer := &recordingObserver{}
			c := dashboard.New(test.fetcher, funcSummarizer(succeeding), observer, discardLogger())

			state, err := c.Refresh(context.Background(), "health")
			if err == nil {
				t.Fatalf("expected error")
			}
			if errors.Is(err, dashboard.ErrSuperseded) {
				t.Fatalf("unexpected superseded error")
			}

			if state.Phase != domain.PhaseError || state.ErrorMessage != test.message || state.IsLoading {
				t.Fatalf("unexpected state: %+v", state)
			}

			events := observer.snapshot()
			want := []string{"loading true", "loading false", "error " + test.message}
			if !slices.Equal(events, want) {
				t.Fatalf("unexpected events: %v", events)
			}

			if got := c.Snapshot(); got.ErrorMessage != test.message {
				t.Fatalf("unexpected snapshot message: %q", got.ErrorMessage)
			}
		})
	}
}

func TestStaleCycleResultsAreDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	s := funcSummarizer(func(ctx context.Context, index int, article domain.Article) domain.SummaryResult {
		if article.Title == "old" {
			close(started)
			<-release
		}

		return succeeding(ctx, index, article)
	})

	c := dashboard.New(stubFetcher{batches: map[string]domain.HeadlineBatch{
		"business":   articles("old"),
		"technology": articles("new"),
	}}, s, nil, discardLogger())

	type outcome struct {
		state domain.DashboardState
		err   error
	}
	first := make(chan outcome, 1)

	go func() {
		state, err := c.Refresh(context.Background(), "business")
		first <- outcome{state, err}
	}()

	<-started

	second, err := c.Refresh(context.Background(), "technology")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Cycle != 2 || second.SummarizedCount != 1 {
		t.Fatalf("unexpected second state: %+v", second)
	}

	close(release)
	result := <-first

	if !errors.Is(result.err, dashboard.ErrSuperseded) {
		t.Fatalf("expected superseded error, got %v", result.err)
	}

	state := c.Snapshot()
	if state.Category != "technology" || state.SummarizedCount != 1 {
		t.Fatalf("stale results leaked into state: %+v", state)
	}
	if state.Summaries[0] != "new summary" {
		t.Fatalf("unexpected summary: %q", state.Summaries[0])
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	c := dashboard.New(stubFetcher{batches: map[string]domain.HeadlineBatch{
		"general": articles("a"),
	}}, funcSummarizer(succeeding), nil, discardLogger())

	if got := c.Snapshot(); got.Phase != domain.PhaseIdle || got.Category != domain.DefaultCategory {
		t.Fatalf("unexpected initial state: %+v", got)
	}

	if _, err := c.Refresh(context.Background(), "general"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snapshot := c.Snapshot()
	snapshot.Summaries[0] = "mutated"

	if c.Snapshot().Summaries[0] != "a summary" {
		t.Fatalf("snapshot shares state with controller")
	}
}

func TestSessions(t *testing.T) {
	built := 0
	sessions := dashboard.NewSessions(func(int64) *dashboard.Controller {
		built++
		return dashboard.New(stubFetcher{}, funcSummarizer(succeeding), nil, discardLogger())
	})

	a := sessions.Get(1)
	if sessions.Get(1) != a {
		t.Fatalf("expected the same controller for the same key")
	}
	if sessions.Get(2) == a {
		t.Fatalf("expected a new controller for a new key")
	}
	if built != 2 || sessions.Len() != 2 {
		t.Fatalf("unexpected sessions: built %d len %d", built, sessions.Len())
	}
}

func TestObserversFanOut(t *testing.T) {
	first := &recordingObserver{}
	second := &recordingObserver{}
	observers := dashboard.Observers{first, second, dashboard.NewLogObserver(discardLogger(), "test")}

	observers.SetLoading(true)
	observers.ShowError("oops")

	for _, observer := range []*recordingObserver{first, second} {
		if got := observer.snapshot(); !slices.Equal(got, []string{"loading true", "error oops"}) {
			t.Fatalf("unexpected events: %v", got)
		}
	}
}

package summarizer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"newsdash/internal/domain"
)

type stubCompleter struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	summary string
	err     error
}

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.prompts = append(s.prompts, prompt)

	return s.summary, s.err
}

func (s *stubCompleter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls
}

func TestFallbackSummary(t *testing.T) {
	long := strings.Repeat("a", 120)
	veryLong := strings.Repeat("b", 200)
	exactly100 := strings.Repeat("c", 100)

	tests := []struct {
		name        string
		description string
		want        string
	}{
		{"Empty", "", NoDetailsSummary},
		{"Whitespace only is verbatim", "   ", "   "},
		{"Short is verbatim", "Short description.", "Short description."},
		{"Exactly 100 is verbatim", exactly100, exactly100},
		{"Between 100 and 150 gets ellipsis", long, long + "..."},
		{"Longer than 150 is truncated", veryLong, strings.Repeat("b", 150) + "..."},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := FallbackSummary(test.description); got != test.want {
				t.Fatalf("unexpected fallback summary: got %q want %q", got, test.want)
			}
		})
	}
}

func TestFallbackSummaryCountsRunes(t *testing.T) {
	description := strings.Repeat("é", 160)

	got := FallbackSummary(description)
	want := strings.Repeat("é", 150) + "..."
	if got != want {
		t.Fatalf("expected rune-based truncation, got %d bytes", len(got))
	}
}

func TestSummarizeUsesCompleter(t *testing.T) {
	stub := &stubCompleter{summary: "  Model summary.  "}
	s := New(stub, slog.Default())

	result := s.SummarizeArticle(context.Background(), 3, domain.Article{
		Title:       "Title",
		Description: "Description with https://example.com/link inside",
	})

	if !result.Succeeded || result.Text != "Model summary." || result.ArticleIndex != 3 {
		t.Fatalf("unexpected result: %+v", result)
	}

	if got := stub.callCount(); got != 1 {
		t.Fatalf("expected one completion call, got %d", got)
	}

	prompt := stub.prompts[0]
	if !strings.Contains(prompt, "Title: Title") {
		t.Fatalf("expected title in prompt, got %q", prompt)
	}
	if strings.Contains(prompt, "https://example.com/link") {
		t.Fatalf("expected link to be stripped from prompt, got %q", prompt)
	}
	if !strings.Contains(prompt, "2-3 sentences") {
		t.Fatalf("expected summary instructions in prompt, got %q", prompt)
	}
}

func TestSummarizeFallsBackOnFailure(t *testing.T) {
	description := "Scientists develop groundbreaking AI system."

	tests := []struct {
		name      string
		completer Completer
	}{
		{"No completer", nil},
		{"Completer error", &stubCompleter{err: errors.New("boom")}},
		{"Empty completion", &stubCompleter{summary: "   "}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := New(test.completer, slog.Default())

			result := s.SummarizeArticle(context.Background(), 0, domain.Article{
				Title:       "Title",
				Description: description,
			})
			if result.Succeeded {
				t.Fatalf("expected failure to be reported")
			}
			if result.Text != description {
				t.Fatalf("unexpected fallback text: %q", result.Text)
			}

			if got := s.Summarize(context.Background(), "Title", description); got != description {
				t.Fatalf("unexpected Summarize text: %q", got)
			}
		})
	}
}

func TestSummarizeNeverReturnsEmpty(t *testing.T) {
	s := New(&stubCompleter{err: context.DeadlineExceeded}, slog.Default())

	for _, description := range []string{"x", strings.Repeat("y", 101), strings.Repeat("z", 400)} {
		if got := s.Summarize(context.Background(), "Title", description); got == "" {
			t.Fatalf("expected non-empty summary for description of length %d", len(description))
		}
	}
}

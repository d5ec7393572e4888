package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"mvdan.cc/xurls/v2"

	"newsdash/internal/domain"
)

const (
	// NoDetailsSummary is shown when an article has no description at all.
	NoDetailsSummary = "No additional details available for this article."

	fallbackTruncateAfterChars = 100
	fallbackMaxChars           = 150
	fallbackEllipsis           = "..."

	promptTemplate = `Please provide a concise, informative summary of this news article in 2-3 sentences. Focus on the key facts and implications:

Title: %s
Description: %s

Summary:`
)

//nolint:gochecknoglobals // Compiled once, read-only afterwards.
var linkRe = xurls.Strict()

// Completer sends one prompt to a language model and returns the generated
// text. Implementations make a single attempt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ArticleSummarizer produces short article summaries and never fails: every
// error is replaced with a summary derived from the description.
type ArticleSummarizer struct {
	completer Completer
	log       *slog.Logger
}

// New builds a summarizer. A nil completer means no credential is
// configured, so every summary is a fallback one.
func New(completer Completer, log *slog.Logger) *ArticleSummarizer {
	return &ArticleSummarizer{
		completer: completer,
		log:       log,
	}
}

// Summarize returns a model summary or, on any failure, a fallback one.
func (s *ArticleSummarizer) Summarize(
	ctx context.Context,
	title string,
	description string,
) string {
	text, _ := s.summarize(ctx, title, description)
	return text
}

// SummarizeArticle is Summarize for the article at index, reporting whether
// the text came from the model.
func (s *ArticleSummarizer) SummarizeArticle(
	ctx context.Context,
	index int,
	article domain.Article,
) domain.SummaryResult {
	text, ok := s.summarize(ctx, article.Title, article.Description)

	return domain.SummaryResult{
		ArticleIndex: index,
		Text:         text,
		Succeeded:    ok,
	}
}

func (s *ArticleSummarizer) summarize(
	ctx context.Context,
	title string,
	description string,
) (string, bool) {
	if s == nil || s.completer == nil {
		return FallbackSummary(description), false
	}

	summary, err := s.completer.Complete(ctx, BuildPrompt(title, description))
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to summarize article",
			"error", err,
			"title", title,
			"fallback", true,
			"descriptionLen", len(description))

		return FallbackSummary(description), false
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		s.log.WarnContext(ctx, "Empty article summary",
			"title", title,
			"fallback", true)

		return FallbackSummary(description), false
	}

	return summary, true
}

// BuildPrompt embeds the article into the summary instructions. Links are
// dropped from the description.
func BuildPrompt(title string, description string) string {
	description = linkRe.ReplaceAllString(description, "")
	description = strings.Join(strings.Fields(description), " ")

	return fmt.Sprintf(promptTemplate, strings.TrimSpace(title), description)
}

// FallbackSummary derives a summary from the description alone: long
// descriptions are cut to 150 characters plus an ellipsis, short non-empty
// ones are returned verbatim.
func FallbackSummary(description string) string {
	if description == "" {
		return NoDetailsSummary
	}

	runes := []rune(description)
	if len(runes) <= fallbackTruncateAfterChars {
		return description
	}

	return string(runes[:min(len(runes), fallbackMaxChars)]) + fallbackEllipsis
}

package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"newsdash/internal/dashboard"
	"newsdash/internal/domain"
)

const (
	defaultWidth   = 80
	minWidth       = 40
	pendingSummary = "Summarizing..."
	dateLayout     = "Jan 2, 2006 15:04"
)

// Observer streams dashboard progress to a writer, one line per
// transition.
type Observer struct {
	w     io.Writer
	width int
	batch domain.HeadlineBatch
}

var _ dashboard.Observer = (*Observer)(nil)

func NewObserver(w io.Writer, width int) *Observer {
	return &Observer{w: w, width: clampWidth(width)}
}

func (o *Observer) RenderArticles(batch domain.HeadlineBatch) {
	o.batch = batch
	o.println(statusStyle.Render(fmt.Sprintf("Loaded %d articles", batch.TotalCount)))
}

func (o *Observer) UpdateSummary(index int, text string) {
	title := ""
	if index >= 0 && index < len(o.batch.Articles) {
		title = o.batch.Articles[index].Title
	}

	o.println(lipgloss.JoinHorizontal(lipgloss.Top,
		sourceStyle.Render(fmt.Sprintf("[%d] ", index+1)),
		titleStyle.Render(truncate(title, o.width-6))))
	o.println(dimStyle.Render("    " + truncate(text, o.width-4)))
}

func (o *Observer) SetStats(total int, summarized int) {
	o.println(statusStyle.Render(fmt.Sprintf("%d/%d summarized", summarized, total)))
}

func (o *Observer) SetLoading(loading bool) {
	if loading {
		o.println(dimStyle.Render("Loading headlines..."))
	}
}

func (o *Observer) ShowError(message string) {
	o.println(errorStyle.Render(message))
}

func (o *Observer) println(s string) {
	_, _ = fmt.Fprintln(o.w, s)
}

// Render draws the whole dashboard state as a block of styled text.
func Render(state domain.DashboardState, width int) string {
	width = clampWidth(width)

	var b strings.Builder

	b.WriteString(headerStyle.Render("Top headlines: " + capitalize(state.Category)))
	b.WriteString("\n")

	switch state.Phase {
	case domain.PhaseError:
		b.WriteString(errorStyle.Render(state.ErrorMessage))
		b.WriteString("\n")
		return b.String()
	case domain.PhaseIdle, domain.PhaseLoading:
		b.WriteString(dimStyle.Render("Loading headlines..."))
		b.WriteString("\n")
		return b.String()
	case domain.PhaseDisplaying:
	}

	b.WriteString(statusStyle.Render(fmt.Sprintf(
		"%d articles, %d summarized", state.Articles.TotalCount, state.SummarizedCount)))
	b.WriteString("\n")

	cardWidth := width - cardStyle.GetHorizontalFrameSize()
	for i, article := range state.Articles.Articles {
		summary := pendingSummary
		if i < len(state.Summaries) && state.Summaries[i] != "" {
			summary = state.Summaries[i]
		}

		b.WriteString(renderCard(article, summary, cardWidth))
		b.WriteString("\n")
	}

	return b.String()
}

func renderCard(article domain.Article, summary string, width int) string {
	meta := sourceStyle.Render(article.SourceName)
	if !article.PublishedAt.IsZero() {
		meta = lipgloss.JoinHorizontal(lipgloss.Top,
			meta, dimStyle.Render(" · "), dateStyle.Render(article.PublishedAt.Local().Format(dateLayout)))
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Width(width).Render(article.Title),
		meta,
		lipgloss.NewStyle().Width(width).Render(summary),
		linkStyle.Render(article.URL),
	)

	return cardStyle.Width(width).Render(body)
}

func clampWidth(width int) int {
	if width <= 0 {
		return defaultWidth
	}

	return max(width, minWidth)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:max(n-1, 0)]) + "…"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}

package dashboard

import (
	"log/slog"

	"newsdash/internal/domain"
)

// Observer renders dashboard transitions. The controller calls it with its
// lock held and in transition order, so implementations must return quickly
// and must not call back into the controller.
type Observer interface {
	RenderArticles(batch domain.HeadlineBatch)
	UpdateSummary(index int, text string)
	SetStats(total int, summarized int)
	SetLoading(loading bool)
	ShowError(message string)
}

// Observers fans every call out to each observer in order.
type Observers []Observer

var _ Observer = Observers(nil)

func (o Observers) RenderArticles(batch domain.HeadlineBatch) {
	for _, observer := range o {
		observer.RenderArticles(batch)
	}
}

func (o Observers) UpdateSummary(index int, text string) {
	for _, observer := range o {
		observer.UpdateSummary(index, text)
	}
}

func (o Observers) SetStats(total int, summarized int) {
	for _, observer := range o {
		observer.SetStats(total, summarized)
	}
}

func (o Observers) SetLoading(loading bool) {
	for _, observer := range o {
		observer.SetLoading(loading)
	}
}

func (o Observers) ShowError(message string) {
	for _, observer := range o {
		observer.ShowError(message)
	}
}

// LogObserver writes every transition to a structured logger.
type LogObserver struct {
	log     *slog.Logger
	session string
}

var _ Observer = (*LogObserver)(nil)

func NewLogObserver(log *slog.Logger, session string) *LogObserver {
	return &LogObserver{log: log, session: session}
}

func (o *LogObserver) RenderArticles(batch domain.HeadlineBatch) {
	o.log.Info("Rendered articles",
		"session", o.session,
		"count", batch.TotalCount)
}

func (o *LogObserver) UpdateSummary(index int, text string) {
	o.log.Debug("Updated summary",
		"session", o.session,
		"index", index,
		"textLen", len(text))
}

func (o *LogObserver) SetStats(total int, summarized int) {
	o.log.Debug("Updated stats",
		"session", o.session,
		"total", total,
		"summarized", summarized)
}

func (o *LogObserver) SetLoading(loading bool) {
	o.log.Debug("Updated loading",
		"session", o.session,
		"loading", loading)
}

func (o *LogObserver) ShowError(message string) {
	o.log.Warn("Showed dashboard error",
		"session", o.session,
		"message", message)
}

type nopObserver struct{}

func (nopObserver) RenderArticles(domain.HeadlineBatch) {}
func (nopObserver) UpdateSummary(int, string)           {}
func (nopObserver) SetStats(int, int)                   {}
func (nopObserver) SetLoading(bool)                     {}
func (nopObserver) ShowError(string)                    {}

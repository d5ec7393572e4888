package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"newsdash/internal/dashboard"
	"newsdash/internal/domain"
	"newsdash/internal/markdown"
)

const (
	chatViewQueueSize  = 256
	maxSummaryRunes    = 3000
	publishedAtLayout  = "Jan 2, 2006 15:04 UTC"
	loadingText        = "⏳ Loading headlines\\.\\.\\."
	pendingSummaryText = "⏳ _Summarizing\\.\\.\\._"
)

// chatView renders one chat's dashboard as one message per article that is
// edited as summaries arrive. Observer calls only enqueue work; a single
// worker owns the message state and talks to Telegram.
type chatView struct {
	ctx    context.Context
	chatID int64
	sender messenger
	log    *slog.Logger
	ops    chan func()
	done   chan struct{}

	statsVersion atomic.Uint64

	// Owned by the worker.
	articles  []domain.Article
	slots     []int
	statsID   int
	loadingID int
}

var _ dashboard.Observer = (*chatView)(nil)

func newChatView(ctx context.Context, chatID int64, sender messenger, log *slog.Logger) *chatView {
	v := &chatView{
		ctx:    ctx,
		chatID: chatID,
		sender: sender,
		log:    log,
		ops:    make(chan func(), chatViewQueueSize),
		done:   make(chan struct{}),
	}

	go v.run()

	return v
}

func (v *chatView) run() {
	defer close(v.done)

	for {
		select {
		case op := <-v.ops:
			op()
		case <-v.ctx.Done():
			return
		}
	}
}

func (v *chatView) wait() {
	<-v.done
}

func (v *chatView) enqueue(name string, op func()) {
	select {
	case v.ops <- op:
	default:
		v.log.WarnContext(v.ctx, "Chat view queue is full so update is dropped",
			"chatID", v.chatID,
			"operation", name)
	}
}

func (v *chatView) SetLoading(loading bool) {
	v.enqueue("setLoading", func() {
		if loading {
			v.articles = nil
			v.slots = nil
			v.statsID = 0

			message, err := v.send(loadingText, nil)
			if err != nil {
				v.logSendError(err, "setLoading")
				return
			}
			v.loadingID = message.MessageID

			return
		}

		if v.loadingID == 0 {
			return
		}

		if _, err := v.sender.Request(tgbotapi.NewDeleteMessage(v.chatID, v.loadingID)); err != nil {
			v.logSendError(err, "deleteLoading")
		}
		v.loadingID = 0
	})
}

func (v *chatView) RenderArticles(batch domain.HeadlineBatch) {
	v.enqueue("renderArticles", func() {
		v.articles = batch.Articles
		v.slots = make([]int, len(batch.Articles))

		for i, article := range batch.Articles {
			message, err := v.send(articleText(i, article, ""), nil)
			if err != nil {
				v.logSendError(err, "renderArticles")
				continue
			}

			v.slots[i] = message.MessageID
		}
	})
}

func (v *chatView) UpdateSummary(index int, text string) {
	v.enqueue("updateSummary", func() {
		if index < 0 || index >= len(v.slots) || v.slots[index] == 0 {
			return
		}

		if err := v.edit(v.slots[index], articleText(index, v.articles[index], text)); err != nil {
			v.logSendError(err, "updateSummary")
		}
	})
}

func (v *chatView) SetStats(total int, summarized int) {
	version := v.statsVersion.Add(1)

	v.enqueue("setStats", func() {
		text := statsText(total, summarized)

		if v.statsID == 0 {
			message, err := v.send(text, nil)
			if err != nil {
				v.logSendError(err, "setStats")
				return
			}
			v.statsID = message.MessageID

			return
		}

		// A newer count is already queued.
		if v.statsVersion.Load() != version {
			return
		}

		if err := v.edit(v.statsID, text); err != nil {
			v.logSendError(err, "setStats")
		}
	})
}

func (v *chatView) ShowError(message string) {
	v.enqueue("showError", func() {
		text := "❌ " + markdown.EscapeV2(message)
		if _, err := v.send(text, getCategoriesKeyboard(categoryCallbackPrefix)); err != nil {
			v.logSendError(err, "showError")
		}
	})
}

func (v *chatView) send(text string, keyboard [][]tgbotapi.InlineKeyboardButton) (tgbotapi.Message, error) {
	message := tgbotapi.NewMessage(v.chatID, strings.ToValidUTF8(text, "?"))
	message.ParseMode = tgbotapi.ModeMarkdownV2
	message.DisableWebPagePreview = true
	if keyboard != nil {
		message.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	}

	return v.sender.Send(message)
}

func (v *chatView) edit(messageID int, text string) error {
	edit := tgbotapi.NewEditMessageText(v.chatID, messageID, strings.ToValidUTF8(text, "?"))
	edit.ParseMode = tgbotapi.ModeMarkdownV2
	edit.DisableWebPagePreview = true

	_, err := v.sender.Send(edit)
	return err
}

func (v *chatView) logSendError(err error, operation string) {
	v.log.ErrorContext(v.ctx, "Failed to update chat view",
		"error", err,
		"chatID", v.chatID,
		"operation", operation)
}

func articleText(index int, article domain.Article, summary string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*%d\\. %s*\n", index+1, markdown.EscapeV2(strings.TrimSpace(article.Title)))

	var meta []string
	if source := strings.TrimSpace(article.SourceName); source != "" {
		meta = append(meta, source)
	}
	if !article.PublishedAt.IsZero() {
		meta = append(meta, article.PublishedAt.UTC().Format(publishedAtLayout))
	}
	if len(meta) > 0 {
		fmt.Fprintf(&b, "_%s_\n", markdown.EscapeV2(strings.Join(meta, " · ")))
	}

	b.WriteString("\n")
	if summary == "" {
		b.WriteString(pendingSummaryText)
	} else {
		b.WriteString(markdown.EscapeV2(markdown.Truncate(summary, maxSummaryRunes)))
	}

	fmt.Fprintf(&b, "\n\n[Read more](%s)", markdown.EscapeLinkURL(strings.TrimSpace(article.URL)))

	return b.String()
}

func statsText(total int, summarized int) string {
	return fmt.Sprintf("📊 *%d* articles, *%d* AI summaries", total, summarized)
}

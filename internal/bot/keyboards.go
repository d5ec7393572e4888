package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"newsdash/internal/domain"
)

const (
	categoriesKeyboardRowSize = 2
	categoryCallbackPrefix    = "category_"
	subscribeCallbackPrefix   = "subscribe_"
)

//nolint:gochecknoglobals // Immutable button labels.
var categoryLabels = map[string]string{
	"business":      "💼 Business",
	"entertainment": "🎬 Entertainment",
	"general":       "📰 General",
	"health":        "🏥 Health",
	"science":       "🔬 Science",
	"sports":        "⚽ Sports",
	"technology":    "💻 Technology",
}

func (b *Bot) sendMessageWithKeyboard(
	chatID int64,
	text string,
	keyboard [][]tgbotapi.InlineKeyboardButton,
) error {
	normalizedText := strings.ToValidUTF8(text, "?")
	if normalizedText != text {
		b.log.Warn("Message text had invalid UTF-8 and was normalized",
			"chatID", chatID,
			"originalLen", len(text),
			"normalizedLen", len(normalizedText))
	}

	message := tgbotapi.NewMessage(chatID, normalizedText)

	// See https://core.telegram.org/bots/api#markdownv2-style.
	message.ParseMode = tgbotapi.ModeMarkdownV2

	message.DisableWebPagePreview = true
	message.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)

	_, err := b.messenger.Send(message)
	return err
}

func getReturnKeyboard() [][]tgbotapi.InlineKeyboardButton {
	return [][]tgbotapi.InlineKeyboardButton{
		{tgbotapi.NewInlineKeyboardButtonData("⬅️ Return to menu", "menu")},
	}
}

func getMenuKeyboard() [][]tgbotapi.InlineKeyboardButton {
	return [][]tgbotapi.InlineKeyboardButton{
		{
			tgbotapi.NewInlineKeyboardButtonData("📰 Headlines", "menu_news"),
			tgbotapi.NewInlineKeyboardButtonData("🗂 Categories", "menu_categories"),
		},
		{
			tgbotapi.NewInlineKeyboardButtonData("🔔 Daily digest", "menu_subscription"),
		},
	}
}

// getCategoriesKeyboard lists every category; each button sends prefix
// followed by the category name.
func getCategoriesKeyboard(prefix string) [][]tgbotapi.InlineKeyboardButton {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton

	for _, category := range domain.Categories() {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(categoryLabel(category), prefix+category))

		if len(row) == categoriesKeyboardRowSize {
			keyboard = append(keyboard, row)
			row = nil
		}
	}

	if len(row) > 0 {
		keyboard = append(keyboard, row)
	}

	return keyboard
}

func getSubscriptionKeyboard(subscribed bool) [][]tgbotapi.InlineKeyboardButton {
	keyboard := getCategoriesKeyboard(subscribeCallbackPrefix)

	if subscribed {
		keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("🔕 Unsubscribe", "unsubscribe"),
		})
	}

	return append(keyboard, getReturnKeyboard()...)
}

func categoryLabel(category string) string {
	if label, ok := categoryLabels[category]; ok {
		return label
	}

	return category
}

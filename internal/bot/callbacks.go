package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	chatID := callbackChatID(callback)
	if chatID == 0 {
		return errors.New("callback query has no chat")
	}

	data := strings.TrimSpace(callback.Data)

	switch data {
	case "menu":
		return b.withEmptyCallbackAnswer(callback, func() error {
			return b.handleMenuCommand(chatID)
		})
	case "menu_news":
		return b.withEmptyCallbackAnswer(callback, func() error {
			return b.handleNewsCommand(ctx, chatID, "")
		})
	case "menu_categories":
		return b.withEmptyCallbackAnswer(callback, func() error {
			return b.handleCategoriesCommand(chatID)
		})
	case "menu_subscription":
		return b.withEmptyCallbackAnswer(callback, func() error {
			return b.handleSubscriptionCommand(ctx, chatID)
		})
	case "unsubscribe":
		return b.withEmptyCallbackAnswer(callback, func() error {
			return b.handleUnsubscribeCommand(ctx, chatID)
		})
	}

	if category, ok := strings.CutPrefix(data, categoryCallbackPrefix); ok {
		return b.withEmptyCallbackAnswer(callback, func() error {
			return b.handleNewsCommand(ctx, chatID, category)
		})
	}

	if category, ok := strings.CutPrefix(data, subscribeCallbackPrefix); ok {
		return b.withEmptyCallbackAnswer(callback, func() error {
			return b.handleSubscribeCommand(ctx, chatID, category)
		})
	}

	return b.errorCallbackAnswer(callback, fmt.Errorf("unknown callback data %q", data))
}

func (b *Bot) withEmptyCallbackAnswer(
	callback *tgbotapi.CallbackQuery,
	fn func() error,
) error {
	var errs []error

	if _, err := b.messenger.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		errs = append(errs, b.errorCallbackAnswer(callback, fmt.Errorf("send request: %w", err)))
	}

	err := fn()
	if err != nil {
		errs = append(errs, fmt.Errorf("call fn: %w", err))
	}

	return errors.Join(errs...)
}

func (b *Bot) errorCallbackAnswer(
	callback *tgbotapi.CallbackQuery,
	err error,
) error {
	if _, sendErr := b.messenger.Request(tgbotapi.NewCallback(callback.ID, "❌ Failed.")); sendErr != nil {
		return errors.Join(err, fmt.Errorf("send request: %w", sendErr))
	}
	return err
}

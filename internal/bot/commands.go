package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"newsdash/internal/dashboard"
	"newsdash/internal/domain"
	"newsdash/internal/markdown"
)

const welcomeText = `📰 *Welcome to Newsdash\!*

I bring you today's top headlines with short AI summaries\.

– Get headlines with /news or /news _category_
– Pick a category with /categories
– Receive a daily digest with /subscribe _category_
– Stop the digest with /unsubscribe`

const subscriptionText = `*🔔 Daily digest*

%s

Choose a category below:`

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	b.sendTyping(ctx, chatID)

	command, arg := parseCommand(message.Text)

	switch command {
	case "/start":
		return b.sendMessageWithKeyboard(chatID, welcomeText, b.menuKeyboard)
	case "/menu":
		return b.handleMenuCommand(chatID)
	case "/news":
		return b.handleNewsCommand(ctx, chatID, arg)
	case "/categories":
		return b.handleCategoriesCommand(chatID)
	case "/subscribe":
		if arg == "" {
			return b.handleSubscriptionCommand(ctx, chatID)
		}
		return b.handleSubscribeCommand(ctx, chatID, arg)
	case "/unsubscribe":
		return b.handleUnsubscribeCommand(ctx, chatID)
	case "":
		if category := domain.NormalizeCategory(arg); arg != "" && domain.IsCategory(category) {
			return b.handleNewsCommand(ctx, chatID, category)
		}
	}

	return b.sendMessageWithKeyboard(chatID, "✖️ Unknown command\\. Try /menu\\.", b.menuKeyboard)
}

func (b *Bot) handleMenuCommand(chatID int64) error {
	return b.sendMessageWithKeyboard(chatID, "❔ *Choose an option:*", b.menuKeyboard)
}

func (b *Bot) handleCategoriesCommand(chatID int64) error {
	keyboard := append(getCategoriesKeyboard(categoryCallbackPrefix), getReturnKeyboard()...)

	return b.sendMessageWithKeyboard(chatID, "🗂 *Choose a category:*", keyboard)
}

// handleNewsCommand starts a refresh of the chat dashboard in the
// background. An empty category means the subscribed one or the default.
func (b *Bot) handleNewsCommand(ctx context.Context, chatID int64, category string) error {
	category, err := b.resolveCategory(ctx, chatID, category)
	if err != nil {
		return b.sendUnknownCategory(chatID, category, err)
	}

	b.wg.Go(func() {
		refreshCtx, cancel := context.WithTimeout(b.ctx, refreshTimeout)
		defer cancel()

		if _, refreshErr := b.sessions.Get(chatID).Refresh(refreshCtx, category); refreshErr != nil &&
			!errors.Is(refreshErr, dashboard.ErrSuperseded) {
			b.log.WarnContext(refreshCtx, "Chat dashboard refresh failed",
				"error", refreshErr,
				"chatID", chatID,
				"category", category)
		}
	})

	return nil
}

func (b *Bot) handleSubscriptionCommand(ctx context.Context, chatID int64) error {
	subscription, err := b.db.GetSubscription(ctx, chatID)
	if err != nil {
		errs := []error{fmt.Errorf("get subscription: %w", err)}

		if sendErr := b.sendMessageWithKeyboard(chatID, "❌ Failed\\.", b.returnKeyboard); sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	status := "You are not subscribed\\."
	if subscription != nil {
		status = fmt.Sprintf("You receive a daily digest of *%s*\\.",
			markdown.EscapeV2(categoryLabel(subscription.Category)))
	}

	return b.sendMessageWithKeyboard(
		chatID,
		fmt.Sprintf(subscriptionText, status),
		getSubscriptionKeyboard(subscription != nil),
	)
}

func (b *Bot) handleSubscribeCommand(ctx context.Context, chatID int64, category string) error {
	category = domain.NormalizeCategory(category)
	if !domain.IsCategory(category) {
		return b.sendUnknownCategory(chatID, category, nil)
	}

	if err := b.db.Subscribe(ctx, chatID, category); err != nil {
		errs := []error{fmt.Errorf("subscribe: %w", err)}

		if sendErr := b.sendMessageWithKeyboard(chatID, "❌ Failed\\.", b.returnKeyboard); sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	return b.sendMessageWithKeyboard(
		chatID,
		fmt.Sprintf("✅ Subscribed to *%s*\\.", markdown.EscapeV2(categoryLabel(category))),
		b.returnKeyboard,
	)
}

func (b *Bot) handleUnsubscribeCommand(ctx context.Context, chatID int64) error {
	removed, err := b.db.Unsubscribe(ctx, chatID)
	if err != nil {
		errs := []error{fmt.Errorf("unsubscribe: %w", err)}

		if sendErr := b.sendMessageWithKeyboard(chatID, "❌ Failed\\.", b.returnKeyboard); sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	if !removed {
		return b.sendMessageWithKeyboard(chatID, "✖️ You are not subscribed\\.", b.returnKeyboard)
	}

	return b.sendMessageWithKeyboard(chatID, "✅ Unsubscribed\\.", b.returnKeyboard)
}

// SendDigest refreshes the chat dashboard for category and waits until it
// is rendered.
func (b *Bot) SendDigest(ctx context.Context, chatID int64, category string) error {
	if err := b.sendMessageWithKeyboard(
		chatID,
		fmt.Sprintf("🗞 *Daily digest: %s*", markdown.EscapeV2(categoryLabel(category))),
		b.menuKeyboard,
	); err != nil {
		return fmt.Errorf("send message with keyboard: %w", err)
	}

	if _, err := b.sessions.Get(chatID).Refresh(ctx, category); err != nil {
		return fmt.Errorf("refresh dashboard: %w", err)
	}

	return nil
}

func (b *Bot) resolveCategory(ctx context.Context, chatID int64, category string) (string, error) {
	if strings.TrimSpace(category) != "" {
		category = domain.NormalizeCategory(category)
		if !domain.IsCategory(category) {
			return category, fmt.Errorf("unknown category %q", category)
		}

		return category, nil
	}

	subscription, err := b.db.GetSubscription(ctx, chatID)
	if err != nil {
		b.log.WarnContext(ctx, "Failed to get subscription so default category will be used",
			"error", err,
			"chatID", chatID)
	}
	if subscription != nil && domain.IsCategory(subscription.Category) {
		return subscription.Category, nil
	}

	return b.defaultCategory, nil
}

func (b *Bot) sendUnknownCategory(chatID int64, category string, cause error) error {
	keyboard := append(getCategoriesKeyboard(categoryCallbackPrefix), getReturnKeyboard()...)

	sendErr := b.sendMessageWithKeyboard(
		chatID,
		fmt.Sprintf("✖️ Unknown category *%s*\\. Choose one below:", markdown.EscapeV2(category)),
		keyboard,
	)
	if sendErr != nil {
		return errors.Join(cause, fmt.Errorf("send message with keyboard: %w", sendErr))
	}

	return nil
}

func (b *Bot) sendTyping(ctx context.Context, chatID int64) {
	config := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	if _, err := b.messenger.Request(config); err != nil {
		b.log.ErrorContext(ctx, "Failed to send chat action",
			"error", err)
	}
}

// parseCommand splits "/news@bot sports" into "/news" and "sports". Text
// that is not a command comes back as the argument with an empty command.
func parseCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", text
	}

	command, arg, _ := strings.Cut(text, " ")
	command, _, _ = strings.Cut(command, "@")

	return strings.ToLower(command), strings.TrimSpace(arg)
}

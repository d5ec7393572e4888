package bot

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"newsdash/internal/dashboard"
	"newsdash/internal/domain"
	"newsdash/internal/ratelimiter"
)

const (
	maxBackoffSeconds         = 60
	initialBackoffSeconds     = 3
	backoffGrowthFactor       = 2
	resetOffsetBackoffSeconds = 30
	updateProcessingTimeout   = 60 * time.Second
	refreshTimeout            = 3 * time.Minute

	BotUpdateTimeout = 60
)

// Store keeps per-chat digest subscriptions.
type Store interface {
	Subscribe(ctx context.Context, chatID int64, category string) error
	Unsubscribe(ctx context.Context, chatID int64) (bool, error)
	GetSubscription(ctx context.Context, chatID int64) (*domain.Subscription, error)
}

// ControllerFactory builds the dashboard controller of one chat around the
// chat's observer.
type ControllerFactory func(observer dashboard.Observer) *dashboard.Controller

type messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Bot struct {
	api             *tgbotapi.BotAPI
	rateLimiter     *ratelimiter.RateLimiter
	messenger       messenger
	db              Store
	sessions        *dashboard.Sessions
	defaultCategory string
	allowedUsers    []int64
	returnKeyboard  [][]tgbotapi.InlineKeyboardButton
	menuKeyboard    [][]tgbotapi.InlineKeyboardButton
	log             *slog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	viewsMu sync.Mutex
	views   []*chatView
}

func New(
	ctx context.Context,
	token string,
	db Store,
	newController ControllerFactory,
	defaultCategory string,
	allowedUsers []int64,
	log *slog.Logger,
) (*Bot, error) {
	token = strings.TrimSpace(token)

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	rateLimiter := ratelimiter.New(ctx, api, log)

	b := newBot(ctx, cancel, rateLimiter, db, newController, defaultCategory, allowedUsers, log)
	b.api = api
	b.rateLimiter = rateLimiter

	return b, nil
}

func newBot(
	ctx context.Context,
	cancel context.CancelFunc,
	m messenger,
	db Store,
	newController ControllerFactory,
	defaultCategory string,
	allowedUsers []int64,
	log *slog.Logger,
) *Bot {
	b := &Bot{
		messenger:       m,
		db:              db,
		defaultCategory: domain.NormalizeCategory(defaultCategory),
		allowedUsers:    allowedUsers,
		returnKeyboard:  getReturnKeyboard(),
		menuKeyboard:    getMenuKeyboard(),
		log:             log,
		ctx:             ctx,
		cancel:          cancel,
	}

	b.sessions = dashboard.NewSessions(func(chatID int64) *dashboard.Controller {
		view := newChatView(ctx, chatID, m, log)

		b.viewsMu.Lock()
		b.views = append(b.views, view)
		b.viewsMu.Unlock()

		return newController(dashboard.Observers{
			view,
			dashboard.NewLogObserver(log, strconv.FormatInt(chatID, 10)),
		})
	})

	return b
}

func (b *Bot) Start(ctx context.Context) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = BotUpdateTimeout

	backoffSeconds := initialBackoffSeconds

	for {
		select {
		case <-ctx.Done():
			b.log.InfoContext(ctx, "Bot context is done",
				"error", ctx.Err())
			return
		default:
		}

		updates := b.api.GetUpdatesChan(updateConfig)
		updatesClosed := false

		for !updatesClosed {
			select {
			case <-ctx.Done():
				b.log.InfoContext(ctx, "Bot context is done",
					"error", ctx.Err())
				b.api.StopReceivingUpdates()
				return

			case update, ok := <-updates:
				if !ok {
					updatesClosed = true
					continue
				}
				updateConfig.Offset = update.UpdateID + 1

				b.handleUpdate(ctx, &update)
			}
		}

		if ctx.Err() != nil {
			return
		}

		b.log.WarnContext(ctx, "Update channel is closed, reconnecting...",
			"offset", updateConfig.Offset,
			"backoffSeconds", backoffSeconds)

		time.Sleep(time.Duration(backoffSeconds) * time.Second)

		backoffSeconds = updateBackoffSeconds(backoffSeconds)

		if backoffSeconds >= resetOffsetBackoffSeconds {
			updateConfig.Offset = 0
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	updateCtx, cancel := context.WithTimeout(ctx, updateProcessingTimeout)
	defer cancel()

	switch {
	case update.Message != nil:
		chatID, chatType := chatContext(update.Message.Chat)

		if update.Message.From == nil {
			return
		}

		userID := update.Message.From.ID
		if !b.userAllowed(userID) {
			b.log.DebugContext(updateCtx, "User is not allowed",
				"userID", userID,
				"chatID", chatID,
				"username", update.Message.From.UserName,
				"chatType", chatType)

			return
		}

		if err := b.handleMessage(updateCtx, update.Message); err != nil {
			b.log.ErrorContext(updateCtx, "Failed to handle message",
				"error", err,
				"chatID", chatID,
				"userID", userID,
				"chatType", chatType,
				"messageID", update.Message.MessageID)
		}

	case update.CallbackQuery != nil:
		chatID := callbackChatID(update.CallbackQuery)

		if !b.userAllowed(update.CallbackQuery.From.ID) {
			b.log.DebugContext(updateCtx, "User is not allowed",
				"userID", update.CallbackQuery.From.ID,
				"chatID", chatID,
				"username", update.CallbackQuery.From.UserName,
				"data", update.CallbackQuery.Data)

			return
		}

		if err := b.handleCallbackQuery(updateCtx, update.CallbackQuery); err != nil {
			b.log.ErrorContext(updateCtx, "Failed to handle callback query",
				"error", err,
				"chatID", chatID,
				"userID", update.CallbackQuery.From.ID,
				"data", update.CallbackQuery.Data,
				"messageID", callbackMessageID(update.CallbackQuery))
		}
	}
}

func (b *Bot) userAllowed(userID int64) bool {
	return len(b.allowedUsers) == 0 || slices.Contains(b.allowedUsers, userID)
}

// Stop cancels running refreshes, waits for them and stops the send queue.
func (b *Bot) Stop() {
	b.cancel()
	b.wg.Wait()

	b.viewsMu.Lock()
	views := slices.Clone(b.views)
	b.viewsMu.Unlock()

	for _, view := range views {
		view.wait()
	}

	if b.rateLimiter != nil {
		b.rateLimiter.Stop()
	}
}

func chatContext(chat *tgbotapi.Chat) (int64, string) {
	if chat == nil {
		return 0, ""
	}

	return chat.ID, chat.Type
}

func callbackChatID(cb *tgbotapi.CallbackQuery) int64 {
	if cb != nil && cb.Message != nil && cb.Message.Chat != nil {
		return cb.Message.Chat.ID
	}

	return 0
}

func callbackMessageID(cb *tgbotapi.CallbackQuery) int {
	if cb != nil && cb.Message != nil {
		return cb.Message.MessageID
	}

	return 0
}

func updateBackoffSeconds(backoffSeconds int) int {
	if backoffSeconds < maxBackoffSeconds {
		backoffSeconds *= backoffGrowthFactor
		if backoffSeconds > maxBackoffSeconds {
			backoffSeconds = maxBackoffSeconds
		}
	}
	return backoffSeconds
}

package ratelimiter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

const (
	privateChatInterval = time.Second
	groupChatInterval   = 3 * time.Second
	// Bot-wide cap across all chats.
	globalMessagesPerSecond = 30
	queueSize               = 1000
)

// Sender is the part of the bot API the limiter throttles.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type job struct {
	message tgbotapi.Chattable
	result  chan result
}

type result struct {
	message tgbotapi.Message
	err     error
}

// RateLimiter delivers chat messages from one queue, holding each chat to
// its own token bucket and the bot to a global one. Messages to one chat
// keep their queue order.
type RateLimiter struct {
	api    Sender
	jobs   chan job
	global *rate.Limiter
	// Owned by the worker.
	chats map[int64]*rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	log    *slog.Logger
}

func New(ctx context.Context, api Sender, log *slog.Logger) *RateLimiter {
	ctx, cancel := context.WithCancel(ctx)

	rl := &RateLimiter{
		api:    api,
		jobs:   make(chan job, queueSize),
		global: rate.NewLimiter(rate.Limit(globalMessagesPerSecond), globalMessagesPerSecond),
		chats:  make(map[int64]*rate.Limiter),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		log:    log,
	}

	go rl.run()

	return rl
}

// Send queues message and waits until it is delivered or the limiter stops.
func (rl *RateLimiter) Send(message tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := rl.ctx.Err(); err != nil {
		return tgbotapi.Message{}, err
	}

	j := job{message: message, result: make(chan result, 1)}

	select {
	case rl.jobs <- j:
	case <-rl.ctx.Done():
		return tgbotapi.Message{}, rl.ctx.Err()
	}

	select {
	case res := <-j.result:
		return res.message, res.err
	case <-rl.done:
		return tgbotapi.Message{}, rl.ctx.Err()
	}
}

// Request skips throttling. Deletes and callback answers go through here.
func (rl *RateLimiter) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return rl.api.Request(c)
}

// Stop fails queued messages with context.Canceled and waits for the worker.
func (rl *RateLimiter) Stop() {
	rl.cancel()
	<-rl.done
}

func (rl *RateLimiter) run() {
	defer close(rl.done)

	for {
		select {
		case j := <-rl.jobs:
			j.result <- rl.deliver(j.message)
		case <-rl.ctx.Done():
			rl.drain()
			return
		}
	}
}

func (rl *RateLimiter) drain() {
	for {
		select {
		case j := <-rl.jobs:
			j.result <- result{err: rl.ctx.Err()}
		default:
			return
		}
	}
}

func (rl *RateLimiter) deliver(message tgbotapi.Chattable) result {
	chatID := chatIDOf(message)
	limiter := rl.chatLimiter(chatID)

	if limiter.Tokens() < 1 {
		rl.log.DebugContext(rl.ctx, "Throttling chat message",
			"chatID", chatID,
			"chattableType", fmt.Sprintf("%T", message),
			"queueLen", len(rl.jobs))
	}

	if err := limiter.Wait(rl.ctx); err != nil {
		return result{err: err}
	}
	if err := rl.global.Wait(rl.ctx); err != nil {
		return result{err: err}
	}

	sent, err := rl.api.Send(message)

	return result{message: sent, err: err}
}

func (rl *RateLimiter) chatLimiter(chatID int64) *rate.Limiter {
	limiter, ok := rl.chats[chatID]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(chatInterval(chatID)), 1)
		rl.chats[chatID] = limiter
	}

	return limiter
}

// chatIDOf returns 0 for chattables outside a chat; they share one bucket.
func chatIDOf(message tgbotapi.Chattable) int64 {
	switch m := message.(type) {
	case tgbotapi.MessageConfig:
		return m.ChatID
	case tgbotapi.EditMessageTextConfig:
		return m.ChatID
	case tgbotapi.EditMessageReplyMarkupConfig:
		return m.ChatID
	case tgbotapi.DeleteMessageConfig:
		return m.ChatID
	case tgbotapi.ChatActionConfig:
		return m.ChatID
	default:
		return 0
	}
}

// Group and channel ids are negative.
func chatInterval(chatID int64) time.Duration {
	if chatID < 0 {
		return groupChatInterval
	}
	return privateChatInterval
}

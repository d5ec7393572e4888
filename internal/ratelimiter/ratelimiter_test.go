package ratelimiter

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeSender struct {
	mu    sync.Mutex
	sent  []tgbotapi.Chattable
	times []time.Time
	err   error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	f.times = append(f.times, time.Now())

	return tgbotapi.Message{MessageID: len(f.sent)}, f.err
}

func (f *fakeSender) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) gap(i, j int) time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.times[j].Sub(f.times[i])
}

func newTestLimiter(t *testing.T, sender Sender) *RateLimiter {
	t.Helper()

	rl := New(context.Background(), sender, slog.New(slog.DiscardHandler))
	t.Cleanup(rl.Stop)

	return rl
}

func TestChatIDOf(t *testing.T) {
	tests := []struct {
		name    string
		message tgbotapi.Chattable
		want    int64
	}{
		{"Message", tgbotapi.NewMessage(12345, "test"), 12345},
		{"Edit text", tgbotapi.NewEditMessageText(-100, 7, "edited"), -100},
		{"Edit keyboard", tgbotapi.NewEditMessageReplyMarkup(55, 3, tgbotapi.NewInlineKeyboardMarkup()), 55},
		{"Delete", tgbotapi.NewDeleteMessage(77, 9), 77},
		{"Chat action", tgbotapi.NewChatAction(67890, tgbotapi.ChatTyping), 67890},
		{"Callback answer", tgbotapi.NewCallback("id", ""), 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := chatIDOf(test.message); got != test.want {
				t.Errorf("Expected chatID %d, got %d", test.want, got)
			}
		})
	}
}

func TestChatInterval(t *testing.T) {
	if got := chatInterval(1); got != privateChatInterval {
		t.Errorf("Expected private interval %v, got %v", privateChatInterval, got)
	}
	if got := chatInterval(-1); got != groupChatInterval {
		t.Errorf("Expected group interval %v, got %v", groupChatInterval, got)
	}
}

func TestSendSpacesMessagesPerChat(t *testing.T) {
	sender := &fakeSender{}
	rl := newTestLimiter(t, sender)

	for _, text := range []string{"first", "second"} {
		if _, err := rl.Send(tgbotapi.NewMessage(42, text)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if gap := sender.gap(0, 1); gap < privateChatInterval-50*time.Millisecond {
		t.Fatalf("expected messages to be spaced, gap %v", gap)
	}
}

func TestSendDoesNotDelayOtherChats(t *testing.T) {
	sender := &fakeSender{}
	rl := newTestLimiter(t, sender)

	for _, chatID := range []int64{1, 2, 3} {
		if _, err := rl.Send(tgbotapi.NewMessage(chatID, "hello")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if gap := sender.gap(0, 2); gap >= privateChatInterval/2 {
		t.Fatalf("expected distinct chats to be sent back to back, gap %v", gap)
	}
}

func TestSendReturnsSenderError(t *testing.T) {
	rl := newTestLimiter(t, &fakeSender{err: errors.New("telegram down")})

	if _, err := rl.Send(tgbotapi.NewMessage(1, "text")); err == nil {
		t.Fatalf("expected sender error")
	}
}

func TestStopFailsWaitingMessages(t *testing.T) {
	sender := &fakeSender{}
	rl := New(context.Background(), sender, slog.New(slog.DiscardHandler))

	if _, err := rl.Send(tgbotapi.NewMessage(-5, "first")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	errs := make(chan error, 1)
	go func() {
		_, err := rl.Send(tgbotapi.NewMessage(-5, "second"))
		errs <- err
	}()

	time.Sleep(100 * time.Millisecond)
	rl.Stop()

	if err := <-errs; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSendAfterStop(t *testing.T) {
	rl := New(context.Background(), &fakeSender{}, slog.New(slog.DiscardHandler))
	rl.Stop()

	if _, err := rl.Send(tgbotapi.NewMessage(1, "text")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

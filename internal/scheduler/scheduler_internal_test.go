package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"newsdash/internal/domain"
)

type fakeSubscriptions struct {
	subscriptions []domain.Subscription
	err           error
}

func (f fakeSubscriptions) GetSubscriptions(context.Context) ([]domain.Subscription, error) {
	return f.subscriptions, f.err
}

type fakeDigests struct {
	mu     sync.Mutex
	sent   map[int64]string
	failOn int64
}

func (f *fakeDigests) SendDigest(_ context.Context, chatID int64, category string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if chatID == f.failOn {
		return errors.New("chat is gone")
	}
	f.sent[chatID] = category

	return nil
}

type fakeDashboard struct {
	state     domain.DashboardState
	refreshed []string
}

func (f *fakeDashboard) Refresh(_ context.Context, category string) (domain.DashboardState, error) {
	f.refreshed = append(f.refreshed, category)
	return f.state, nil
}

func (f *fakeDashboard) Snapshot() domain.DashboardState {
	return f.state
}

func newTestScheduler(
	subscriptions SubscriptionSource,
	digests DigestSender,
	dashboard Refresher,
	opts Options,
) *Scheduler {
	return New(context.Background(), subscriptions, digests, dashboard, opts, slog.New(slog.DiscardHandler))
}

func TestSendDigestsContinuesAfterFailure(t *testing.T) {
	digests := &fakeDigests{sent: make(map[int64]string), failOn: 2}
	s := newTestScheduler(fakeSubscriptions{subscriptions: []domain.Subscription{
		{ChatID: 1, Category: "science"},
		{ChatID: 2, Category: "sports"},
		{ChatID: 3, Category: "health"},
	}}, digests, nil, Options{})

	s.sendDigests()

	if len(digests.sent) != 2 || digests.sent[1] != "science" || digests.sent[3] != "health" {
		t.Fatalf("unexpected digests: %v", digests.sent)
	}
}

func TestSendDigestsStopsOnStoreError(t *testing.T) {
	digests := &fakeDigests{sent: make(map[int64]string)}
	s := newTestScheduler(fakeSubscriptions{err: errors.New("db locked")}, digests, nil, Options{})

	s.sendDigests()

	if len(digests.sent) != 0 {
		t.Fatalf("unexpected digests: %v", digests.sent)
	}
}

func TestAutoRefreshKeepsCategory(t *testing.T) {
	tests := []struct {
		name     string
		state    domain.DashboardState
		fallback string
		want     string
	}{
		{"Loaded dashboard", domain.DashboardState{Category: "science"}, "general", "science"},
		{"Never loaded", domain.DashboardState{}, "Sports", "sports"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			d := &fakeDashboard{state: test.state}
			s := newTestScheduler(nil, nil, d, Options{DefaultCategory: test.fallback})

			s.autoRefresh()

			if len(d.refreshed) != 1 || d.refreshed[0] != test.want {
				t.Fatalf("unexpected refreshes: %v", d.refreshed)
			}
		})
	}
}

func TestStartRejectsInvalidSpec(t *testing.T) {
	s := newTestScheduler(nil, nil, &fakeDashboard{}, Options{AutoRefreshSpec: "not a spec"})

	if err := s.Start(); err == nil {
		t.Fatalf("expected error for invalid spec")
	}
}

func TestStartWithoutJobs(t *testing.T) {
	s := newTestScheduler(nil, nil, nil, Options{DigestSpec: "0 8 * * *"})

	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Stop()
}

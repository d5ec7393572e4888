package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"newsdash/internal/dashboard"
	"newsdash/internal/domain"
)

const (
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0
	digestTimeout         = 15 * time.Minute
	autoRefreshTimeout    = 5 * time.Minute
)

type SubscriptionSource interface {
	GetSubscriptions(ctx context.Context) ([]domain.Subscription, error)
}

type DigestSender interface {
	SendDigest(ctx context.Context, chatID int64, category string) error
}

type Refresher interface {
	Refresh(ctx context.Context, category string) (domain.DashboardState, error)
	Snapshot() domain.DashboardState
}

type Options struct {
	// DigestSpec is empty when there is no chat front end.
	DigestSpec      string
	AutoRefreshSpec string
	// DefaultCategory is refreshed while the dashboard was never loaded.
	DefaultCategory string
}

type Scheduler struct {
	ctx           context.Context
	cron          *cron.Cron
	subscriptions SubscriptionSource
	digests       DigestSender
	dashboard     Refresher
	opts          Options
	log           *slog.Logger
}

func New(
	ctx context.Context,
	subscriptions SubscriptionSource,
	digests DigestSender,
	dashboard Refresher,
	opts Options,
	log *slog.Logger,
) *Scheduler {
	c := cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)))

	return &Scheduler{
		ctx:           ctx,
		cron:          c,
		subscriptions: subscriptions,
		digests:       digests,
		dashboard:     dashboard,
		opts:          opts,
		log:           log,
	}
}

// Start registers the configured jobs. A job with an empty spec or a
// missing collaborator is skipped.
func (s *Scheduler) Start() error {
	var errs []error

	if spec := strings.TrimSpace(s.opts.DigestSpec); spec != "" && s.subscriptions != nil && s.digests != nil {
		if _, err := s.cron.AddFunc(spec, s.sendDigests); err != nil {
			errs = append(errs, fmt.Errorf("add digest job: %w", err))
		}
	}

	if spec := strings.TrimSpace(s.opts.AutoRefreshSpec); spec != "" && s.dashboard != nil {
		if _, err := s.cron.AddFunc(spec, s.autoRefresh); err != nil {
			errs = append(errs, fmt.Errorf("add auto refresh job: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	s.cron.Start()

	return nil
}

// Stop stops the cron and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendDigests() {
	ctx, cancel := context.WithTimeout(s.ctx, digestTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())
		return
	default:
	}

	subscriptions, err := s.subscriptions.GetSubscriptions(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get subscriptions",
			"error", err)
		return
	}

	sent := 0
	for _, subscription := range subscriptions {
		if ctx.Err() != nil {
			s.log.InfoContext(ctx, "Scheduler context is done",
				"error", ctx.Err(),
				"sent", sent,
				"subscriptions", len(subscriptions))
			return
		}

		if err = s.digests.SendDigest(ctx, subscription.ChatID, subscription.Category); err != nil {
			s.log.ErrorContext(ctx, "Failed to send digest",
				"error", err,
				"chatID", subscription.ChatID,
				"category", subscription.Category)

			continue
		}

		sent++
	}

	s.log.InfoContext(ctx, "Digests are sent",
		"sent", sent,
		"subscriptions", len(subscriptions))
}

func (s *Scheduler) autoRefresh() {
	ctx, cancel := context.WithTimeout(s.ctx, autoRefreshTimeout)
	defer cancel()

	category := s.dashboard.Snapshot().Category
	if category == "" {
		category = domain.NormalizeCategory(s.opts.DefaultCategory)
	}

	if _, err := s.dashboard.Refresh(ctx, category); err != nil && !errors.Is(err, dashboard.ErrSuperseded) {
		s.log.WarnContext(ctx, "Failed to auto refresh dashboard",
			"error", err,
			"category", category)
	}
}

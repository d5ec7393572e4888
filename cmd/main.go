package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"newsdash/internal/app"
	"newsdash/internal/bot"
	"newsdash/internal/config"
	"newsdash/internal/dashboard"
	"newsdash/internal/database"
	"newsdash/internal/httpapi"
	"newsdash/internal/logging"
	"newsdash/internal/scheduler"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	start := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, dotenvLoaded, err := config.Load()
	if err != nil {
		log.ErrorContext(ctx, "Failed to load config",
			"error", err,
			"dotenvLoaded", dotenvLoaded)

		return
	}

	log = logging.NewJSON(os.Stdout, cfg.LogLevel)
	slog.SetDefault(log)
	log.InfoContext(ctx, "Config is loaded",
		"dotenvLoaded", dotenvLoaded,
		"newsProvider", cfg.NewsProvider,
		"summarizerProvider", cfg.SummarizerProvider,
		"defaultCategory", cfg.DefaultCategory)

	pipeline, err := app.NewPipeline(ctx, cfg, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize pipeline",
			"error", err,
			"newsProvider", cfg.NewsProvider)

		return
	}

	web := pipeline.NewController(dashboard.NewLogObserver(log, "web"))

	gin.SetMode(gin.ReleaseMode)
	api := httpapi.New(ctx, web, cfg.DefaultCategory, log)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			log.ErrorContext(ctx, "HTTP server failed",
				"error", serveErr,
				"addr", cfg.HTTPAddr)
			cancel()
		}
	}()
	log.InfoContext(ctx, "HTTP server is started",
		"addr", cfg.HTTPAddr)

	db, botInst := initBot(ctx, cfg, pipeline, log)
	if db != nil {
		defer func() {
			if err = db.Close(); err != nil {
				log.ErrorContext(ctx, "Failed to close db",
					"error", err,
					"dbPath", cfg.DBPath)
			}
		}()
	}

	sched := newScheduler(ctx, cfg, db, botInst, web, log)
	if err = sched.Start(); err != nil {
		log.ErrorContext(ctx, "Failed to start scheduler",
			"error", err,
			"digestSpec", cfg.DigestSpec,
			"autoRefreshSpec", cfg.AutoRefreshSpec)

		return
	}
	defer sched.Stop()
	log.InfoContext(ctx, "Scheduler is started",
		"digestSpec", cfg.DigestSpec,
		"autoRefreshSpec", cfg.AutoRefreshSpec,
		"timezone", time.FixedZone(scheduler.Timezone, scheduler.TimezoneOffsetSeconds).String())

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-c:
		log.InfoContext(ctx, "Shutdown signal is received",
			"signal", sig.String())
	case <-ctx.Done():
	}
	cancel()

	log.InfoContext(ctx, "Exiting...",
		"uptimeSeconds", time.Since(start).Seconds())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err = server.Shutdown(shutdownCtx); err != nil {
		log.ErrorContext(shutdownCtx, "Failed to shut down HTTP server",
			"error", err)
	}
	api.Wait()
	log.InfoContext(shutdownCtx, "HTTP server is stopped",
		"uptimeSeconds", time.Since(start).Seconds())

	if botInst != nil {
		botInst.Stop()
		log.InfoContext(shutdownCtx, "Bot is stopped",
			"uptimeSeconds", time.Since(start).Seconds())
	}
}

// initBot starts the Telegram front end when TOKEN is set. Both results are
// nil when it is not.
func initBot(
	ctx context.Context,
	cfg config.Config,
	pipeline *app.Pipeline,
	log *slog.Logger,
) (*database.Database, *bot.Bot) {
	if cfg.Token == "" {
		log.InfoContext(ctx, "TOKEN is missing so Telegram bot is disabled",
			"envVar", "TOKEN")

		return nil, nil
	}

	db, err := database.New(ctx, cfg.DBPath, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize db so Telegram bot is disabled",
			"error", err,
			"dbPath", cfg.DBPath)

		return nil, nil
	}
	log.InfoContext(ctx, "DB is initialized",
		"dbPath", cfg.DBPath)

	botInst, err := bot.New(ctx, cfg.Token, db, pipeline.NewController, cfg.DefaultCategory, cfg.AllowedUsers, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize bot",
			"error", err,
			"allowedUsersCount", len(cfg.AllowedUsers))

		return db, nil
	}
	log.InfoContext(ctx, "Bot is initialized",
		"allowedUsersCount", len(cfg.AllowedUsers))

	go botInst.Start(ctx)
	log.InfoContext(ctx, "Bot is started",
		"updateTimeoutSeconds", bot.BotUpdateTimeout)

	return db, botInst
}

func newScheduler(
	ctx context.Context,
	cfg config.Config,
	db *database.Database,
	botInst *bot.Bot,
	web *dashboard.Controller,
	log *slog.Logger,
) *scheduler.Scheduler {
	var (
		subscriptions scheduler.SubscriptionSource
		digests       scheduler.DigestSender
	)

	if db != nil && botInst != nil {
		subscriptions = db
		digests = botInst
	}

	return scheduler.New(ctx, subscriptions, digests, web, scheduler.Options{
		DigestSpec:      cfg.DigestSpec,
		AutoRefreshSpec: cfg.AutoRefreshSpec,
		DefaultCategory: cfg.DefaultCategory,
	}, log)
}

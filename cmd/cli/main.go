package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"newsdash/internal/app"
	"newsdash/internal/config"
	"newsdash/internal/dashboard"
	"newsdash/internal/domain"
	"newsdash/internal/logging"
	"newsdash/internal/terminal"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, dotenvLoaded, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config (dotenv loaded: %v): %v\n", dotenvLoaded, err)
		return 1
	}

	log := logging.NewText(os.Stderr, cfg.LogLevel)

	category := cfg.DefaultCategory
	if len(os.Args) > 1 {
		category = domain.NormalizeCategory(os.Args[1])
	}
	if !domain.IsCategory(category) {
		_, _ = fmt.Fprintf(os.Stderr, "Unknown category %q, expected one of %v\n", category, domain.Categories())
		return 2
	}

	pipeline, err := app.NewPipeline(ctx, cfg, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize pipeline",
			"error", err,
			"newsProvider", cfg.NewsProvider)
		return 1
	}

	width := terminalWidth()
	controller := pipeline.NewController(terminal.NewObserver(os.Stderr, width))

	state, err := controller.Refresh(ctx, category)
	if errors.Is(err, dashboard.ErrSuperseded) {
		return 1
	}

	_, _ = fmt.Fprint(os.Stdout, terminal.Render(state, width))

	if err != nil {
		log.DebugContext(ctx, "Refresh failed",
			"error", err,
			"category", category)
		return 1
	}

	return 0
}

func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}

	width, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}

	return width
}

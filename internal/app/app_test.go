package app

import (
	"context"
	"log/slog"
	"testing"

	"newsdash/internal/config"
	"newsdash/internal/domain"
)

func TestNewPipelineWithoutCredentials(t *testing.T) {
	cfg := config.Config{
		NewsProvider:       config.NewsProviderNewsAPI,
		NewsCountry:        "us",
		NewsPageSize:       12,
		SummarizerProvider: config.SummarizerProviderAnthropic,
	}

	p, err := NewPipeline(context.Background(), cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state, err := p.NewController(nil).Refresh(context.Background(), "technology")
	if err == nil {
		t.Fatalf("expected credential error")
	}
	if state.Phase != domain.PhaseError {
		t.Fatalf("unexpected phase: %s", state.Phase)
	}
}

func TestNewCompleterSelectsProvider(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.Config
		envVar string
		ok     bool
	}{
		{"Anthropic configured", config.Config{SummarizerProvider: config.SummarizerProviderAnthropic, AnthropicAPIKey: "key"}, "ANTHROPIC_API_KEY", true},
		{"Anthropic placeholder", config.Config{SummarizerProvider: config.SummarizerProviderAnthropic, AnthropicAPIKey: "YOUR_API_KEY_HERE"}, "ANTHROPIC_API_KEY", false},
		{"OpenAI configured", config.Config{SummarizerProvider: config.SummarizerProviderOpenAI, OpenAIAPIKey: "key"}, "OPENAI_API_KEY", true},
		{"OpenAI missing", config.Config{SummarizerProvider: config.SummarizerProviderOpenAI}, "OPENAI_API_KEY", false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, envVar, err := newCompleter(test.cfg)
			if envVar != test.envVar {
				t.Fatalf("unexpected env var: %q", envVar)
			}
			if (err == nil) != test.ok {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

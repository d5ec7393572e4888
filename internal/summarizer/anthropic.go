package summarizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"newsdash/internal/config"
)

const (
	AnthropicDefaultModel  = anthropic.ModelClaudeSonnet4_20250514
	defaultMaxTokens       = 150
	anthropicClientTimeout = 30 * time.Second
)

type AnthropicOptions struct {
	// BaseURL is the API root without the /v1/messages path. Empty means
	// the public API.
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int64
	Temperature *float64
	HTTPClient  *http.Client
}

// AnthropicCompleter calls the Anthropic Messages API.
type AnthropicCompleter struct {
	client      anthropic.Client
	model       anthropic.Model
	maxTokens   int64
	temperature *float64
}

var _ Completer = (*AnthropicCompleter)(nil)

func NewAnthropicCompleter(opts AnthropicOptions) (*AnthropicCompleter, error) {
	if !config.IsConfigured(opts.APIKey) {
		return nil, errors.New("API key is missing or a placeholder")
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(opts.APIKey)),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(anthropicClientTimeout),
	}
	if baseURL := strings.TrimSpace(opts.BaseURL); baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	c := &AnthropicCompleter{
		client:      anthropic.NewClient(clientOpts...),
		model:       anthropic.Model(strings.TrimSpace(opts.Model)),
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
	}

	if c.model == "" {
		c.model = AnthropicDefaultModel
	}
	if c.maxTokens <= 0 {
		c.maxTokens = defaultMaxTokens
	}

	return c, nil
}

func (c *AnthropicCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt is empty")
	}

	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if c.temperature != nil {
		params.Temperature = anthropic.Float(*c.temperature)
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			if text := strings.TrimSpace(block.Text); text != "" {
				return text, nil
			}
		}
	}

	return "", fmt.Errorf("output text is missing (stopReason = %s)", message.StopReason)
}

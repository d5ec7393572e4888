package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"

	"newsdash/internal/config"
)

const (
	// Reasoning tokens count against the output limit, so smaller limits
	// leave no room for the summary itself.
	minOpenAIOutputTokens int64 = 512

	openAIInstructions = `You summarize news articles for a headline dashboard.

Rules:
- 2-3 sentences, factual and neutral.
- Use only the title and description you are given.
- No lists, no links, no preamble.`
)

// OpenAICompleter calls OpenAI's Responses API.
type OpenAICompleter struct {
	client          openai.Client
	maxOutputTokens int64
}

var _ Completer = (*OpenAICompleter)(nil)

func NewOpenAICompleter(
	apiKey string,
	baseURL string,
	maxOutputTokens int64,
) (*OpenAICompleter, error) {
	if !config.IsConfigured(apiKey) {
		return nil, errors.New("API key is missing or a placeholder")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(apiKey)),
		option.WithMaxRetries(0),
	}
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAICompleter{
		client:          openai.NewClient(opts...),
		maxOutputTokens: max(maxOutputTokens, minOpenAIOutputTokens),
	}, nil
}

func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt is empty")
	}

	resp, err := c.client.Responses.New(ctx, responses.ResponseNewParams{
		Model:           openai.ChatModelGPT5Mini2025_08_07,
		MaxOutputTokens: openai.Int(c.maxOutputTokens),
		Reasoning: responses.ReasoningParam{
			Effort: openai.ReasoningEffortLow,
		},
		Instructions: openai.String(openAIInstructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}

	if resp.Status == "incomplete" {
		return "", fmt.Errorf(
			"response is incomplete (reason = %s, maxOutputTokens = %d)",
			resp.IncompleteDetails.Reason,
			c.maxOutputTokens,
		)
	}

	summary := strings.TrimSpace(resp.OutputText())
	if summary == "" {
		return "", fmt.Errorf("output text is missing (status = %s)", resp.Status)
	}

	return summary, nil
}

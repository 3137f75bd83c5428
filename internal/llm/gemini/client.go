package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"teamsync-backend/internal/llm"
)

// DefaultModel is used when LLM_MODEL is empty.
const DefaultModel = "gemini-1.5-flash"

// Client implements llm.Client on Google Gemini through langchaingo.
type Client struct {
	model llms.Model
}

// NewClient builds a Gemini-backed client.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	g, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("googleai client: %w", err)
	}
	return &Client{model: g}, nil
}

// NewFromModel wraps any langchaingo model.
func NewFromModel(model llms.Model) *Client {
	return &Client{model: model}
}

// Complete runs a single-prompt generation.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", llm.ErrEmptyResponse
	}
	return out, nil
}

var _ llm.Client = (*Client)(nil)

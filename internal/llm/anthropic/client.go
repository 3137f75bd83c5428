package anthropic

import (
	"context"
	"fmt"
	"strings"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"teamsync-backend/internal/llm"
)

const (
	// DefaultModel is used when LLM_MODEL is empty.
	DefaultModel = "claude-3-5-haiku-latest"

	maxTokens = 1024
)

// Client implements llm.Client using the Anthropic Messages API.
type Client struct {
	client anthropicclient.Client
	model  string
}

// NewClient constructs an Anthropic client.
func NewClient(apiKey, model, baseURL string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(baseURL); base != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(base, "/")+"/"))
	}
	return &Client{
		client: anthropicclient.NewClient(opts...),
		model:  model,
	}, nil
}

// Complete sends prompt as a single user turn and joins the text blocks of the reply.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropicclient.MessageNewParams{
		Model:     anthropicclient.Model(c.model),
		MaxTokens: maxTokens,
		Messages: []anthropicclient.MessageParam{
			anthropicclient.NewUserMessage(anthropicclient.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type != "text" {
			continue
		}
		b.WriteString(block.Text)
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", llm.ErrEmptyResponse
	}
	return out, nil
}

var _ llm.Client = (*Client)(nil)

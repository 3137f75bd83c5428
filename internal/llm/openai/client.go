package openai

import (
	"context"
	"fmt"
	"strings"

	openaiclient "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"teamsync-backend/internal/llm"
)

// DefaultModel is used when LLM_MODEL is empty.
const DefaultModel = "gpt-4o-mini"

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	client openaiclient.Client
	model  string
}

// NewClient constructs an OpenAI client. baseURL may point at any
// OpenAI-compatible endpoint.
func NewClient(apiKey, model, baseURL string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
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
		client: openaiclient.NewClient(opts...),
		model:  model,
	}, nil
}

// Complete sends prompt as a single user message.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openaiclient.ChatCompletionNewParams{
		Model: openaiclient.ChatModel(c.model),
		Messages: []openaiclient.ChatCompletionMessageParamUnion{
			openaiclient.UserMessage(prompt),
		},
		Temperature: openaiclient.Float(0.2),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", llm.ErrEmptyResponse
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", llm.ErrEmptyResponse
	}
	return content, nil
}

var _ llm.Client = (*Client)(nil)

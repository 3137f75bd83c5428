package provider

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"teamsync-backend/internal/llm"
	"teamsync-backend/internal/llm/anthropic"
	"teamsync-backend/internal/llm/gemini"
	"teamsync-backend/internal/llm/openai"
	"teamsync-backend/internal/shared/config"
	"teamsync-backend/internal/shared/telemetry"
)

const (
	OpenAI    = "openai"
	Anthropic = "anthropic"
	Gemini    = "gemini"
	None      = "none"
)

// New builds the configured provider once and wraps it with timeout,
// retry, rate limiting and metrics.
func New(ctx context.Context, cfg config.Config) (llm.Client, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	base, err := newBase(ctx, name, cfg)
	if err != nil {
		return nil, err
	}
	if _, disabled := base.(llm.Disabled); disabled {
		telemetry.Warn("llm.disabled", map[string]any{"provider": name})
		return base, nil
	}

	client := llm.Instrumented(base, name)
	client = llm.WithTimeout(client, cfg.LLMTimeout)
	client = llm.WithRetry(client, 1, llm.DefaultRetryDelay)
	client = llm.RateLimited(client, newLimiter(cfg.LLMRatePerSec, cfg.LLMBurst))

	telemetry.Info("llm.ready", map[string]any{
		"provider": name,
		"model":    cfg.LLMModel,
	})
	return client, nil
}

func newBase(ctx context.Context, name string, cfg config.Config) (llm.Client, error) {
	switch name {
	case OpenAI:
		return openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.LLMBaseURL)
	case Anthropic:
		return anthropic.NewClient(cfg.AnthropicAPIKey, cfg.LLMModel, cfg.LLMBaseURL)
	case Gemini:
		if strings.TrimSpace(cfg.GoogleAPIKey) == "" && !cfg.IsProduction() {
			return llm.Disabled{}, nil
		}
		return gemini.NewClient(ctx, cfg.GoogleAPIKey, cfg.LLMModel)
	case None, "":
		return llm.Disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", name)
	}
}

func newLimiter(perSec float64, burst int) *rate.Limiter {
	if perSec <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSec), burst)
}

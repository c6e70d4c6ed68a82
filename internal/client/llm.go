package client

import (
	"context"
	"fmt"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"
	"golang.org/x/time/rate"

	"github.com/echobrief/api/internal/config"
	"github.com/echobrief/api/internal/model"
)

// LLMClient generates summaries through an OpenAI-compatible chat API
// (Groq in the default configuration). Call spacing is enforced by the
// injected limiter rather than any process-wide state, so instances are
// independently testable.
type LLMClient struct {
	client  oai.Client
	model   string
	limiter *rate.Limiter
	apiKey  string
}

// NewLLMClient creates a new summarization client. The limiter spaces out
// chat completions; pass rate.NewLimiter(rate.Every(cfg.MinInterval), 1).
func NewLLMClient(cfg *config.LLMConfig, limiter *rate.Limiter) *LLMClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &LLMClient{
		client:  oai.NewClient(opts...),
		model:   cfg.Model,
		limiter: limiter,
		apiKey:  cfg.APIKey,
	}
}

// IsConfigured reports whether an API key is present.
func (c *LLMClient) IsConfigured() bool {
	return c.apiKey != ""
}

// Summarize produces one summary in the requested variant's style. Blocks on
// the limiter first; a cancelled context aborts the wait.
func (c *LLMClient) Summarize(ctx context.Context, variant model.SummaryVariant, transcript string, meta model.EpisodeMetadata) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(systemPrompt(variant)),
			oai.UserMessage(userPrompt(variant, transcript, meta)),
		},
		Temperature:         param.NewOpt(0.2),
		MaxCompletionTokens: param.NewOpt(int64(1024)),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// NewLimiter builds the default LLM limiter from config. Burst 1: the first
// call goes through immediately, later calls wait out the interval.
func NewLimiter(minInterval time.Duration) *rate.Limiter {
	if minInterval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(minInterval), 1)
}

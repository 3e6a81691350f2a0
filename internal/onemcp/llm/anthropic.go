package llm

import (
	"context"
	"fmt"
	"time"

	"onemcp/internal/onemcp/config"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
)

// anthropicClient wraps langchaingo's Anthropic model, generalizing the
// teacher's anthropicProvider (internal/ai-service/provider.go).
type anthropicClient struct {
	model *anthropic.LLM
	cfg   config.LLMConfig
}

func newAnthropicClient(cfg config.LLMConfig) (Client, error) {
	var missing []string
	if cfg.APIKey == "" {
		missing = append(missing, "API_KEY")
	}
	if cfg.Model == "" {
		missing = append(missing, "MODEL")
	}
	if len(missing) > 0 {
		return nil, &ConfigError{Provider: "anthropic", Missing: missing}
	}

	model, err := anthropic.New(
		anthropic.WithModel(cfg.Model),
		anthropic.WithToken(cfg.APIKey),
	)
	if err != nil {
		return nil, fmt.Errorf("llm: failed to create anthropic client: %w", err)
	}
	return &anthropicClient{model: model, cfg: cfg}, nil
}

func (c *anthropicClient) Chat(ctx context.Context, messages []Message, tools []llms.Tool, timeout time.Duration) (*Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	callOpts := []llms.CallOption{llms.WithTemperature(c.cfg.Temperature)}
	if c.cfg.MaxOutputTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(c.cfg.MaxOutputTokens))
	}
	if len(tools) > 0 {
		callOpts = append(callOpts, llms.WithTools(tools))
	}

	resp, err := c.model.GenerateContent(ctx, toContent(messages), callOpts...)
	if err != nil {
		return nil, fmt.Errorf("llm: anthropic generate content: %w", err)
	}
	return fromResponse(resp), nil
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"onemcp/internal/onemcp/config"

	"github.com/tmc/langchaingo/llms"
)

// customClient talks to an OpenAI-compatible chat/completions HTTP endpoint,
// for providers (Ollama, local gateways, ...) that need only a base URL.
// The teacher's customProvider (internal/ai-service/provider.go) was an
// unimplemented placeholder; this fills it in against the same contract.
type customClient struct {
	baseURL string
	apiKey  string
	model   string
	cfg     config.LLMConfig
	http    *http.Client
}

func newCustomClient(cfg config.LLMConfig) (Client, error) {
	if cfg.ProviderURL == "" {
		return nil, &ConfigError{Provider: "custom", Missing: []string{"PROVIDER_URL"}}
	}
	return &customClient{
		baseURL: cfg.ProviderURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		cfg:     cfg,
		http:    &http.Client{Timeout: 60 * time.Second},
	}, nil
}

type customChatRequest struct {
	Model       string              `json:"model"`
	Messages    []customChatMessage `json:"messages"`
	Temperature float64             `json:"temperature,omitempty"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
}

type customChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type customChatResponse struct {
	Choices []struct {
		Message customChatMessage `json:"message"`
	} `json:"choices"`
}

func (c *customClient) Chat(ctx context.Context, messages []Message, tools []llms.Tool, timeout time.Duration) (*Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reqBody := customChatRequest{
		Model:       c.model,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxOutputTokens,
	}
	for _, m := range messages {
		reqBody.Messages = append(reqBody.Messages, customChatMessage{Role: string(m.Role), Content: m.Content})
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("llm: marshal custom request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("llm: build custom request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm: custom provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("llm: custom provider returned status %d", resp.StatusCode)
	}

	var parsed customChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("llm: decode custom response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return &Completion{}, nil
	}
	return &Completion{Text: parsed.Choices[0].Message.Content}, nil
}

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"onemcp/internal/onemcp/config"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// openAIClient wraps langchaingo's OpenAI model, generalizing the teacher's
// openAIProvider (internal/ai-service/provider.go) to the Client interface.
type openAIClient struct {
	model *openai.LLM
	cfg   config.LLMConfig
}

func newOpenAIClient(cfg config.LLMConfig) (Client, error) {
	var missing []string
	if cfg.APIKey == "" {
		missing = append(missing, "API_KEY")
	}
	if cfg.Model == "" {
		missing = append(missing, "MODEL")
	}
	if len(missing) > 0 {
		return nil, &ConfigError{Provider: "openai", Missing: missing}
	}

	opts := []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithToken(cfg.APIKey),
	}
	if cfg.ProviderURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.ProviderURL))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("llm: failed to create openai client: %w", err)
	}
	return &openAIClient{model: model, cfg: cfg}, nil
}

func (c *openAIClient) Chat(ctx context.Context, messages []Message, tools []llms.Tool, timeout time.Duration) (*Completion, error) {
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
		return nil, fmt.Errorf("llm: openai generate content: %w", err)
	}
	return fromResponse(resp), nil
}

// toContent converts the pipeline's Message shape into langchaingo's
// MessageContent, the same mapping the teacher's StreamChatWithTools used.
func toContent(messages []Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		var t llms.ChatMessageType
		switch m.Role {
		case RoleUser:
			t = llms.ChatMessageTypeHuman
		case RoleAssistant:
			t = llms.ChatMessageTypeAI
		case RoleSystem:
			t = llms.ChatMessageTypeSystem
		case RoleToolResult:
			t = llms.ChatMessageTypeTool
		default:
			t = llms.ChatMessageTypeHuman
		}
		out = append(out, llms.TextParts(t, m.Content))
	}
	return out
}

// fromResponse extracts text and any tool calls from a langchaingo response,
// following the teacher's StreamChatWithTools extraction logic.
func fromResponse(resp *llms.ContentResponse) *Completion {
	completion := &Completion{}
	if resp == nil || len(resp.Choices) == 0 {
		return completion
	}
	choice := resp.Choices[0]
	completion.Text = choice.Content

	if choice.FuncCall != nil {
		var args map[string]any
		if choice.FuncCall.Arguments != "" {
			_ = json.Unmarshal([]byte(choice.FuncCall.Arguments), &args)
		}
		completion.ToolCalls = append(completion.ToolCalls, ToolCall{
			Name: choice.FuncCall.Name,
			Args: args,
		})
	}
	for _, tc := range choice.ToolCalls {
		var args map[string]any
		if tc.FunctionCall != nil && tc.FunctionCall.Arguments != "" {
			_ = json.Unmarshal([]byte(tc.FunctionCall.Arguments), &args)
		}
		name := ""
		if tc.FunctionCall != nil {
			name = tc.FunctionCall.Name
		}
		completion.ToolCalls = append(completion.ToolCalls, ToolCall{ID: tc.ID, Name: name, Args: args})
	}
	return completion
}

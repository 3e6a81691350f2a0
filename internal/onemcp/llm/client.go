// Package llm implements the provider-agnostic LLM Client Abstraction
// (SPEC_FULL.md §4.8), generalizing the teacher's internal/ai-service
// provider.go into a registry of factories keyed by provider id, per the
// "Dynamic dispatch on providers" re-architecture guidance in §9.
package llm

import (
	"context"
	"time"

	"github.com/tmc/langchaingo/llms"
)

// Role mirrors the chat roles the teacher's ai-service.Message carried.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleToolCall  Role = "tool_call"
	RoleToolResult Role = "tool_result"
)

// Message is one chat turn. ToolCall/ToolResult are only set on the
// matching Role.
type Message struct {
	Role       Role
	Content    string
	ToolCall   *ToolCall
	ToolResult *ToolResult
}

// ToolCall is a model-requested invocation of a named tool with arguments.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolResult is the outcome of executing a ToolCall, fed back to the model.
type ToolResult struct {
	ID     string
	Name   string
	Output any
	Error  string
}

// Completion is the provider's answer to a Chat call: text plus any tool
// calls the model requested.
type Completion struct {
	Text      string
	ToolCalls []ToolCall
}

// Client is the narrow capability interface SPEC_FULL.md §9 calls for:
// {chat, toolCall, cancel} — cancellation is expressed via ctx, toolCall via
// the tools argument to Chat, so the interface itself stays to one method.
type Client interface {
	// Chat sends messages (optionally offering tools) and returns a
	// completion. Implementations must respect ctx cancellation and the
	// given per-call timeout, and must be stateless: conversation state is
	// reassembled from messages on every call.
	Chat(ctx context.Context, messages []Message, tools []llms.Tool, timeout time.Duration) (*Completion, error)
}

// ConfigError lists every missing or invalid configuration key for a
// provider, returned at construction time rather than on first use.
type ConfigError struct {
	Provider string
	Missing  []string
}

func (e *ConfigError) Error() string {
	msg := "llm: provider " + e.Provider + " is missing required configuration:"
	for i, m := range e.Missing {
		if i > 0 {
			msg += ","
		}
		msg += " " + m
	}
	return msg
}

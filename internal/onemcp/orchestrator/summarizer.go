package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"onemcp/internal/onemcp/llm"
	"onemcp/internal/onemcp/onemcperr"
	"onemcp/internal/onemcp/valuestore"
)

const summarySystemPrompt = `You write a short, plain-language answer to the user's original prompt using
only the variables produced by executing their request. Do not invent facts
not present in the variables. Respond with the answer text only, no JSON, no
markdown fences.`

// Summarizer renders the Value Store's final snapshot into the human-facing
// text returned at StateSummarized.
type Summarizer struct {
	client  llm.Client
	timeout time.Duration
}

func NewSummarizer(client llm.Client, timeout time.Duration) *Summarizer {
	return &Summarizer{client: client, timeout: timeout}
}

func (s *Summarizer) Summarize(ctx context.Context, prompt string, store *valuestore.Store) (string, error) {
	snapshot := store.Snapshot()
	if len(snapshot) == 0 {
		return "", onemcperr.ExecutionError(onemcperr.StageSummarize, "summarizer: value store produced no variables", nil)
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: summarySystemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf("Original prompt: %s\n\nProduced variables:\n%s", prompt, renderSnapshot(snapshot))},
	}

	completion, err := s.client.Chat(ctx, messages, nil, s.timeout)
	if err != nil {
		return "", onemcperr.ExecutionError(onemcperr.StageSummarize, "summarizer: LLM chat failed", err)
	}
	text := strings.TrimSpace(completion.Text)
	if text == "" {
		return "", onemcperr.ExecutionError(onemcperr.StageSummarize, "summarizer: LLM returned an empty summary", nil)
	}
	return text, nil
}

func renderSnapshot(snapshot map[string]valuestore.Entry) string {
	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		entry := snapshot[name]
		encoded, err := json.Marshal(entry.Payload)
		if err != nil {
			encoded = []byte(fmt.Sprintf("%v", entry.Payload))
		}
		fmt.Fprintf(&b, "- %s (%s) = %s\n", name, entry.TypeTag, encoded)
	}
	return b.String()
}

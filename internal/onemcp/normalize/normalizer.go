package normalize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"onemcp/internal/onemcp/llm"
	"onemcp/internal/onemcp/model"
	"onemcp/internal/onemcp/onemcperr"
)

const systemPromptTemplate = `You map a user's request onto a fixed vocabulary and respond with strict JSON only, no prose.
Allowed actions: %s
Allowed entities: %s
Allowed fields: %s
Allowed operators: %s
Allowed aggregates: %s

Respond with exactly this JSON shape:
{"action": "...", "entities": ["..."], "fields": ["..."], "groupBy": ["..."], "filters": [{"field": "...", "op": "...", "value": ...}], "params": {}}

Every action/entities/fields/groupBy token MUST come from the allowed lists above. Never invent a token.`

type draft struct {
	Action   string                 `json:"action"`
	Entities []string               `json:"entities"`
	Fields   []string               `json:"fields"`
	GroupBy  []string               `json:"groupBy"`
	Filters  []model.Filter         `json:"filters"`
	Params   map[string]any         `json:"params"`
}

// Normalizer projects a free-text prompt onto a Dictionary via the LLM
// Client Abstraction, rejecting any output that names a token outside the
// dictionary's key-contributing positions (action, entities, fields,
// groupBy), per SPEC_FULL.md §4.4.
type Normalizer struct {
	client  llm.Client
	timeout time.Duration
}

func New(client llm.Client, timeout time.Duration) *Normalizer {
	return &Normalizer{client: client, timeout: timeout}
}

// Normalize returns the canonical PromptSchema for prompt, or a
// NormalizationError if the LLM's output can't be parsed as the required
// JSON shape or references a token outside dict. A NormalizationError here
// must never be cached — the caller treats it as a cache-bypassing miss.
func (n *Normalizer) Normalize(ctx context.Context, prompt string, dict Dictionary) (*model.PromptSchema, error) {
	sys := fmt.Sprintf(systemPromptTemplate,
		joinActions(dict.Actions), strings.Join(dict.Entities, ", "),
		strings.Join(dict.Fields, ", "), strings.Join(dict.Operators, ", "),
		strings.Join(dict.Aggregates, ", "))

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: sys},
		{Role: llm.RoleUser, Content: prompt},
	}

	completion, err := n.client.Chat(ctx, messages, nil, n.timeout)
	if err != nil {
		return nil, onemcperr.NormalizationError("normalizer: LLM chat failed", err)
	}

	var d draft
	if err := json.Unmarshal([]byte(extractJSON(completion.Text)), &d); err != nil {
		return nil, onemcperr.NormalizationError("normalizer: model output is not valid JSON", err)
	}

	schema, err := d.toSchema()
	if err != nil {
		return nil, onemcperr.NormalizationError("normalizer: model output malformed", err)
	}

	if err := validateAgainstDictionary(schema, dict); err != nil {
		return nil, onemcperr.NormalizationError("normalizer: output references unknown token", err)
	}

	return schema, nil
}

func (d draft) toSchema() (*model.PromptSchema, error) {
	if d.Action == "" {
		return nil, fmt.Errorf("normalize: missing action")
	}
	return &model.PromptSchema{
		Action:   model.Action(d.Action),
		Entities: d.Entities,
		Fields:   d.Fields,
		GroupBy:  d.GroupBy,
		Filters:  d.Filters,
		Params:   d.Params,
	}, nil
}

func validateAgainstDictionary(schema *model.PromptSchema, dict Dictionary) error {
	if !dict.hasAction(schema.Action) {
		return fmt.Errorf("unknown action %q", schema.Action)
	}
	for _, e := range schema.Entities {
		if !dict.hasEntity(e) {
			return fmt.Errorf("unknown entity %q", e)
		}
	}
	for _, f := range schema.Fields {
		if !dict.hasField(f) {
			return fmt.Errorf("unknown field %q", f)
		}
	}
	for _, g := range schema.GroupBy {
		if !dict.hasField(g) {
			return fmt.Errorf("unknown groupBy field %q", g)
		}
	}
	return nil
}

func joinActions(actions []model.Action) string {
	parts := make([]string, len(actions))
	for i, a := range actions {
		parts[i] = string(a)
	}
	return strings.Join(parts, ", ")
}

// extractJSON trims any leading/trailing prose a provider adds despite
// instructions, keeping only the outermost {...} object.
func extractJSON(text string) string {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < 0 || end < start {
		return text
	}
	return text[start : end+1]
}

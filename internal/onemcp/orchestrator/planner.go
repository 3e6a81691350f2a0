package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"onemcp/internal/onemcp/llm"
	"onemcp/internal/onemcp/model"
	"onemcp/internal/onemcp/onemcperr"
	"onemcp/internal/onemcp/snippet"
)

const planSystemPrompt = `You design an execution plan for a prompt already projected onto an action/entities/fields schema.
You may only reference the operations listed below. Respond with strict JSON, no prose, in this shape:
{"kind": "sequential" | "parallel-fanout", "steps": [{"id": "step1", "operationIds": ["..."], "servicesUsed": ["..."], "inputVars": [], "outputVars": ["total"]}], "fanoutGroups": [[0,1]]}
fanoutGroups is only meaningful when kind is "parallel-fanout" and lists step indices that run concurrently; two steps in the same group must never share an outputVar.

Available operations:
%s`

const snippetSystemPrompt = `Generate a single Go source file implementing one plan step.
Requirements:
- package steps
- import only "context" and "onemcp/internal/onemcp/snippet/onemcpsdk" (plus any of: encoding/json, errors, fmt, math, sort, strconv, strings, time)
- define exactly one function: func Run(ctx context.Context, sdk *onemcpsdk.SDK) error
- call sdk.Call(ctx, serviceSlug, method, path, body) to reach an operation
- call sdk.Set(name, value) once per declared output variable
- call sdk.Get(name) to read a variable an earlier step produced
Respond with the Go source only, no markdown fences, no prose.

Step: %s
Operations available to this step:
%s`

type planDraft struct {
	Kind         string      `json:"kind"`
	Steps        []stepDraft `json:"steps"`
	FanoutGroups [][]int     `json:"fanoutGroups"`
}

type stepDraft struct {
	ID           string   `json:"id"`
	OperationIDs []string `json:"operationIds"`
	ServicesUsed []string `json:"servicesUsed"`
	InputVars    []string `json:"inputVars"`
	OutputVars   []string `json:"outputVars"`
}

// Planner turns a normalized schema plus its resolved graph context into an
// executable Plan: one LLM call for plan structure, then one LLM call (with
// a bounded compile-repair loop) per step to generate that step's snippet.
type Planner struct {
	client         llm.Client
	planTimeout    time.Duration
	snippetTimeout time.Duration
	maxRepairs     int
}

func NewPlanner(client llm.Client, planTimeout, snippetTimeout time.Duration, maxRepairs int) *Planner {
	return &Planner{client: client, planTimeout: planTimeout, snippetTimeout: snippetTimeout, maxRepairs: maxRepairs}
}

// Plan resolves schema+context into a fully compiled Plan. A reference to an
// operation absent from context is a PlanningError; a snippet that never
// compiles within maxRepairs attempts is a CompilationError.
func (p *Planner) Plan(ctx context.Context, schema *model.PromptSchema, resolved []model.ContextResult) (*model.Plan, error) {
	available := availableOperations(resolved)
	if len(available) == 0 {
		return nil, onemcperr.PlanningError("planner: no operations resolved from context", nil)
	}

	draft, err := p.draftPlan(ctx, available)
	if err != nil {
		return nil, err
	}

	plan := &model.Plan{Kind: model.WorkflowKind(draft.Kind), FanoutGroups: draft.FanoutGroups}
	for _, sd := range draft.Steps {
		ops, err := resolveStepOperations(sd, available)
		if err != nil {
			return nil, onemcperr.PlanningError(fmt.Sprintf("planner: step %s references an unresolved operation", sd.ID), err)
		}

		source, err := p.generateStepSnippet(ctx, sd, ops)
		if err != nil {
			return nil, err
		}

		plan.Steps = append(plan.Steps, model.Step{
			ID:            sd.ID,
			QualifiedName: "steps." + sd.ID,
			Snippet:       source,
			InputVars:     sd.InputVars,
			OutputVars:    sd.OutputVars,
			ServicesUsed:  sd.ServicesUsed,
		})
	}

	if err := plan.ValidateOutputUniqueness(); err != nil {
		return nil, onemcperr.PlanningError("planner: fanout group declares a duplicate output", err)
	}
	return plan, nil
}

func (p *Planner) draftPlan(ctx context.Context, available map[string]model.OperationRecord) (*planDraft, error) {
	sys := fmt.Sprintf(planSystemPrompt, describeOperations(available))
	messages := []llm.Message{{Role: llm.RoleSystem, Content: sys}}

	completion, err := p.client.Chat(ctx, messages, nil, p.planTimeout)
	if err != nil {
		return nil, onemcperr.PlanningError("planner: LLM chat failed", err)
	}

	var draft planDraft
	if err := json.Unmarshal([]byte(extractJSONObject(completion.Text)), &draft); err != nil {
		return nil, onemcperr.PlanningError("planner: plan output is not valid JSON", err)
	}
	if len(draft.Steps) == 0 {
		return nil, onemcperr.PlanningError("planner: plan has no steps", nil)
	}
	return &draft, nil
}

func (p *Planner) generateStepSnippet(ctx context.Context, sd stepDraft, ops []model.OperationRecord) (string, error) {
	sys := fmt.Sprintf(snippetSystemPrompt, sd.ID, describeOperations(operationMap(ops)))
	messages := []llm.Message{{Role: llm.RoleSystem, Content: sys}}

	var lastDiags []snippet.Diagnostic
	for attempt := 0; attempt <= p.maxRepairs; attempt++ {
		if attempt > 0 {
			messages = append(messages, llm.Message{
				Role:    llm.RoleUser,
				Content: "The previous snippet failed to compile: " + formatDiagnostics(lastDiags) + ". Provide a corrected full source file.",
			})
		}

		completion, err := p.client.Chat(ctx, messages, nil, p.snippetTimeout)
		if err != nil {
			return "", onemcperr.CompilationError("planner: LLM chat failed while generating snippet", err)
		}
		source := stripFences(completion.Text)

		result, diags, err := snippet.Compile(source)
		if err == nil {
			return result.Source, nil
		}
		lastDiags = diags
		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: source})
	}

	return "", onemcperr.CompilationError(fmt.Sprintf("planner: step %s failed to compile after %d repair attempts", sd.ID, p.maxRepairs), diagnosticsErr(lastDiags))
}

func availableOperations(resolved []model.ContextResult) map[string]model.OperationRecord {
	out := make(map[string]model.OperationRecord)
	for _, r := range resolved {
		for _, op := range r.Operations {
			out[op.OperationID] = op
		}
	}
	return out
}

func operationMap(ops []model.OperationRecord) map[string]model.OperationRecord {
	out := make(map[string]model.OperationRecord, len(ops))
	for _, op := range ops {
		out[op.OperationID] = op
	}
	return out
}

func resolveStepOperations(sd stepDraft, available map[string]model.OperationRecord) ([]model.OperationRecord, error) {
	ops := make([]model.OperationRecord, 0, len(sd.OperationIDs))
	for _, id := range sd.OperationIDs {
		op, ok := available[id]
		if !ok {
			return nil, fmt.Errorf("operation %q not present in resolved context", id)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func describeOperations(ops map[string]model.OperationRecord) string {
	var b strings.Builder
	for id, op := range ops {
		fmt.Fprintf(&b, "- %s %s %s (%s): %s\n", id, op.Method, op.Path, op.Category, op.Summary)
	}
	return b.String()
}

func formatDiagnostics(diags []snippet.Diagnostic) string {
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = d.Message
	}
	return strings.Join(parts, "; ")
}

func diagnosticsErr(diags []snippet.Diagnostic) error {
	if len(diags) == 0 {
		return nil
	}
	return fmt.Errorf("%s", formatDiagnostics(diags))
}

func extractJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < 0 || end < start {
		return text
	}
	return text[start : end+1]
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```go")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

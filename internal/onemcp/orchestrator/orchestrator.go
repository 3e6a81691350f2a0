package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"onemcp/internal/onemcp/config"
	"onemcp/internal/onemcp/graph"
	"onemcp/internal/onemcp/llm"
	"onemcp/internal/onemcp/model"
	"onemcp/internal/onemcp/normalize"
	"onemcp/internal/onemcp/onemcperr"
	"onemcp/internal/onemcp/plancache"
	"onemcp/internal/onemcp/snippet"
	"onemcp/internal/onemcp/snippet/bridge"
)

// Orchestrator drives one Request through every stage of SPEC_FULL.md §4.6.
// It holds no per-request mutable state itself; each HandleRequest call owns
// its own Request and Value Store.
type Orchestrator struct {
	cfg        *config.Config
	handbook   *model.Handbook
	dictionary normalize.Dictionary
	normalizer Normalizer
	query      *graph.QueryService
	cache      *plancache.Cache
	planner    *Planner
	runtime    *snippet.Runtime
	summarizer *Summarizer
}

// Normalizer is the narrow interface HandleRequest needs from normalize.Normalizer,
// declared here so tests can substitute a stub without constructing an llm.Client.
type Normalizer interface {
	Normalize(ctx context.Context, prompt string, dict normalize.Dictionary) (*model.PromptSchema, error)
}

func New(cfg *config.Config, hb *model.Handbook, store graph.Store, cache *plancache.Cache, client llm.Client, credentials map[string]model.Credential) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		handbook:   hb,
		dictionary: normalize.BuildDictionary(hb),
		normalizer: normalize.New(client, cfg.Timeouts.Normalize),
		query:      graph.NewQueryService(store),
		cache:      cache,
		planner:    NewPlanner(client, cfg.Timeouts.Plan, cfg.Timeouts.Compile, cfg.CompileRepairs),
		runtime:    snippet.NewRuntime(bridge.New(credentials)),
		summarizer: NewSummarizer(client, cfg.Timeouts.Summarize),
	}
}

// HandleRequest drives prompt through ACCEPTED -> ... -> DONE/FAILED and
// returns the terminal Response. It never panics: any failure in a stage is
// captured as a typed *onemcperr.Error and returned via Response.Error.
func (o *Orchestrator) HandleRequest(ctx context.Context, prompt string) *Response {
	req := NewRequest(prompt)
	ctx, cancel := context.WithCancel(ctx)
	req.cancel = cancel
	defer cancel()

	schema, err := o.normalizer.Normalize(ctx, prompt, o.dictionary)
	if err != nil {
		return o.terminal(req, asOnemcpErr(err, onemcperr.Normalization, onemcperr.StageNormalize))
	}
	req.Schema = schema
	req.setState(StateNormalized)

	cacheKey := normalize.CacheKey(schema)
	handbookVersion := o.handbook.Version()

	plan, hit := o.cache.Get(handbookVersion, cacheKey)
	if hit {
		req.setState(StatePlanHit)
		req.Plan = &plan
	} else {
		req.setState(StatePlanMiss)
		if o.cfg.StaticMode {
			return o.terminal(req, onemcperr.PlanningError("static mode: no cached plan for this request shape", nil))
		}

		resolved, err := o.query.Resolve(ctx, contextItems(schema))
		if err != nil {
			return o.terminal(req, onemcperr.PlanningError("graph query failed", err))
		}
		req.Context = resolved
		req.setState(StateContexted)

		generated, _, err := o.cache.GetOrLoad(ctx, handbookVersion, cacheKey, func(ctx context.Context) (*model.Plan, error) {
			return o.planner.Plan(ctx, schema, resolved)
		})
		if err != nil {
			return o.terminal(req, asOnemcpErr(err, onemcperr.Planning, onemcperr.StagePlan))
		}
		plan = generated
		req.Plan = &plan
		req.setState(StatePlanned)
	}

	req.setState(StateExecuting)
	if err := o.execute(ctx, req); err != nil {
		return o.terminal(req, asOnemcpErr(err, onemcperr.Execution, onemcperr.StageExecute))
	}

	summary, err := o.summarizer.Summarize(ctx, prompt, req.Store)
	if err != nil {
		return o.terminal(req, asOnemcpErr(err, onemcperr.Execution, onemcperr.StageSummarize))
	}
	req.setState(StateSummarized)
	req.setState(StateDone)

	return &Response{RequestID: req.ID, State: StateDone, Summary: summary}
}

func (o *Orchestrator) execute(ctx context.Context, req *Request) error {
	plan := req.Plan
	if plan.Kind == model.WorkflowParallelFanout && len(plan.FanoutGroups) > 0 {
		return o.executeFanout(ctx, req, plan)
	}
	for i := range plan.Steps {
		if err := o.runStep(ctx, req, &plan.Steps[i]); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) executeFanout(ctx context.Context, req *Request, plan *model.Plan) error {
	grouped := make(map[int]bool)
	for _, group := range plan.FanoutGroups {
		for _, idx := range group {
			grouped[idx] = true
		}
		err := runFanout(ctx, group, o.cfg.FanoutWorkers, func(ctx context.Context, idx int) error {
			return o.runStep(ctx, req, &plan.Steps[idx])
		})
		if err != nil {
			return err
		}
	}
	for i := range plan.Steps {
		if grouped[i] {
			continue
		}
		if err := o.runStep(ctx, req, &plan.Steps[i]); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) runStep(ctx context.Context, req *Request, step *model.Step) error {
	if missing, ok := req.Store.HasAll(step.InputVars); !ok {
		return onemcperr.ExecutionError(onemcperr.StageExecute, fmt.Sprintf("step %s missing inputs: %v", step.ID, missing), nil)
	}
	if err := req.Store.Reserve(step.ID, step.OutputVars); err != nil {
		return onemcperr.ExecutionError(onemcperr.StageExecute, fmt.Sprintf("step %s output reservation failed", step.ID), err)
	}

	result, diags, err := snippet.Compile(step.Snippet)
	if err != nil {
		return onemcperr.CompilationError(fmt.Sprintf("step %s failed to compile at execution time: %v", step.ID, diags), err)
	}

	if err := o.runtime.Run(ctx, result, req.Store, step.ID, o.cfg.SandboxTimeout); err != nil {
		return asOnemcpErr(err, onemcperr.Execution, onemcperr.StageExecute)
	}

	if missing, ok := req.Store.HasAll(step.OutputVars); !ok {
		return onemcperr.ExecutionError(onemcperr.StageExecute, fmt.Sprintf("step %s did not produce declared outputs: %v", step.ID, missing), nil)
	}
	return nil
}

func (o *Orchestrator) terminal(req *Request, err *onemcperr.Error) *Response {
	req.fail(err)
	return &Response{RequestID: req.ID, State: StateFailed, Error: err}
}

// asOnemcpErr preserves an already-typed *onemcperr.Error from a lower layer,
// or wraps a bare error under the caller's fallback code/stage.
func asOnemcpErr(err error, code onemcperr.Code, stage onemcperr.Stage) *onemcperr.Error {
	var oe *onemcperr.Error
	if errors.As(err, &oe) {
		return oe
	}
	return onemcperr.New(code, stage, err.Error(), err)
}

func contextItems(schema *model.PromptSchema) []model.ContextItem {
	categories := actionCategories(schema.Action)
	items := make([]model.ContextItem, 0, len(schema.Entities))
	for _, entity := range schema.Entities {
		items = append(items, model.ContextItem{Entity: entity, Categories: categories})
	}
	return items
}

// actionCategories maps a normalized prompt's action to the operation
// categories the Graph Query Service should narrow retrieval to, per
// §4.3's category-intersection filtering.
func actionCategories(action model.Action) []model.Category {
	switch action {
	case model.ActionSearch, model.ActionGet, model.ActionList, model.ActionSummarize, model.ActionRank:
		return []model.Category{model.CategoryRetrieve}
	case model.ActionCreate:
		return []model.Category{model.CategoryCreate}
	case model.ActionUpdate:
		return []model.Category{model.CategoryUpdate}
	case model.ActionDelete:
		return []model.Category{model.CategoryDelete}
	case model.ActionTrigger:
		return []model.Category{model.CategoryCompute}
	default:
		return nil
	}
}

package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"onemcp/internal/onemcp/model"
	"onemcp/internal/onemcp/onemcperr"
	"onemcp/internal/onemcp/valuestore"
)

// Request owns the mutable state of one in-flight interaction, guarded by
// its own mutex — grounded on the teacher's per-connection ChatService
// session object pattern (chat_websocket.go).
type Request struct {
	mu sync.Mutex

	ID        string
	Prompt    string
	State     State
	Schema    *model.PromptSchema
	Context   []model.ContextResult
	Plan      *model.Plan
	Store     *valuestore.Store
	StartedAt time.Time

	cancel context.CancelFunc
	err    *onemcperr.Error
}

func NewRequest(prompt string) *Request {
	return &Request{
		ID:        uuid.NewString(),
		Prompt:    prompt,
		State:     StateAccepted,
		Store:     valuestore.New(),
		StartedAt: time.Now(),
	}
}

func (r *Request) setState(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.State = s
}

func (r *Request) fail(err *onemcperr.Error) *onemcperr.Error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.State = StateFailed
	r.err = err
	return err
}

// Cancel aborts the request: in-flight LLM calls, compiles, and sandbox
// executions observe ctx.Done() at their next suspension point. The Value
// Store is not cleared; it is dropped along with the Request.
func (r *Request) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}

// Response is the MCP-facing result of a completed (or failed) request.
type Response struct {
	RequestID string
	State     State
	Summary   string
	Error     *onemcperr.Error
}

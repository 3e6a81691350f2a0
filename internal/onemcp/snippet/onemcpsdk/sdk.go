// Package onemcpsdk is the only non-stdlib package a sandboxed snippet may
// import. It
// exposes the capability object a generated Run function receives: the HTTP
// bridge to call configured services, the Value Store to read prior steps'
// outputs and publish its own, and small JSON helpers — nothing a snippet
// could use to touch the filesystem, spawn a process, or reflect over host
// types (SPEC_FULL.md §4.7).
package onemcpsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"onemcp/internal/onemcp/snippet/bridge"
	"onemcp/internal/onemcp/valuestore"
)

// SDK is injected into the yaegi interpreter's symbol table as the sole
// bridge between a snippet and the outside world.
type SDK struct {
	bridge  *bridge.Bridge
	store   *valuestore.Store
	stepID  string
	timeout time.Duration
}

func New(b *bridge.Bridge, store *valuestore.Store, stepID string, timeout time.Duration) *SDK {
	return &SDK{bridge: b, store: store, stepID: stepID, timeout: timeout}
}

// Call issues an HTTP request to a handbook-declared service and returns its
// decoded response. A non-2xx status is not an error — inspect
// resp.StatusCode the way the teacher's Qdrant client does.
func (s *SDK) Call(ctx context.Context, serviceSlug, method, path string, body any) (*bridge.Response, error) {
	return s.bridge.Do(ctx, serviceSlug, method, path, body, s.timeout)
}

// Get reads a value a prior step published to the Value Store.
func (s *SDK) Get(name string) (any, bool) {
	e, ok := s.store.Get(name)
	if !ok {
		return nil, false
	}
	return e.Payload, true
}

// Set publishes a value this step owns to the Value Store. name must have
// been declared in the step's OutputVars and reserved before Run executes.
func (s *SDK) Set(name string, value any) error {
	return s.store.Set(s.stepID, name, value)
}

// ToJSON and FromJSON are convenience helpers so a snippet never needs its
// own encoding/json import (which it already has, but keeping them here
// reduces how much boilerplate a generated snippet has to carry).
func ToJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("onemcpsdk: marshal: %w", err)
	}
	return string(b), nil
}

func FromJSON(data string, out any) error {
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return fmt.Errorf("onemcpsdk: unmarshal: %w", err)
	}
	return nil
}

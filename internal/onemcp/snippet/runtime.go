package snippet

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"onemcp/internal/onemcp/onemcperr"
	"onemcp/internal/onemcp/snippet/bridge"
	"onemcp/internal/onemcp/snippet/onemcpsdk"
	"onemcp/internal/onemcp/valuestore"
)

// sdkSymbols exports exactly the onemcpsdk surface into the interpreter's
// symbol table, following the teacher's interp.Use(stdlib.Symbols) +
// custom-exports pattern (yaegi_executor.go). A snippet that only ever
// imports onemcpsdk and the stdlib packages allowedImports permits has no
// path to the filesystem, a process, or host reflection.
var sdkSymbols = interp.Exports{
	"onemcp/internal/onemcp/snippet/onemcpsdk/onemcpsdk": {
		"SDK":      reflect.ValueOf((*onemcpsdk.SDK)(nil)),
		"New":      reflect.ValueOf(onemcpsdk.New),
		"ToJSON":   reflect.ValueOf(onemcpsdk.ToJSON),
		"FromJSON": reflect.ValueOf(onemcpsdk.FromJSON),
	},
}

// Runtime executes compiled snippets in a fresh yaegi interpreter per call —
// no state crosses step boundaries except through the Value Store, matching
// the "explicit suspension points via context.Context and channels"
// guidance (SPEC_FULL.md §9).
type Runtime struct {
	bridge *bridge.Bridge
}

func NewRuntime(b *bridge.Bridge) *Runtime {
	return &Runtime{bridge: b}
}

// Run evaluates result.Source, calls its Run entrypoint with an *onemcpsdk.SDK
// bound to store and stepID, and returns within timeout or a TimeoutError.
func (r *Runtime) Run(ctx context.Context, result *CompileResult, store *valuestore.Store, stepID string, timeout time.Duration) error {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return onemcperr.ExecutionError(onemcperr.StageExecute, "snippet: load stdlib symbols", err)
	}
	if err := i.Use(sdkSymbols); err != nil {
		return onemcperr.ExecutionError(onemcperr.StageExecute, "snippet: load sdk symbols", err)
	}

	if _, err := i.Eval(result.Source); err != nil {
		return onemcperr.ExecutionError(onemcperr.StageExecute, "snippet: evaluate source", err)
	}

	entry, err := i.Eval(result.PackageName + "." + entrypointName)
	if err != nil {
		return onemcperr.ExecutionError(onemcperr.StageExecute, "snippet: resolve entrypoint", err)
	}
	run, ok := entry.Interface().(func(context.Context, *onemcpsdk.SDK) error)
	if !ok {
		return onemcperr.ExecutionError(onemcperr.StageExecute, "snippet: entrypoint has unexpected signature", nil)
	}

	sdk := onemcpsdk.New(r.bridge, store, stepID, timeout)

	done := make(chan error, 1)
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	go func() {
		done <- safeCall(runCtx, run, sdk)
	}()

	select {
	case err := <-done:
		if err != nil {
			return onemcperr.ExecutionError(onemcperr.StageExecute, fmt.Sprintf("snippet: step %s failed", stepID), err)
		}
		return nil
	case <-runCtx.Done():
		return onemcperr.TimeoutError(onemcperr.StageExecute, fmt.Sprintf("snippet: step %s exceeded %s", stepID, timeout))
	}
}

// safeCall recovers a panicking snippet into an error rather than crashing
// the orchestrator — a snippet is untrusted, generated code.
func safeCall(ctx context.Context, run func(context.Context, *onemcpsdk.SDK) error, sdk *onemcpsdk.SDK) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("snippet panicked: %v", r)
		}
	}()
	return run(ctx, sdk)
}

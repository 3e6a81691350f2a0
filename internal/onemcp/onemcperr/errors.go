// Package onemcperr defines the error taxonomy surfaced to MCP callers.
package onemcperr

import "fmt"

// Code identifies the class of failure, matching the codes a caller can act on.
type Code string

const (
	Validation    Code = "VALIDATION"
	Normalization Code = "NORMALIZATION"
	Planning      Code = "PLANNING"
	Compilation   Code = "COMPILATION"
	Execution     Code = "EXECUTION"
	Timeout       Code = "TIMEOUT"
	Cancelled     Code = "CANCELLED"
	Provider      Code = "PROVIDER"
	Network       Code = "NETWORK"
)

// Stage names the orchestrator stage a failure occurred in.
type Stage string

const (
	StageNormalize Stage = "normalize"
	StagePlan      Stage = "plan"
	StageCompile   Stage = "compile"
	StageExecute   Stage = "execute"
	StageSummarize Stage = "summarize"
	// StageLoad covers handbook loading/indexing, which happens outside any
	// single request's normalize|plan|compile|execute|summarize lifecycle.
	StageLoad Stage = "load"
)

// Error is the structured envelope every caller-visible failure is wrapped in.
type Error struct {
	Code    Code
	Stage   Stage
	Message string
	Cause   error
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s[%s]: %s: %v", e.Code, e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s[%s]: %s", e.Code, e.Stage, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, stage Stage, message string, cause error) *Error {
	return &Error{Code: code, Stage: stage, Message: message, Cause: cause}
}

// WithContext returns a copy of e carrying additional context, e.g. the step that failed.
func (e *Error) WithContext(kv map[string]any) *Error {
	ctx := make(map[string]any, len(e.Context)+len(kv))
	for k, v := range e.Context {
		ctx[k] = v
	}
	for k, v := range kv {
		ctx[k] = v
	}
	return &Error{Code: e.Code, Stage: e.Stage, Message: e.Message, Cause: e.Cause, Context: ctx}
}

func ValidationError(stage Stage, message string, cause error) *Error {
	return New(Validation, stage, message, cause)
}

func NormalizationError(message string, cause error) *Error {
	return New(Normalization, StageNormalize, message, cause)
}

func PlanningError(message string, cause error) *Error {
	return New(Planning, StagePlan, message, cause)
}

func CompilationError(message string, cause error) *Error {
	return New(Compilation, StageCompile, message, cause)
}

func ExecutionError(stage Stage, message string, cause error) *Error {
	return New(Execution, stage, message, cause)
}

func TimeoutError(stage Stage, message string) *Error {
	return New(Timeout, stage, message, nil)
}

func CancelledError(stage Stage) *Error {
	return New(Cancelled, stage, "request cancelled", nil)
}

func ProviderError(stage Stage, message string, cause error) *Error {
	return New(Provider, stage, message, cause)
}

func NetworkError(stage Stage, message string, cause error) *Error {
	return New(Network, stage, message, cause)
}

package onemcperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := CompilationError("repair budget exhausted", cause)

	require.Error(t, err)
	assert.Equal(t, Compilation, err.Code)
	assert.Equal(t, StageCompile, err.Stage)
	assert.True(t, errors.Is(err, err))
	assert.ErrorIs(t, err, cause)
}

func TestWithContextCopies(t *testing.T) {
	base := ExecutionError(StageExecute, "missing output", nil).WithContext(map[string]any{"step": "s1"})
	extended := base.WithContext(map[string]any{"var": "total"})

	assert.Equal(t, "s1", base.Context["step"])
	assert.NotContains(t, base.Context, "var")
	assert.Equal(t, "s1", extended.Context["step"])
	assert.Equal(t, "total", extended.Context["var"])
}

func TestCancelledErrorHasNoCause(t *testing.T) {
	err := CancelledError(StageExecute)
	assert.Equal(t, Cancelled, err.Code)
	assert.Nil(t, err.Cause)
}

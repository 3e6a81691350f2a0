package snippet_test

import (
	"testing"

	"onemcp/internal/onemcp/snippet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSnippet = `package steps

import (
	"context"

	"onemcp/internal/onemcp/snippet/onemcpsdk"
)

func Run(ctx context.Context, sdk *onemcpsdk.SDK) error {
	resp, err := sdk.Call(ctx, "acme", "GET", "/sales", nil)
	if err != nil {
		return err
	}
	return sdk.Set("sales", resp.Body)
}
`

func TestCompileAcceptsValidSnippet(t *testing.T) {
	result, diags, err := snippet.Compile(validSnippet)
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Equal(t, "steps", result.PackageName)
	assert.True(t, result.HasEntrypoint)
}

func TestCompileRejectsDisallowedImport(t *testing.T) {
	source := `package steps

import (
	"context"
	"os/exec"

	"onemcp/internal/onemcp/snippet/onemcpsdk"
)

func Run(ctx context.Context, sdk *onemcpsdk.SDK) error {
	exec.Command("ls").Run()
	return nil
}
`
	_, diags, err := snippet.Compile(source)
	require.Error(t, err)
	require.NotEmpty(t, diags)
	assert.Contains(t, diags[0].Message, "os/exec")
}

func TestCompileRejectsMissingEntrypoint(t *testing.T) {
	source := `package steps

func helper() {}
`
	_, diags, err := snippet.Compile(source)
	require.Error(t, err)
	require.NotEmpty(t, diags)
	assert.Contains(t, diags[0].Message, "Run")
}

func TestCompileRejectsSyntaxError(t *testing.T) {
	_, _, err := snippet.Compile("package steps\nfunc Run( {")
	assert.Error(t, err)
}

func TestCompileInfersMissingAllowedImport(t *testing.T) {
	source := `package steps

import (
	"context"

	"onemcp/internal/onemcp/snippet/onemcpsdk"
)

func Run(ctx context.Context, sdk *onemcpsdk.SDK) error {
	encoded, err := json.Marshal(map[string]int{"n": 1})
	if err != nil {
		return err
	}
	return sdk.Set("encoded", string(encoded))
}
`
	result, diags, err := snippet.Compile(source)
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Contains(t, result.Source, `"encoding/json"`)
}

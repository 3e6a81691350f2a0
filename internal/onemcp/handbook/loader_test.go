package handbook

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleOpenAPI = `
openapi: 3.0.3
info:
  title: Acme API
  version: "1.0"
paths:
  /sales:
    get:
      operationId: querySales
      summary: Query and aggregate sales records
      tags: [Sale]
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                type: object
                properties:
                  total:
                    type: number
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func buildValidHandbook(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "agent.yaml"), "provider: openai\nmodel: gpt-4\nservices: [acme]\n")
	writeFile(t, filepath.Join(root, "apis", "acme.yaml"),
		"slug: acme\nname: Acme\nref: acme-openapi.yaml\nentities:\n  - entity: Sale\n    tags: [Sale]\n")
	writeFile(t, filepath.Join(root, "apis", "acme-openapi.yaml"), sampleOpenAPI)
	writeFile(t, filepath.Join(root, "docs", "intro.md"), "# Intro\nHello")

	return root
}

func TestLoadValidHandbook(t *testing.T) {
	root := buildValidHandbook(t)

	hb, err := Load(context.Background(), root)
	require.NoError(t, err)
	require.Contains(t, hb.Services, "acme")

	op, ok := hb.ResolveOperation("acme", "querySales")
	require.True(t, ok)
	assert.Equal(t, "GET", op.Method)
	assert.NotEmpty(t, hb.Version())
}

func TestLoadMissingAPIsDirFails(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "agent.yaml"), "provider: openai\n")

	_, err := Load(context.Background(), root)
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Error(), "apis")
}

func TestLoadEmptyAPIsDirStillFails(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "agent.yaml"), "provider: openai\n")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "apis"), 0o755))

	_, err := Load(context.Background(), root)
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Error(), "no API descriptor is resolvable")
}

func TestLoadRejectsEmptyAgentDescriptor(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "agent.yaml"), "")
	writeFile(t, filepath.Join(root, "apis", "acme.yaml"),
		"slug: acme\nname: Acme\nref: acme-openapi.yaml\n")
	writeFile(t, filepath.Join(root, "apis", "acme-openapi.yaml"), sampleOpenAPI)

	_, err := Load(context.Background(), root)
	require.Error(t, err)
}

func TestReloadSwapsAtomically(t *testing.T) {
	root := buildValidHandbook(t)

	hb, err := Load(context.Background(), root)
	require.NoError(t, err)
	snap := NewSnapshot(hb)

	firstVersion := snap.Current().Version()

	// Touch a file to change the content hash.
	writeFile(t, filepath.Join(root, "docs", "intro.md"), "# Intro\nUpdated")

	newVersion, changed, err := snap.Reload(context.Background(), root)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NotEqual(t, firstVersion, newVersion)
}

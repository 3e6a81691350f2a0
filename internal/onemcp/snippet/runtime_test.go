package snippet_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"onemcp/internal/onemcp/model"
	"onemcp/internal/onemcp/snippet"
	"onemcp/internal/onemcp/snippet/bridge"
	"onemcp/internal/onemcp/valuestore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sumSnippet = `package steps

import (
	"context"

	"onemcp/internal/onemcp/snippet/onemcpsdk"
)

func Run(ctx context.Context, sdk *onemcpsdk.SDK) error {
	resp, err := sdk.Call(ctx, "acme", "GET", "/sales", nil)
	if err != nil {
		return err
	}

	rows := resp.Body.([]interface{})
	total := 0.0
	for _, row := range rows {
		item := row.(map[string]interface{})
		total += item["amount"].(float64)
	}
	return sdk.Set("total", total)
}
`

func TestRuntimeRunExecutesSnippetAgainstBridge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"amount": 100.0},
			{"amount": 250.5},
		})
	}))
	defer server.Close()

	b := bridge.New(map[string]model.Credential{
		"acme": {BaseURL: server.URL},
	})
	runtime := snippet.NewRuntime(b)

	result, diags, err := snippet.Compile(sumSnippet)
	require.NoError(t, err)
	require.Empty(t, diags)

	store := valuestore.New()
	err = runtime.Run(context.Background(), result, store, "step1", 5*time.Second)
	require.NoError(t, err)

	entry, ok := store.Get("total")
	require.True(t, ok)
	assert.Equal(t, 350.5, entry.Payload)
}

func TestRuntimeRunTimesOutOnSlowStep(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	b := bridge.New(map[string]model.Credential{"acme": {BaseURL: server.URL}})
	runtime := snippet.NewRuntime(b)

	result, _, err := snippet.Compile(sumSnippet)
	require.NoError(t, err)

	store := valuestore.New()
	err = runtime.Run(context.Background(), result, store, "step1", 10*time.Millisecond)
	require.Error(t, err)
}

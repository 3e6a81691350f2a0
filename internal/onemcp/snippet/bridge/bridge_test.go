package bridge_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"onemcp/internal/onemcp/model"
	"onemcp/internal/onemcp/snippet/bridge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoAttachesCredentialAndDecodesJSON(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"ok": "true"})
	}))
	defer server.Close()

	creds := map[string]model.Credential{
		"acme": {BaseURL: server.URL, HeaderName: "Authorization", Pattern: "Bearer {token}", Token: "secret"},
	}
	b := bridge.New(creds)

	resp, err := b.Do(context.Background(), "acme", http.MethodGet, "/sales", nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, map[string]any{"ok": "true"}, resp.Body)
	assert.True(t, resp.Ok())
}

func TestDoReturnsNonOKStatusAsNormalResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"missing"}`))
	}))
	defer server.Close()

	creds := map[string]model.Credential{"acme": {BaseURL: server.URL}}
	b := bridge.New(creds)

	resp, err := b.Do(context.Background(), "acme", http.MethodGet, "/missing", nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
	assert.False(t, resp.Ok())
}

func TestDoFailsFastOnUnknownService(t *testing.T) {
	b := bridge.New(map[string]model.Credential{})
	_, err := b.Do(context.Background(), "ghost", http.MethodGet, "/x", nil, time.Second)
	assert.Error(t, err)
}

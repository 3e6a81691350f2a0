package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ONEMCP_HANDBOOK_ROOT", "ONEMCP_LLM_PROVIDER", "ONEMCP_LLM_API_KEY",
		"ONEMCP_LLM_MODEL", "OPENAI_API_KEY", "ANTHROPIC_API_KEY",
		"ONEMCP_FANOUT_WORKERS", "ONEMCP_STATIC_MODE",
	} {
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadRequiresHandbookRoot(t *testing.T) {
	clearEnv(t)
	t.Setenv("ONEMCP_LLM_PROVIDER", "openai")
	t.Setenv("ONEMCP_LLM_API_KEY", "sk-test")

	_, err := Load("")
	assert.ErrorContains(t, err, "ONEMCP_HANDBOOK_ROOT")
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("ONEMCP_HANDBOOK_ROOT", "/tmp/handbook")
	t.Setenv("ONEMCP_LLM_PROVIDER", "openai")
	t.Setenv("ONEMCP_LLM_API_KEY", "sk-test")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4-turbo-preview", cfg.LLM.Model)
	assert.False(t, cfg.StaticMode)
	assert.Greater(t, cfg.FanoutWorkers, 0)
}

func TestLoadRejectsMissingAPIKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("ONEMCP_HANDBOOK_ROOT", "/tmp/handbook")
	t.Setenv("ONEMCP_LLM_PROVIDER", "anthropic")

	_, err := Load("")
	assert.ErrorContains(t, err, "API key required")
}

func TestLoadCredentialsFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ONEMCP_HANDBOOK_ROOT", "/tmp/handbook")
	t.Setenv("ONEMCP_LLM_PROVIDER", "openai")
	t.Setenv("ONEMCP_LLM_API_KEY", "sk-test")
	t.Setenv("ONEMCP_SERVICE_ACME_BASE_URL", "https://acme.example.com")
	t.Setenv("ONEMCP_SERVICE_ACME_HEADER", "Authorization")
	t.Setenv("ONEMCP_SERVICE_ACME_PATTERN", "Bearer {token}")
	t.Setenv("ONEMCP_SERVICE_ACME_TOKEN", "secret")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Contains(t, cfg.Credentials, "ACME")
	assert.Equal(t, "https://acme.example.com", cfg.Credentials["ACME"].BaseURL)
}

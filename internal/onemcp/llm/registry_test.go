package llm

import (
	"context"
	"testing"
	"time"

	"onemcp/internal/onemcp/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func TestBuildUnknownProvider(t *testing.T) {
	r := NewRegistry()
	_, err := r.Build(config.LLMConfig{Provider: "doesnotexist", Model: "x"})
	assert.ErrorContains(t, err, "unsupported provider")
}

func TestBuildOpenAIMissingAPIKeyReturnsConfigError(t *testing.T) {
	r := NewRegistry()
	_, err := r.Build(config.LLMConfig{Provider: "openai", Model: "gpt-4"})
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "openai", cfgErr.Provider)
	assert.Contains(t, cfgErr.Missing, "API_KEY")
}

func TestRegisterAddsNewProvider(t *testing.T) {
	r := NewRegistry()
	r.Register("fake", func(cfg config.LLMConfig) (Client, error) {
		return fakeClient{}, nil
	})

	client, err := r.Build(config.LLMConfig{Provider: "fake"})
	require.NoError(t, err)

	completion, err := client.Chat(context.Background(), nil, nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "fake response", completion.Text)
}

type fakeClient struct{}

func (fakeClient) Chat(ctx context.Context, messages []Message, tools []llms.Tool, timeout time.Duration) (*Completion, error) {
	return &Completion{Text: "fake response"}, nil
}

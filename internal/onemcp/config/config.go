// Package config loads the single immutable configuration snapshot the
// server is built from. Following SPEC_FULL.md §9 ("Global configuration"),
// exactly one *Config is constructed at startup; a handbook reload swaps an
// atomic pointer rather than mutating shared state (see handbook.Snapshot).
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// StageTimeouts bounds each orchestrator suspension point independently of
// the overall request timeout, per SPEC_FULL.md §5.
type StageTimeouts struct {
	Normalize time.Duration
	Plan      time.Duration
	Compile   time.Duration
	Execute   time.Duration
	Summarize time.Duration
}

// LLMConfig is provider selection and credentials for the LLM Client
// Abstraction (§4.8), generalizing the teacher's AIConfig.
type LLMConfig struct {
	Provider        string // "openai", "anthropic", or "custom"
	ProviderURL     string
	APIKey          string
	Model           string
	Temperature     float64
	MaxOutputTokens int
}

// Config is the immutable snapshot every component is constructed from.
type Config struct {
	HandbookRoot    string
	PlanCachePath   string // empty disables disk persistence
	StaticMode      bool   // PLAN_MISS -> FAILED(PLANNING) instead of generating
	FanoutWorkers   int
	SandboxTimeout  time.Duration
	CompileRepairs  int
	Timeouts        StageTimeouts
	LLM             LLMConfig
	Credentials     map[string]CredentialConfig // keyed by service slug
	HTTPListenAddr  string
	EnableDevConsole bool
	JWTSecret       string // empty disables bearer auth on the MCP endpoint
	MongoURI        string
	MongoDatabase   string
}

// CredentialConfig is the env-sourced form of model.Credential.
type CredentialConfig struct {
	BaseURL    string
	HeaderName string
	Pattern    string
	Token      string
}

// Load builds a Config from an optional .env file overlaid with process
// environment variables, applying defaults and validating required fields,
// following the teacher's LoadAIConfig convention (internal/ai-service/config.go).
func Load(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFilePath, err)
		}
	}

	handbookRoot := os.Getenv("ONEMCP_HANDBOOK_ROOT")
	if handbookRoot == "" {
		return nil, fmt.Errorf("ONEMCP_HANDBOOK_ROOT environment variable is required")
	}

	llmConfig, err := loadLLMConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid LLM configuration: %w", err)
	}

	cfg := &Config{
		HandbookRoot:     handbookRoot,
		PlanCachePath:    os.Getenv("ONEMCP_PLAN_CACHE_PATH"),
		StaticMode:       envBool("ONEMCP_STATIC_MODE", false),
		FanoutWorkers:    envInt("ONEMCP_FANOUT_WORKERS", runtime.NumCPU()),
		SandboxTimeout:   envDuration("ONEMCP_SANDBOX_TIMEOUT", 60*time.Second),
		CompileRepairs:   envInt("ONEMCP_COMPILE_REPAIRS", 3),
		Timeouts: StageTimeouts{
			Normalize: envDuration("ONEMCP_TIMEOUT_NORMALIZE", 15*time.Second),
			Plan:      envDuration("ONEMCP_TIMEOUT_PLAN", 30*time.Second),
			Compile:   envDuration("ONEMCP_TIMEOUT_COMPILE", 10*time.Second),
			Execute:   envDuration("ONEMCP_TIMEOUT_EXECUTE", 60*time.Second),
			Summarize: envDuration("ONEMCP_TIMEOUT_SUMMARIZE", 15*time.Second),
		},
		LLM:              *llmConfig,
		Credentials:      loadCredentials(),
		HTTPListenAddr:   envString("ONEMCP_HTTP_ADDR", ":8089"),
		EnableDevConsole: envBool("ONEMCP_DEV_CONSOLE", false),
		JWTSecret:        os.Getenv("ONEMCP_JWT_SECRET"),
		MongoURI:         os.Getenv("MONGODB_URI"),
		MongoDatabase:    envString("MONGODB_DATABASE", "onemcp"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field invariants that individual env parsing cannot.
func (c *Config) Validate() error {
	if c.HandbookRoot == "" {
		return fmt.Errorf("handbook root is required")
	}
	if c.FanoutWorkers <= 0 {
		return fmt.Errorf("fanout workers must be positive")
	}
	if c.CompileRepairs < 0 {
		return fmt.Errorf("compile repairs must be non-negative")
	}
	return c.LLM.Validate()
}

// Validate mirrors the teacher's AIConfig.Validate, generalized to the
// registry-of-providers model in internal/onemcp/llm.
func (c LLMConfig) Validate() error {
	switch c.Provider {
	case "openai", "anthropic":
		if c.APIKey == "" {
			return fmt.Errorf("API key required for %s provider", c.Provider)
		}
	case "custom":
		if c.ProviderURL == "" {
			return fmt.Errorf("provider URL required for custom provider")
		}
	default:
		return fmt.Errorf("invalid provider: %s", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("model name is required")
	}
	if c.Temperature < 0 || c.Temperature > 2.0 {
		return fmt.Errorf("temperature must be between 0 and 2.0")
	}
	return nil
}

func loadLLMConfig() (*LLMConfig, error) {
	provider := envString("ONEMCP_LLM_PROVIDER", "")
	if provider == "" {
		return nil, fmt.Errorf("ONEMCP_LLM_PROVIDER is required")
	}

	apiKey := os.Getenv("ONEMCP_LLM_API_KEY")
	if apiKey == "" {
		switch provider {
		case "openai":
			apiKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic":
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}

	model := envString("ONEMCP_LLM_MODEL", "")
	if model == "" {
		switch provider {
		case "openai":
			model = "gpt-4-turbo-preview"
		case "anthropic":
			model = "claude-3-5-sonnet-20241022"
		}
	}

	return &LLMConfig{
		Provider:        provider,
		ProviderURL:     os.Getenv("ONEMCP_LLM_PROVIDER_URL"),
		APIKey:          apiKey,
		Model:           model,
		Temperature:     envFloat("ONEMCP_LLM_TEMPERATURE", 0.2),
		MaxOutputTokens: envInt("ONEMCP_LLM_MAX_OUTPUT_TOKENS", 0),
	}, nil
}

// loadCredentials reads ONEMCP_SERVICE_<SLUG>_{BASE_URL,HEADER,PATTERN,TOKEN}
// quadruplets, one set per configured downstream service.
func loadCredentials() map[string]CredentialConfig {
	creds := make(map[string]CredentialConfig)
	prefix := "ONEMCP_SERVICE_"
	suffix := "_BASE_URL"
	for _, kv := range os.Environ() {
		key, value, found := splitEnv(kv)
		if !found || len(key) <= len(prefix)+len(suffix) {
			continue
		}
		if !hasPrefix(key, prefix) || !hasSuffix(key, suffix) {
			continue
		}
		slug := key[len(prefix) : len(key)-len(suffix)]
		creds[slug] = CredentialConfig{
			BaseURL:    value,
			HeaderName: os.Getenv(prefix + slug + "_HEADER"),
			Pattern:    os.Getenv(prefix + slug + "_PATTERN"),
			Token:      os.Getenv(prefix + slug + "_TOKEN"),
		}
	}
	return creds
}

func splitEnv(kv string) (key, value string, ok bool) {
	for i := 0; i < len(kv); i++ {
		if kv[i] == '=' {
			return kv[:i], kv[i+1:], true
		}
	}
	return "", "", false
}

func hasPrefix(s, p string) bool { return len(s) >= len(p) && s[:len(p)] == p }
func hasSuffix(s, sfx string) bool {
	return len(s) >= len(sfx) && s[len(s)-len(sfx):] == sfx
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

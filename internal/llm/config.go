package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider names accepted by Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// Config holds all LLM provider configuration.
type Config struct {
	Provider string

	Anthropic  ProviderConfig
	OpenAI     ProviderConfig
	Gemini     ProviderConfig
	OpenRouter ProviderConfig
	Retry      RetryConfig

	// Timeout bounds a single generation including retries.
	Timeout time.Duration
}

// ProviderConfig is the per-vendor key, model and optional endpoint.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig uses the mock provider so the sandbox runs without keys.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderMock,
		Anthropic:  ProviderConfig{Model: "claude-haiku"},
		OpenAI:     ProviderConfig{Model: "gpt-4o-mini"},
		Gemini:     ProviderConfig{Model: "gemini-flash"},
		OpenRouter: ProviderConfig{Model: "google/gemini-2.0-flash-exp", BaseURL: defaultOpenRouterBaseURL},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 2 * time.Minute,
	}
}

// ConfigFromEnv overlays COGNIGEN_* variables on DefaultConfig.
func ConfigFromEnv() Config {
	return configFrom(os.Getenv)
}

func configFrom(getenv func(string) string) Config {
	cfg := DefaultConfig()

	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	set(&cfg.Provider, "COGNIGEN_LLM_PROVIDER")
	vendors := []struct {
		prefix string
		pc     *ProviderConfig
	}{
		{"ANTHROPIC", &cfg.Anthropic},
		{"OPENAI", &cfg.OpenAI},
		{"GEMINI", &cfg.Gemini},
		{"OPENROUTER", &cfg.OpenRouter},
	}
	for _, v := range vendors {
		set(&v.pc.APIKey, "COGNIGEN_"+v.prefix+"_API_KEY")
		set(&v.pc.Model, "COGNIGEN_"+v.prefix+"_MODEL")
		set(&v.pc.BaseURL, "COGNIGEN_"+v.prefix+"_BASE_URL")
	}

	if d := getenv("COGNIGEN_LLM_TIMEOUT"); d != "" {
		if parsed, err := time.ParseDuration(d); err == nil {
			cfg.Timeout = parsed
		}
	}

	// Fall back to the vendors' own variables when no provider was chosen.
	if getenv("COGNIGEN_LLM_PROVIDER") == "" {
		discover(&cfg, getenv)
	}
	return cfg
}

// discover probes the standard vendor key variables in priority order
// and selects the first provider found.
func discover(cfg *Config, getenv func(string) string) {
	probes := []struct {
		env      string
		provider string
		pc       *ProviderConfig
	}{
		{"GEMINI_API_KEY", ProviderGemini, &cfg.Gemini},
		{"OPENAI_API_KEY", ProviderOpenAI, &cfg.OpenAI},
		{"ANTHROPIC_API_KEY", ProviderAnthropic, &cfg.Anthropic},
		{"OPENROUTER_API_KEY", ProviderOpenRouter, &cfg.OpenRouter},
	}
	for _, p := range probes {
		if k := getenv(p.env); k != "" {
			cfg.Provider = p.provider
			if p.pc.APIKey == "" {
				p.pc.APIKey = k
			}
			return
		}
	}
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	var pc ProviderConfig
	switch c.Provider {
	case ProviderMock:
		return nil
	case ProviderAnthropic:
		pc = c.Anthropic
	case ProviderOpenAI:
		pc = c.OpenAI
	case ProviderGemini:
		pc = c.Gemini
	case ProviderOpenRouter:
		pc = c.OpenRouter
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if pc.APIKey == "" {
		return fmt.Errorf("an API key is required for the %s provider", c.Provider)
	}
	return nil
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BaSui01/debateflow/types"
)

// Config is the complete debateflow configuration.
type Config struct {
	Debate  DebateConfig  `yaml:"debate" env:"DEBATE"`
	LLM     LLMConfig     `yaml:"llm" env:"LLM"`
	Store   StoreConfig   `yaml:"store" env:"STORE"`
	Dataset DatasetConfig `yaml:"dataset" env:"DATASET"`
	Log     LogConfig     `yaml:"log" env:"LOG"`
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`
}

// DebateConfig controls the pipeline itself.
type DebateConfig struct {
	// Participants are the model ids taking part in every debate. Each id
	// must have a matching provider (or run in mock mode).
	Participants []string `yaml:"participants" env:"PARTICIPANTS"`
	// Temperature for every model invocation.
	Temperature float64 `yaml:"temperature" env:"TEMPERATURE"`
	// JudgeThreshold is the minimum judge confidence for judge eligibility.
	JudgeThreshold float64 `yaml:"judge_threshold" env:"JUDGE_THRESHOLD"`
}

// ProviderConfig configures one OpenAI-compatible backend, bound to a
// participant by name.
type ProviderConfig struct {
	Name    string        `yaml:"name"`
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// LLMConfig configures the invocation layer shared by all providers.
type LLMConfig struct {
	// Mock replaces every provider with scripted responses, for dry runs
	// and local development without API keys.
	Mock bool `yaml:"mock" env:"MOCK"`
	// MaxTokens caps the completion length of every invocation.
	MaxTokens int `yaml:"max_tokens" env:"MAX_TOKENS"`
	// Timeout bounds each individual invocation.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// RateLimitRPS throttles invocations across the whole pipeline; zero
	// disables throttling.
	RateLimitRPS   float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	// Providers lists the per-participant backends.
	Providers []ProviderConfig `yaml:"providers"`
}

// Provider returns the provider configuration bound to the participant id.
func (c LLMConfig) Provider(name string) (ProviderConfig, bool) {
	for _, p := range c.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return ProviderConfig{}, false
}

// StoreConfig selects where finished debates are persisted.
type StoreConfig struct {
	// Backend is "file", "sqlite" or "none".
	Backend string `yaml:"backend" env:"BACKEND"`
	// Dir is the output directory for the file backend.
	Dir string `yaml:"dir" env:"DIR"`
	// Path is the database file for the sqlite backend.
	Path string `yaml:"path" env:"PATH"`
}

// DatasetConfig locates the problem dataset.
type DatasetConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format is "json" or "console".
	Format string `yaml:"format" env:"FORMAT"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Addr    string `yaml:"addr" env:"ADDR"`
}

// Default returns the built-in defaults. Participants and providers have no
// sensible default and stay empty.
func Default() *Config {
	return &Config{
		Debate: DebateConfig{
			Temperature:    0.1,
			JudgeThreshold: 0.7,
		},
		LLM: LLMConfig{
			MaxTokens:      4096,
			Timeout:        2 * time.Minute,
			RateLimitBurst: 1,
		},
		Store: StoreConfig{
			Backend: "file",
			Dir:     "results",
			Path:    "debates.db",
		},
		Dataset: DatasetConfig{
			Path: "problems.json",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Addr: ":9091",
		},
	}
}

// Validate checks the configuration for use by the pipeline.
func (c *Config) Validate() error {
	var errs []string

	if len(c.Debate.Participants) < types.SolverCount+1 {
		errs = append(errs, fmt.Sprintf("debate needs at least %d participants, got %d",
			types.SolverCount+1, len(c.Debate.Participants)))
	}
	if seen := duplicated(c.Debate.Participants); seen != "" {
		errs = append(errs, fmt.Sprintf("participant %q listed twice", seen))
	}
	if c.Debate.Temperature < 0 || c.Debate.Temperature > 2 {
		errs = append(errs, "temperature must be between 0 and 2")
	}
	if c.Debate.JudgeThreshold <= 0 || c.Debate.JudgeThreshold >= 1 {
		errs = append(errs, "judge_threshold must be in (0, 1)")
	}

	if !c.LLM.Mock {
		for _, id := range c.Debate.Participants {
			if _, ok := c.LLM.Provider(id); !ok {
				errs = append(errs, fmt.Sprintf("participant %q has no provider", id))
			}
		}
	}
	if c.LLM.RateLimitRPS < 0 {
		errs = append(errs, "rate_limit_rps cannot be negative")
	}

	switch c.Store.Backend {
	case "file", "sqlite", "none":
	default:
		errs = append(errs, fmt.Sprintf("unknown store backend %q", c.Store.Backend))
	}

	if len(errs) > 0 {
		return types.NewError(types.ErrConfiguration, strings.Join(errs, "; "))
	}
	return nil
}

func duplicated(ids []string) string {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return id
		}
		seen[id] = true
	}
	return ""
}

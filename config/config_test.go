package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/debateflow/types"
)

func validConfig() *Config {
	cfg := Default()
	cfg.Debate.Participants = []string{"gpt-1", "claude-2", "gemini-3", "llama-4"}
	cfg.LLM.Mock = true
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	t.Parallel()
	require.NoError(t, validConfig().Validate())
}

func TestValidate_TooFewParticipants(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Debate.Participants = []string{"a", "b", "c"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, types.ErrConfiguration, types.GetErrorCode(err))
	assert.Contains(t, err.Error(), "at least 4 participants")
}

func TestValidate_DuplicateParticipant(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Debate.Participants = []string{"a", "b", "a", "c"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"a" listed twice`)
}

func TestValidate_MissingProviderOutsideMockMode(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.LLM.Mock = false
	cfg.LLM.Providers = []ProviderConfig{
		{Name: "gpt-1"}, {Name: "claude-2"}, {Name: "gemini-3"},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"llama-4" has no provider`)
}

func TestValidate_ThresholdBounds(t *testing.T) {
	t.Parallel()

	for _, bad := range []float64{0, 1, -0.2, 1.5} {
		cfg := validConfig()
		cfg.Debate.JudgeThreshold = bad
		assert.Error(t, cfg.Validate(), "threshold %v", bad)
	}

	cfg := validConfig()
	cfg.Debate.JudgeThreshold = 0.7
	assert.NoError(t, cfg.Validate())
}

func TestValidate_UnknownStoreBackend(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Store.Backend = "redis"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown store backend "redis"`)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
debate:
  participants: [gpt-1, claude-2, gemini-3, llama-4]
  temperature: 0.3
llm:
  mock: true
  timeout: 30s
  providers:
    - name: gpt-1
      base_url: https://api.example.com
      model: gpt-4o
store:
  backend: sqlite
  path: out.db
`), 0o644))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"gpt-1", "claude-2", "gemini-3", "llama-4"}, cfg.Debate.Participants)
	assert.Equal(t, 0.3, cfg.Debate.Temperature)
	assert.Equal(t, 0.7, cfg.Debate.JudgeThreshold, "default survives partial file")
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "out.db", cfg.Store.Path)

	p, ok := cfg.LLM.Provider("gpt-1")
	require.True(t, ok)
	assert.Equal(t, "gpt-4o", p.Model)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
debate:
  participants: [a, b, c, d]
llm:
  mock: true
`), 0o644))

	t.Setenv("DEBATEFLOW_DEBATE_PARTICIPANTS", "w, x, y, z")
	t.Setenv("DEBATEFLOW_DEBATE_TEMPERATURE", "0.5")
	t.Setenv("DEBATEFLOW_STORE_BACKEND", "none")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"w", "x", "y", "z"}, cfg.Debate.Participants)
	assert.Equal(t, 0.5, cfg.Debate.Temperature)
	assert.Equal(t, "none", cfg.Store.Backend)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("DEBATEFLOW_DEBATE_PARTICIPANTS", "a, b, c, d")
	t.Setenv("DEBATEFLOW_LLM_MOCK", "true")

	cfg, err := NewLoader().WithConfigPath(filepath.Join(t.TempDir(), "absent.yaml")).Load()
	require.NoError(t, err)
	assert.Equal(t, 0.1, cfg.Debate.Temperature)
}

func TestLoad_ValidationFailureSurfaces(t *testing.T) {
	t.Setenv("DEBATEFLOW_DEBATE_PARTICIPANTS", "a, b")

	_, err := NewLoader().Load()
	require.Error(t, err)
	assert.Equal(t, types.ErrConfiguration, types.GetErrorCode(err))
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crosstalk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, "https://api.openai.com/v1", cfg.LLM.BaseURL)
	assert.Equal(t, 5, cfg.Relay.Rounds)
	assert.Equal(t, 500, cfg.Relay.RoundDelayMS)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, 1.0, cfg.Tracing.SamplingRate)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
tracing:
  enabled: true
  exporter: stdout
llm:
  model: gpt-4o-mini
agents:
  calculator:
    port: 8002
    instruction: "You are a calculator."
  partner:
    port: 2024
    static: true
relay:
  target_a: http://127.0.0.1:2024/
  target_b: http://localhost:8002/
  rounds: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "stdout", cfg.Tracing.Exporter)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 3, cfg.Relay.Rounds)
	assert.Len(t, cfg.Agents, 2)
	assert.Equal(t, "localhost", cfg.Agents["calculator"].Host)
	assert.True(t, cfg.Agents["partner"].Static)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("CROSSTALK_TEST_KEY", "sk-12345")
	t.Setenv("CROSSTALK_TEST_MODEL", "")

	path := writeConfig(t, `
llm:
  api_key: ${CROSSTALK_TEST_KEY}
  model: ${CROSSTALK_TEST_MODEL:-gpt-4o}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-12345", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
}

func TestLoad_UnknownField(t *testing.T) {
	path := writeConfig(t, "llm:\n  flavor: vanilla\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad level", "logging:\n  level: loud\n"},
		{"bad exporter", "tracing:\n  exporter: morse\n"},
		{"bad port", "agents:\n  calc:\n    port: 99999\n"},
		{"bad rounds", "relay:\n  rounds: -1\n"},
		{"auth without jwks", "auth:\n  enabled: true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("CROSSTALK_X", "value")

	assert.Equal(t, "value", ExpandEnvVars("${CROSSTALK_X}"))
	assert.Equal(t, "value", ExpandEnvVars("$CROSSTALK_X"))
	assert.Equal(t, "fallback", ExpandEnvVars("${CROSSTALK_UNSET_Y:-fallback}"))
	assert.Equal(t, "", ExpandEnvVars("${CROSSTALK_UNSET_Y}"))
	assert.Equal(t, "no vars here", ExpandEnvVars("no vars here"))
}

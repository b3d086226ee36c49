// Package config loads and validates the crosstalk configuration.
package config

import (
	"fmt"

	"github.com/agentwire/crosstalk/pkg/auth"
	"github.com/agentwire/crosstalk/pkg/observability"
)

// Config is the full configuration surface. All string values support
// ${VAR} and ${VAR:-default} environment expansion.
type Config struct {
	Logging LoggingConfig               `yaml:"logging" json:"logging"`
	Tracing observability.TracerConfig  `yaml:"tracing" json:"tracing"`
	Metrics observability.MetricsConfig `yaml:"metrics" json:"metrics"`
	Auth    auth.Config                 `yaml:"auth" json:"auth"`
	LLM     LLMConfig                   `yaml:"llm" json:"llm"`
	Agents  map[string]AgentConfig      `yaml:"agents" json:"agents"`
	Relay   RelayConfig                 `yaml:"relay" json:"relay"`
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // text or json
	File   string `yaml:"file" json:"file"`     // empty = stderr
}

// LLMConfig configures the chat-completions backend shared by all agents.
type LLMConfig struct {
	Provider    string  `yaml:"provider" json:"provider"` // "openai" or any compatible API
	Model       string  `yaml:"model" json:"model"`
	APIKey      string  `yaml:"api_key" json:"api_key"`
	BaseURL     string  `yaml:"base_url" json:"base_url"`
	Temperature float64 `yaml:"temperature" json:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens"`
	Timeout     int     `yaml:"timeout" json:"timeout"`         // seconds
	MaxRetries  int     `yaml:"max_retries" json:"max_retries"` // on 429/5xx
	RetryDelay  int     `yaml:"retry_delay" json:"retry_delay"` // seconds
}

// AgentConfig describes one hosted agent endpoint. The map key in
// Config.Agents is the agent name.
type AgentConfig struct {
	Host        string `yaml:"host" json:"host"`
	Port        int    `yaml:"port" json:"port"`
	Description string `yaml:"description" json:"description"`
	Instruction string `yaml:"instruction" json:"instruction"`
	// Static agents answer with the calculator tool directly, without an
	// LLM in the loop. Useful offline and in tests.
	Static bool `yaml:"static" json:"static"`
}

// RelayConfig configures the conversation relay driver.
type RelayConfig struct {
	TargetA        string `yaml:"target_a" json:"target_a"`
	TargetB        string `yaml:"target_b" json:"target_b"`
	Rounds         int    `yaml:"rounds" json:"rounds"`
	InitialMessage string `yaml:"initial_message" json:"initial_message"`
	RoundDelayMS   int    `yaml:"round_delay_ms" json:"round_delay_ms"`
	Timeout        int    `yaml:"timeout" json:"timeout"` // per-call, seconds; 0 = client default
	BearerToken    string `yaml:"bearer_token" json:"bearer_token"`
}

// DefaultInitialMessage opens the conversation when none is configured.
const DefaultInitialMessage = "Hello! I'm a relay agent. Can you help me calculate something? What is 2 + 2?"

// SetDefaults fills zero values with working defaults.
func (c *Config) SetDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = observability.DefaultServiceName
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = "otlp"
	}
	if c.Tracing.SamplingRate == 0 {
		c.Tracing.SamplingRate = 1.0
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o"
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.7
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 4096
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 60
	}
	if c.LLM.RetryDelay == 0 {
		c.LLM.RetryDelay = 2
	}

	for name, agent := range c.Agents {
		if agent.Host == "" {
			agent.Host = "localhost"
		}
		c.Agents[name] = agent
	}

	if c.Relay.Rounds == 0 {
		c.Relay.Rounds = 5
	}
	if c.Relay.RoundDelayMS == 0 {
		c.Relay.RoundDelayMS = 500
	}
	if c.Relay.InitialMessage == "" {
		c.Relay.InitialMessage = DefaultInitialMessage
	}
}

// Validate reports configuration errors after defaulting.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}

	switch c.Tracing.Exporter {
	case "otlp", "stdout":
	default:
		return fmt.Errorf("tracing.exporter: must be otlp or stdout, got %q", c.Tracing.Exporter)
	}
	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		return fmt.Errorf("tracing.sampling_rate: must be in [0,1], got %v", c.Tracing.SamplingRate)
	}

	if c.Auth.Enabled && c.Auth.JWKSURL == "" {
		return fmt.Errorf("auth.jwks_url: required when auth is enabled")
	}

	for name, agent := range c.Agents {
		if agent.Port <= 0 || agent.Port > 65535 {
			return fmt.Errorf("agents.%s.port: invalid port %d", name, agent.Port)
		}
	}

	if c.Relay.Rounds < 1 {
		return fmt.Errorf("relay.rounds: must be at least 1, got %d", c.Relay.Rounds)
	}
	if c.Relay.RoundDelayMS < 0 {
		return fmt.Errorf("relay.round_delay_ms: must not be negative")
	}

	return nil
}

// Package config loads assistant configuration from a YAML file, environment
// variables, and defaults via viper.
//
// Priority: config file > environment variables > defaults. Environment
// variables use the ASSISTANT_ prefix with underscores for nesting, for
// example ASSISTANT_LLM_OPENAI_API_KEY.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DefaultConfigFileName is the base name of the config file (assistant.yaml).
const DefaultConfigFileName = "assistant"

// Config holds all configuration for the assistant.
type Config struct {
	// LLM provider configuration
	LLM LLMConfig `mapstructure:"llm"`

	// Database configuration for the durable store substrate
	Database DatabaseConfig `mapstructure:"database"`

	// Conversation working-memory configuration
	Conversation ConversationConfig `mapstructure:"conversation"`

	// Agent runtime configuration
	Agent AgentConfig `mapstructure:"agent"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// LLMConfig holds model provider configuration.
type LLMConfig struct {
	Provider string `mapstructure:"provider"` // openai, anthropic, gemini, groq

	// OpenAI-specific (also used for any OpenAI-compatible endpoint)
	OpenAIAPIKey string `mapstructure:"openai_api_key"` // From env only
	OpenAIModel  string `mapstructure:"openai_model"`
	BaseURL      string `mapstructure:"base_url"` // Override for OpenAI-compatible providers

	// Anthropic-specific
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"` // From env only
	AnthropicModel  string `mapstructure:"anthropic_model"`

	// SummaryModel is the (usually cheaper) model used for conversation
	// summarization. Defaults to the main model when empty.
	SummaryModel string `mapstructure:"summary_model"`

	// Common generation parameters
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// DatabaseConfig holds the durable store configuration.
type DatabaseConfig struct {
	// Path is the SQLite database file. Empty means in-memory stores only.
	Path string `mapstructure:"path"`
}

// ConversationConfig holds working-memory tuning.
type ConversationConfig struct {
	// SummaryThreshold is the entry count past which summarization triggers.
	SummaryThreshold int `mapstructure:"summary_threshold"`

	// SummaryTail is the number of newest entries kept verbatim.
	SummaryTail int `mapstructure:"summary_tail"`

	// SeenCapacity bounds the processed-item dedup set.
	SeenCapacity int `mapstructure:"seen_capacity"`
}

// AgentConfig holds execution-agent runtime tuning.
type AgentConfig struct {
	// MaxToolIterations caps plan/act cycles per delegated task.
	MaxToolIterations int `mapstructure:"max_tool_iterations"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text, json
}

// Load reads configuration from cfgFile (or the standard search paths when
// empty), environment variables, and defaults.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.gmailassistant")
		v.SetConfigName(DefaultConfigFileName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file %s: %w", v.ConfigFileUsed(), err)
		}
		// No config file; defaults + env vars apply.
	}

	v.SetEnvPrefix("ASSISTANT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.openai_model", "gpt-4o")
	v.SetDefault("llm.anthropic_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 4096)

	v.SetDefault("database.path", "")

	v.SetDefault("conversation.summary_threshold", 100)
	v.SetDefault("conversation.summary_tail", 50)
	v.SetDefault("conversation.seen_capacity", 300)

	v.SetDefault("agent.max_tool_iterations", 8)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks the configuration for internal consistency and required
// provider credentials.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "gemini", "groq":
		if c.LLM.OpenAIAPIKey == "" {
			return fmt.Errorf("API key is required for provider %q (set ASSISTANT_LLM_OPENAI_API_KEY)", c.LLM.Provider)
		}
	case "anthropic":
		if c.LLM.AnthropicAPIKey == "" {
			return fmt.Errorf("anthropic API key is required (set ASSISTANT_LLM_ANTHROPIC_API_KEY)")
		}
	default:
		return fmt.Errorf("unsupported LLM provider: %s (must be openai, anthropic, gemini, or groq)", c.LLM.Provider)
	}

	if c.Conversation.SummaryThreshold <= 0 {
		return fmt.Errorf("conversation.summary_threshold must be positive")
	}
	if c.Conversation.SummaryTail < 0 || c.Conversation.SummaryTail >= c.Conversation.SummaryThreshold {
		return fmt.Errorf("conversation.summary_tail must be in [0, summary_threshold)")
	}
	if c.Conversation.SeenCapacity <= 0 {
		return fmt.Errorf("conversation.seen_capacity must be positive")
	}
	if c.Agent.MaxToolIterations <= 0 {
		return fmt.Errorf("agent.max_tool_iterations must be positive")
	}
	return nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.OpenAIModel)
	assert.Equal(t, 100, cfg.Conversation.SummaryThreshold)
	assert.Equal(t, 50, cfg.Conversation.SummaryTail)
	assert.Equal(t, 300, cfg.Conversation.SeenCapacity)
	assert.Equal(t, 8, cfg.Agent.MaxToolIterations)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "assistant.yaml")
	data := []byte(`
llm:
  provider: anthropic
  anthropic_model: claude-haiku-4-5
conversation:
  summary_threshold: 20
  summary_tail: 5
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "claude-haiku-4-5", cfg.LLM.AnthropicModel)
	assert.Equal(t, 20, cfg.Conversation.SummaryThreshold)
	assert.Equal(t, 5, cfg.Conversation.SummaryTail)
	// Untouched keys keep their defaults.
	assert.Equal(t, 300, cfg.Conversation.SeenCapacity)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ASSISTANT_LLM_OPENAI_API_KEY", "sk-test")
	t.Setenv("ASSISTANT_CONVERSATION_SUMMARY_THRESHOLD", "42")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.LLM.OpenAIAPIKey)
	assert.Equal(t, 42, cfg.Conversation.SummaryThreshold)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			LLM: LLMConfig{Provider: "openai", OpenAIAPIKey: "sk-test"},
			Conversation: ConversationConfig{
				SummaryThreshold: 100,
				SummaryTail:      50,
				SeenCapacity:     300,
			},
			Agent: AgentConfig{MaxToolIterations: 8},
		}
	}

	require.NoError(t, base().Validate())

	missingKey := base()
	missingKey.LLM.OpenAIAPIKey = ""
	assert.Error(t, missingKey.Validate())

	badProvider := base()
	badProvider.LLM.Provider = "bedrock"
	assert.Error(t, badProvider.Validate())

	badTail := base()
	badTail.Conversation.SummaryTail = 200
	assert.Error(t, badTail.Validate())

	badIterations := base()
	badIterations.Agent.MaxToolIterations = 0
	assert.Error(t, badIterations.Validate())
}

package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-chat/internal/config"
)

func TestNewFromConfig(t *testing.T) {
	c, err := NewFromConfig(&config.Config{
		LLMProvider:  config.ProviderOpenAI,
		OpenAIAPIKey: "sk-test",
		OpenAIModel:  "openai/gpt-4o-mini",
	})
	require.NoError(t, err)
	oa, ok := c.(*OpenAIClient)
	require.True(t, ok, "want *OpenAIClient, got %T", c)
	assert.Equal(t, "openai/gpt-4o-mini", oa.model)

	_, err = NewFromConfig(&config.Config{LLMProvider: "gemini"})
	assert.ErrorContains(t, err, "gemini")
}

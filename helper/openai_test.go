package helper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIConfiguration(t *testing.T) {
	t.Run("Defaults from environment", func(t *testing.T) {
		t.Setenv(EnvOpenAIKey, "sk-test")
		t.Setenv(EnvChatModel, "")
		t.Setenv(EnvOpenAIMaxRetries, "")

		config, err := NewOpenAIConfiguration()

		require.NoError(t, err)
		assert.Equal(t, "sk-test", config.APIKey)
		assert.Equal(t, DefaultChatModel, config.ChatModel)
		assert.Equal(t, DefaultVisionModel, config.VisionModel)
		assert.Equal(t, 3, config.MaxRetries)
		assert.Equal(t, 2*time.Second, config.RetryDelay)
	})

	t.Run("Overrides from environment", func(t *testing.T) {
		t.Setenv(EnvOpenAIKey, "sk-test")
		t.Setenv(EnvChatModel, "gpt-4o")
		t.Setenv(EnvOpenAIMaxRetries, "0")
		t.Setenv(EnvOpenAIBaseURL, "http://localhost:8080/v1")

		config, err := NewOpenAIConfiguration()

		require.NoError(t, err)
		assert.Equal(t, "gpt-4o", config.ChatModel)
		assert.Equal(t, 0, config.MaxRetries)
		assert.NotNil(t, config.NewClient())
	})

	t.Run("Missing API key", func(t *testing.T) {
		t.Setenv(EnvOpenAIKey, "")

		_, err := NewOpenAIConfiguration()

		assert.Error(t, err)
		assert.Contains(t, err.Error(), EnvOpenAIKey)
	})

	t.Run("Invalid retry count", func(t *testing.T) {
		t.Setenv(EnvOpenAIKey, "sk-test")
		t.Setenv(EnvOpenAIMaxRetries, "many")

		_, err := NewOpenAIConfiguration()

		assert.Error(t, err)
	})
}

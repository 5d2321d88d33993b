package helper

import (
	"fmt"
	"os"
	"strconv"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultChatModel is used for fusion, candidates and self-correction
	DefaultChatModel = "gpt-4o-mini"
	// DefaultVisionModel is used for image captioning
	DefaultVisionModel = "gpt-4o-mini"
	// DefaultEmbeddingModel is used by the OpenAI embedding backend
	DefaultEmbeddingModel = openai.SmallEmbedding3
)

// Environment variables read by NewOpenAIConfiguration
const (
	EnvOpenAIKey        = "OPENAI_API_KEY"
	EnvOpenAIBaseURL    = "OPENAI_BASE_URL"
	EnvChatModel        = "CAPTIONER_CHAT_MODEL"
	EnvVisionModel      = "CAPTIONER_VISION_MODEL"
	EnvOpenAIMaxRetries = "CAPTIONER_OPENAI_MAX_RETRIES"
)

// OpenAIConfiguration holds the settings of every OpenAI backed capability
type OpenAIConfiguration struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	VisionModel    string
	EmbeddingModel openai.EmbeddingModel
	MaxRetries     int
	RetryDelay     time.Duration
}

// NewOpenAIConfiguration reads the OpenAI configuration from the environment.
// The API key is required.
func NewOpenAIConfiguration() (*OpenAIConfiguration, error) {
	config := &OpenAIConfiguration{
		APIKey:         os.Getenv(EnvOpenAIKey),
		BaseURL:        os.Getenv(EnvOpenAIBaseURL),
		ChatModel:      getEnv(EnvChatModel, DefaultChatModel),
		VisionModel:    getEnv(EnvVisionModel, DefaultVisionModel),
		EmbeddingModel: DefaultEmbeddingModel,
		MaxRetries:     3,
		RetryDelay:     2 * time.Second,
	}

	if config.APIKey == "" {
		return nil, NewError("openai configuration", fmt.Errorf("%s must be set", EnvOpenAIKey))
	}

	if v := os.Getenv(EnvOpenAIMaxRetries); v != "" {
		retries, err := strconv.Atoi(v)
		if err != nil || retries < 0 {
			return nil, NewError("openai configuration", fmt.Errorf("%s must be a non-negative integer, got %q", EnvOpenAIMaxRetries, v))
		}
		config.MaxRetries = retries
	}

	return config, nil
}

// NewClient builds a go-openai client for the configuration
func (c *OpenAIConfiguration) NewClient() *openai.Client {
	clientConfig := openai.DefaultConfig(c.APIKey)
	if c.BaseURL != "" {
		clientConfig.BaseURL = c.BaseURL
	}
	return openai.NewClientWithConfig(clientConfig)
}

package captioning

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/siherrmann/captioner/helper"
)

// DefaultVisionPrompt asks for a single short caption
const DefaultVisionPrompt = "Describe this image in one short, factual sentence. Return only the caption."

// OpenAIVisionModel captions images with an OpenAI chat model that accepts image input
type OpenAIVisionModel struct {
	name       string
	client     *openai.Client
	model      string
	prompt     string
	maxRetries int
	retryDelay time.Duration
}

// NewOpenAIVisionModel creates a vision captioning model from the OpenAI configuration
func NewOpenAIVisionModel(name string, config *helper.OpenAIConfiguration) (*OpenAIVisionModel, error) {
	if config == nil {
		return nil, helper.DependencyInit(name, fmt.Errorf("openai configuration is nil"))
	}
	if config.APIKey == "" {
		return nil, helper.DependencyInit(name, fmt.Errorf("OpenAI API key is required"))
	}

	return &OpenAIVisionModel{
		name:       name,
		client:     config.NewClient(),
		model:      config.VisionModel,
		prompt:     DefaultVisionPrompt,
		maxRetries: config.MaxRetries,
		retryDelay: config.RetryDelay,
	}, nil
}

// Name returns the source name
func (m *OpenAIVisionModel) Name() string {
	return m.name
}

// Caption sends the image as a base64 data URL and returns the answer
func (m *OpenAIVisionModel) Caption(ctx context.Context, imagePath string) (string, error) {
	dataURL, err := imageDataURL(imagePath)
	if err != nil {
		return "", err
	}

	var caption string
	err = helper.Retry(ctx, m.maxRetries, m.retryDelay, func(ctx context.Context) error {
		resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: m.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role: openai.ChatMessageRoleUser,
					MultiContent: []openai.ChatMessagePart{
						{
							Type: openai.ChatMessagePartTypeText,
							Text: m.prompt,
						},
						{
							Type: openai.ChatMessagePartTypeImageURL,
							ImageURL: &openai.ChatMessageImageURL{
								URL:    dataURL,
								Detail: openai.ImageURLDetailLow,
							},
						},
					},
				},
			},
			Temperature: 0.1,
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("no completion choices returned")
		}
		caption = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	})
	if err != nil {
		return "", err
	}

	return caption, nil
}

func imageDataURL(imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", helper.NewError("read image", err)
	}
	if len(data) == 0 {
		return "", helper.InvalidInput("image %s is empty", imagePath)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", helper.InvalidInput("file %s is not an image (%s)", imagePath, mime)
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data)), nil
}

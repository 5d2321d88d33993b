package refinement

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/siherrmann/captioner/helper"
	"github.com/siherrmann/captioner/model"
)

// DefaultCandidateCount is the number of refinements proposed for Tree of Thoughts
const DefaultCandidateCount = 3

const systemPrompt = `You are an expert image caption editor. You never see the image.
You only work with captions written by several vision models and you must not invent objects,
colors or actions that none of them mention.`

// OpenAIClient refines captions with an OpenAI chat model
type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	candidateCount int
	maxRetries     int
	retryDelay     time.Duration
}

// Option configures an OpenAIClient
type Option func(*OpenAIClient)

// WithCandidateCount sets how many candidates GenerateCandidates asks for
func WithCandidateCount(n int) Option {
	return func(c *OpenAIClient) {
		if n > 0 {
			c.candidateCount = n
		}
	}
}

// NewOpenAIClient creates a refinement client from the OpenAI configuration
func NewOpenAIClient(config *helper.OpenAIConfiguration, opts ...Option) (*OpenAIClient, error) {
	if config == nil {
		return nil, helper.DependencyInit("refinement", fmt.Errorf("openai configuration is nil"))
	}
	if config.APIKey == "" {
		return nil, helper.DependencyInit("refinement", fmt.Errorf("OpenAI API key is required"))
	}

	c := &OpenAIClient{
		client:         config.NewClient(),
		chatModel:      config.ChatModel,
		candidateCount: DefaultCandidateCount,
		maxRetries:     config.MaxRetries,
		retryDelay:     config.RetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Fuse merges all captions into one caption anchored on the consensus caption
func (c *OpenAIClient) Fuse(ctx context.Context, captions model.CaptionSet, consensusCaption string) (string, error) {
	prompt := fmt.Sprintf(`Captions from different vision models:
%s
Consensus caption (most consistent with the others): %s

Write ONE fluent caption of at most 20 words that keeps what the captions agree on
and drops details only one model mentions. Return only the caption.`, formatCaptions(captions), consensusCaption)

	var fused string
	err := c.complete(ctx, prompt, 0.3, func(content string) error {
		fused = cleanCaption(content)
		if fused == "" {
			return fmt.Errorf("empty fused caption")
		}
		return nil
	})
	if err != nil {
		return "", helper.DependencyCall("fuse captions", err)
	}

	return fused, nil
}

// GenerateCandidates asks for several alternative captions as a JSON array
func (c *OpenAIClient) GenerateCandidates(ctx context.Context, captions model.CaptionSet, consensusCaption string) ([]string, error) {
	prompt := fmt.Sprintf(`Captions from different vision models:
%s
Consensus caption (most consistent with the others): %s

Think of %d different ways to describe the image faithfully, each at most 20 words.
Return ONLY a JSON array of %d strings. No additional text.`, formatCaptions(captions), consensusCaption, c.candidateCount, c.candidateCount)

	var candidates []string
	err := c.complete(ctx, prompt, 0.8, func(content string) error {
		parsed, err := ParseCandidates(content)
		if err != nil {
			return err
		}
		candidates = parsed
		return nil
	})
	if err != nil {
		return nil, helper.DependencyCall("generate candidates", err)
	}

	return candidates, nil
}

// SelfCorrect fixes grammar and removes unsupported claims from a caption
func (c *OpenAIClient) SelfCorrect(ctx context.Context, caption string) (string, error) {
	prompt := fmt.Sprintf(`Review this image caption: %s

Fix grammar and spelling, remove speculation and redundant words, and keep the meaning.
Return only the corrected caption.`, caption)

	var corrected string
	err := c.complete(ctx, prompt, 0.1, func(content string) error {
		corrected = cleanCaption(content)
		if corrected == "" {
			return fmt.Errorf("empty corrected caption")
		}
		return nil
	})
	if err != nil {
		return "", helper.DependencyCall("self-correct caption", err)
	}

	return corrected, nil
}

// complete runs one chat completion with retries; parse failures are retried as well
func (c *OpenAIClient) complete(ctx context.Context, prompt string, temperature float32, parse func(content string) error) error {
	return helper.Retry(ctx, c.maxRetries, c.retryDelay, func(ctx context.Context) error {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.chatModel,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: temperature,
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("no completion choices returned")
		}
		return parse(resp.Choices[0].Message.Content)
	})
}

// ParseCandidates reads a JSON array of captions, tolerating a markdown code fence.
// Blank entries are dropped and at least one candidate is required.
func ParseCandidates(content string) ([]string, error) {
	content = stripCodeFence(content)

	var raw []string
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	candidates := make([]string, 0, len(raw))
	for _, candidate := range raw {
		if candidate = cleanCaption(candidate); candidate != "" {
			candidates = append(candidates, candidate)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidates returned")
	}

	return candidates, nil
}

func formatCaptions(captions model.CaptionSet) string {
	var b strings.Builder
	for _, caption := range captions {
		fmt.Fprintf(&b, "- %s: %s\n", caption.Source, caption.Text)
	}
	return b.String()
}

func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	if i := strings.Index(content, "\n"); i != -1 {
		content = content[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(content), "```"))
}

// cleanCaption trims whitespace and wrapping quotes
func cleanCaption(caption string) string {
	caption = strings.TrimSpace(caption)
	caption = strings.Trim(caption, "\"'`")
	return strings.TrimSpace(caption)
}

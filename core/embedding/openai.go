package embedding

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// NewOpenAIProvider creates a provider backed by the OpenAI embeddings endpoint.
// Vectors are re-ordered by the index the API reports.
func NewOpenAIProvider(client *openai.Client, model openai.EmbeddingModel) *Provider {
	if model == "" {
		model = openai.SmallEmbedding3
	}
	name := "openai/" + string(model)

	return NewProvider(name, func() (EmbedFunc, func() error, error) {
		if client == nil {
			return nil, nil, fmt.Errorf("OpenAI client is nil")
		}

		embed := func(ctx context.Context, texts []string) ([][]float32, error) {
			resp, err := client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
				Input: texts,
				Model: model,
			})
			if err != nil {
				return nil, err
			}

			vectors := make([][]float32, len(texts))
			for _, data := range resp.Data {
				if data.Index < 0 || data.Index >= len(texts) {
					return nil, fmt.Errorf("embedding index %d out of range", data.Index)
				}
				vectors[data.Index] = data.Embedding
			}
			for i, v := range vectors {
				if v == nil {
					return nil, fmt.Errorf("no embedding returned for text %d", i)
				}
			}

			return vectors, nil
		}

		return embed, nil, nil
	})
}

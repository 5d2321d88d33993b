package embedding

import (
	"context"
	"fmt"

	"github.com/knights-analytics/hugot"
	"github.com/siherrmann/captioner/helper"
)

// DefaultModelName is the sentence transformer used for caption agreement.
// It produces 384-dimensional embeddings.
const DefaultModelName = "sentence-transformers/all-MiniLM-L6-v2"

// DefaultDimension is the embedding size of DefaultModelName
const DefaultDimension = 384

// NewHugotProvider creates a provider backed by a hugot feature extraction
// pipeline. The model is downloaded and loaded on first use.
func NewHugotProvider(modelName string) *Provider {
	if modelName == "" {
		modelName = DefaultModelName
	}
	return NewProvider(modelName, hugotInit(modelName))
}

// NewDefaultProvider creates the all-MiniLM-L6-v2 provider
func NewDefaultProvider() *Provider {
	return NewHugotProvider(DefaultModelName)
}

func hugotInit(modelName string) InitFunc {
	return func() (EmbedFunc, func() error, error) {
		modelPath, err := helper.PrepareModel(modelName, "onnx/model.onnx")
		if err != nil {
			return nil, nil, err
		}

		// Go backend, no native onnxruntime required
		session, err := hugot.NewGoSession()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create hugot session: %w", err)
		}

		config := hugot.FeatureExtractionConfig{
			ModelPath: modelPath,
			Name:      "caption-embedder-pipeline",
		}
		sentencePipeline, err := hugot.NewPipeline(session, config)
		if err != nil {
			if destroyErr := session.Destroy(); destroyErr != nil {
				return nil, nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
			}
			return nil, nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
		}

		embed := func(ctx context.Context, texts []string) ([][]float32, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			result, err := sentencePipeline.RunPipeline(texts)
			if err != nil {
				return nil, fmt.Errorf("failed to generate embeddings: %w", err)
			}

			return result.Embeddings, nil
		}

		return embed, session.Destroy, nil
	}
}

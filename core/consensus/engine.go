package consensus

import (
	"context"
	"fmt"

	"github.com/siherrmann/captioner/core/embedding"
	"github.com/siherrmann/captioner/helper"
	"github.com/siherrmann/captioner/model"
)

// Engine selects the caption that agrees most with all others
type Engine struct {
	embedder embedding.Embedder
}

// NewEngine creates a new consensus engine on top of an embedding capability
func NewEngine(embedder embedding.Embedder) *Engine {
	return &Engine{
		embedder: embedder,
	}
}

// ComputeConsensus embeds all captions in one batch, builds the pairwise cosine
// similarity matrix and picks the source with the highest mean similarity to
// all sources, itself included. Ties go to the source that comes first.
func (e *Engine) ComputeConsensus(ctx context.Context, captions model.CaptionSet) (*model.ConsensusResult, error) {
	if captions.Len() == 0 {
		return nil, helper.InvalidInput("consensus over an empty caption set")
	}

	sources := captions.Sources()
	texts := captions.Texts()

	vectors, err := e.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, helper.NewError("embed captions", err)
	}
	if len(vectors) != len(texts) {
		return nil, helper.DependencyCall("embedder", fmt.Errorf("embedding count mismatch: got %d embeddings for %d captions", len(vectors), len(texts)))
	}

	matrix := embedding.SimilarityMatrix(vectors)
	means := RowMeans(matrix)

	scores := make([]model.SourceScore, len(sources))
	for i, source := range sources {
		scores[i] = model.SourceScore{Source: source, Score: means[i]}
	}

	best := ArgMax(means)

	return &model.ConsensusResult{
		BestSource:       sources[best],
		BestCaption:      texts[best],
		Scores:           scores,
		SimilarityMatrix: matrix,
	}, nil
}

// RowMeans returns the mean of every matrix row
func RowMeans(matrix [][]float64) []float64 {
	means := make([]float64, len(matrix))
	for i, row := range matrix {
		if len(row) == 0 {
			continue
		}
		var sum float64
		for _, v := range row {
			sum += v
		}
		means[i] = sum / float64(len(row))
	}
	return means
}

// ArgMax returns the index of the largest value, the lowest index on ties and -1 for no values
func ArgMax(values []float64) int {
	best := -1
	for i, v := range values {
		if best == -1 || v > values[best] {
			best = i
		}
	}
	return best
}

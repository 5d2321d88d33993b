package selection

import (
	"context"
	"errors"
	"testing"

	"github.com/siherrmann/captioner/core/embedding"
	"github.com/siherrmann/captioner/helper"
	"github.com/siherrmann/captioner/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSelector() *Selector {
	return NewSelector(embedding.NewHashingProvider(0))
}

func TestLengthPenalty(t *testing.T) {
	tests := []struct {
		name     string
		tokens   int
		expected float64
	}{
		{"No tokens", 0, 0},
		{"Short caption", 8, 0},
		{"Exactly twenty tokens", 20, 0},
		{"Twenty-one tokens", 21, 1.0 / 30},
		{"Twenty-six tokens", 26, 0.2},
		{"Capped above twenty-six", 80, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, LengthPenalty(tt.tokens), 1e-9)
		})
	}
}

func TestSelectBest(t *testing.T) {
	ctx := context.Background()

	t.Run("Identical short candidate beats long rambling one", func(t *testing.T) {
		candidates := []string{
			"a cat on a mat",
			"a very long rambling description of a cat sitting on a mat in the sun for a very long time indeed and more words",
		}

		selection, err := newTestSelector().SelectBest(ctx, "a cat on a mat", candidates)

		require.NoError(t, err)
		assert.Equal(t, "cand_1", selection.Picked)
		assert.Equal(t, 0, selection.PickedIndex)
		assert.Equal(t, "a cat on a mat", selection.PickedCaption)
		assert.InDelta(t, 1.0, selection.SimilarityToConsensus[0].Score, 1e-6)
		assert.Less(t, selection.FinalScore[1].Score, selection.SimilarityToConsensus[1].Score, "Long candidate should be penalized")
	})

	t.Run("Labels and candidates keep input order", func(t *testing.T) {
		candidates := []string{"third best", "a dog in a park", "something else"}

		selection, err := newTestSelector().SelectBest(ctx, "a dog in a park", candidates)

		require.NoError(t, err)
		assert.Equal(t, candidates, selection.Candidates)
		for i := range candidates {
			assert.Equal(t, model.CandidateLabel(i), selection.SimilarityToConsensus[i].Label)
			assert.Equal(t, model.CandidateLabel(i), selection.FinalScore[i].Label)
		}
		assert.Equal(t, "cand_2", selection.Picked)
	})

	t.Run("Ties go to the lowest index", func(t *testing.T) {
		selection, err := newTestSelector().SelectBest(ctx, "a cat", []string{"a dog", "a dog"})

		require.NoError(t, err)
		assert.Equal(t, "cand_1", selection.Picked)
	})

	t.Run("Near duplicate outranks unrelated candidate", func(t *testing.T) {
		selection, err := newTestSelector().SelectBest(ctx, "a dog running in a park", []string{
			"a bowl of fruit on a table",
			"a dog runs in a park",
		})

		require.NoError(t, err)
		assert.Equal(t, "cand_2", selection.Picked)
	})

	t.Run("Returned candidates are a copy", func(t *testing.T) {
		candidates := []string{"a cat"}

		selection, err := newTestSelector().SelectBest(ctx, "a cat", candidates)
		require.NoError(t, err)
		selection.Candidates[0] = "changed"

		assert.Equal(t, "a cat", candidates[0])
	})
}

func TestSelectBestErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty candidate list is invalid input", func(t *testing.T) {
		_, err := newTestSelector().SelectBest(ctx, "a cat", nil)

		assert.ErrorIs(t, err, helper.ErrInvalidInput)
	})

	t.Run("Embedding failure propagates without retry", func(t *testing.T) {
		calls := 0
		provider := embedding.NewStaticProvider("failing", func(ctx context.Context, texts []string) ([][]float32, error) {
			calls++
			return nil, errors.New("timeout")
		})

		_, err := NewSelector(provider).SelectBest(ctx, "a cat", []string{"a cat"})

		assert.ErrorIs(t, err, helper.ErrDependencyCall)
		assert.Equal(t, 1, calls)
	})
}

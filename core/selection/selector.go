package selection

import (
	"context"
	"fmt"
	"strings"

	"github.com/siherrmann/captioner/core/consensus"
	"github.com/siherrmann/captioner/core/embedding"
	"github.com/siherrmann/captioner/helper"
	"github.com/siherrmann/captioner/model"
)

const (
	// PenaltyFreeTokens is the candidate length up to which no penalty applies
	PenaltyFreeTokens = 20
	// PenaltyTokenSpan is the number of extra tokens over which the penalty grows by one
	PenaltyTokenSpan = 30.0
	// MaxPenalty caps the length penalty
	MaxPenalty = 0.2
)

// Selector picks the refined candidate closest to a reference caption
type Selector struct {
	embedder embedding.Embedder
}

// NewSelector creates a new candidate selector
func NewSelector(embedder embedding.Embedder) *Selector {
	return &Selector{
		embedder: embedder,
	}
}

// SelectBest scores each candidate by its cosine similarity to the reference
// minus a length penalty and picks the highest score, the lowest index on ties.
// Candidates and scores keep input order.
func (s *Selector) SelectBest(ctx context.Context, reference string, candidates []string) (*model.CandidateSelection, error) {
	if len(candidates) == 0 {
		return nil, helper.InvalidInput("candidate selection over an empty candidate list")
	}

	// Reference is always index 0
	texts := make([]string, 0, len(candidates)+1)
	texts = append(texts, reference)
	texts = append(texts, candidates...)

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, helper.NewError("embed candidates", err)
	}
	if len(vectors) != len(texts) {
		return nil, helper.DependencyCall("embedder", fmt.Errorf("embedding count mismatch: got %d embeddings for %d texts", len(vectors), len(texts)))
	}

	selection := &model.CandidateSelection{
		Candidates:            append([]string(nil), candidates...),
		SimilarityToConsensus: make([]model.LabeledScore, len(candidates)),
		FinalScore:            make([]model.LabeledScore, len(candidates)),
	}

	finals := make([]float64, len(candidates))
	for i, candidate := range candidates {
		label := model.CandidateLabel(i)
		similarity := embedding.CosineSimilarity(vectors[0], vectors[i+1])
		finals[i] = similarity - LengthPenalty(len(strings.Fields(candidate)))

		selection.SimilarityToConsensus[i] = model.LabeledScore{Label: label, Score: similarity}
		selection.FinalScore[i] = model.LabeledScore{Label: label, Score: finals[i]}
	}

	best := consensus.ArgMax(finals)
	selection.Picked = model.CandidateLabel(best)
	selection.PickedIndex = best
	selection.PickedCaption = candidates[best]

	return selection, nil
}

// LengthPenalty returns clamp((tokens-20)/30, 0, 0.2)
func LengthPenalty(tokens int) float64 {
	penalty := float64(tokens-PenaltyFreeTokens) / PenaltyTokenSpan
	if penalty < 0 {
		return 0
	}
	if penalty > MaxPenalty {
		return MaxPenalty
	}
	return penalty
}

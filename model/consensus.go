package model

// SourceScore is the mean similarity of one source to all sources
type SourceScore struct {
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// ConsensusResult is the outcome of the consensus over a CaptionSet.
// Scores and SimilarityMatrix follow the CaptionSet order.
type ConsensusResult struct {
	BestSource       string        `json:"best_model"`
	BestCaption      string        `json:"best_caption"`
	Scores           []SourceScore `json:"scores"`
	SimilarityMatrix [][]float64   `json:"similarity_matrix"`
}

// Score returns the mean similarity of a source
func (r *ConsensusResult) Score(source string) (float64, bool) {
	for _, s := range r.Scores {
		if s.Source == source {
			return s.Score, true
		}
	}
	return 0, false
}

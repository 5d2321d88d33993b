package model

import "fmt"

// LabeledScore is a score keyed by a positional candidate label (cand_1, cand_2, ...)
type LabeledScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// CandidateSelection is the outcome of picking one refined candidate against a reference
type CandidateSelection struct {
	Candidates            []string       `json:"candidates"`
	SimilarityToConsensus []LabeledScore `json:"similarity_to_consensus"`
	FinalScore            []LabeledScore `json:"final_score"`
	Picked                string         `json:"picked"`
	PickedIndex           int            `json:"picked_index"`
	PickedCaption         string         `json:"picked_caption"`
}

// CandidateLabel returns the 1-based label for the candidate at index i
func CandidateLabel(i int) string {
	return fmt.Sprintf("cand_%d", i+1)
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// Run is a persisted pipeline run
type Run struct {
	ID           int64     `json:"id"`
	RID          uuid.UUID `json:"rid"`
	ImageName    string    `json:"image_name"`
	BestSource   string    `json:"best_source"`
	FinalCaption string    `json:"final_caption"`
	Explanation  string    `json:"explanation"`
	Metadata     Metadata  `json:"metadata,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// StoredCaption is a persisted source caption with its embedding
type StoredCaption struct {
	ID             int64     `json:"id"`
	RunID          int64     `json:"run_id"`
	RunRID         uuid.UUID `json:"run_rid"`
	Source         string    `json:"source"`
	Text           string    `json:"text"`
	Embedding      []float32 `json:"embedding,omitempty"`
	ConsensusScore float64   `json:"consensus_score"`
	CreatedAt      time.Time `json:"created_at"`
	// Results
	Similarity float64 `json:"similarity,omitempty"`
}

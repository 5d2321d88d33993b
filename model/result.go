package model

import (
	"time"

	"github.com/google/uuid"
)

// PipelineResult is the single contract a front-end may depend on
type PipelineResult struct {
	RunID        uuid.UUID           `json:"run_id"`
	ImageName    string              `json:"image_name,omitempty"`
	Captions     CaptionSet          `json:"captions"`
	Consensus    *ConsensusResult    `json:"consensus"`
	FinalCaption string              `json:"final_caption"`
	Evaluation   Evaluation          `json:"evaluation"`
	ToTDebug     *CandidateSelection `json:"tot_debug"`
	Explanation  string              `json:"agent_explanation"`
	CreatedAt    time.Time           `json:"created_at"`
}

package pipeline

import (
	"errors"
	"fmt"

	"github.com/siherrmann/captioner/helper"
)

// Stage names one step of a pipeline run
type Stage string

const (
	StageGenerateCaptions Stage = "GENERATE_CAPTIONS"
	StageConsensus        Stage = "CONSENSUS"
	StageToTCandidates    Stage = "TOT_CANDIDATES"
	StageToTSelect        Stage = "TOT_SELECT"
	StageDirectFusion     Stage = "DIRECT_FUSION"
	StageSelfCorrect      Stage = "SELF_CORRECT"
	StageEvaluate         Stage = "EVALUATE"
	StageExplain          Stage = "EXPLAIN"
	StageDone             Stage = "DONE"
)

// StageError is the single terminal error of a failed run
type StageError struct {
	Stage  Stage
	Source string
	Err    error
}

// newStageError wraps err for a stage and picks up the failing source if one is attributed
func newStageError(stage Stage, err error) *StageError {
	stageErr := &StageError{Stage: stage, Err: err}
	var sourceErr *helper.SourceError
	if errors.As(err, &sourceErr) {
		stageErr.Source = sourceErr.Source
	}
	return stageErr
}

func (e *StageError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("stage %s failed for %s: %v", e.Stage, e.Source, e.Err)
	}
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/siherrmann/captioner/core/embedding"
	"github.com/siherrmann/captioner/helper"
	"github.com/siherrmann/captioner/model"
)

// Recorder persists finished pipeline runs with their source captions
type Recorder struct {
	runs     *RunsDBHandler
	captions *CaptionsDBHandler
	embedder embedding.Embedder
	log      *slog.Logger
}

// NewRecorder creates the run and caption handlers on db.
// The embedder must produce vectors of embeddingDim dimensions.
func NewRecorder(db *helper.Database, embedder embedding.Embedder, embeddingDim int, force bool) (*Recorder, error) {
	if embedder == nil {
		return nil, helper.DependencyInit("recorder embedder", fmt.Errorf("embedder is nil"))
	}

	runs, err := NewRunsDBHandler(db, force)
	if err != nil {
		return nil, fmt.Errorf("failed to create runs handler: %w", err)
	}

	captions, err := NewCaptionsDBHandler(db, embeddingDim, force)
	if err != nil {
		return nil, fmt.Errorf("failed to create captions handler: %w", err)
	}

	return &Recorder{
		runs:     runs,
		captions: captions,
		embedder: embedder,
		log:      db.Logger,
	}, nil
}

// Runs returns the runs handler
func (r *Recorder) Runs() *RunsDBHandler {
	return r.runs
}

// Captions returns the captions handler
func (r *Recorder) Captions() *CaptionsDBHandler {
	return r.captions
}

// Record stores the run and every source caption with its embedding and consensus score.
// If a caption cannot be stored the run is removed again.
func (r *Recorder) Record(ctx context.Context, result *model.PipelineResult) error {
	if result == nil || result.Consensus == nil {
		return helper.InvalidInput("pipeline result without consensus")
	}

	metadata, err := model.MetadataFromResult(result)
	if err != nil {
		return err
	}

	run := &model.Run{
		RID:          result.RunID,
		ImageName:    result.ImageName,
		BestSource:   result.Consensus.BestSource,
		FinalCaption: result.FinalCaption,
		Explanation:  result.Explanation,
		Metadata:     metadata,
	}

	vectors, err := r.embedder.Embed(ctx, result.Captions.Texts())
	if err != nil {
		return helper.NewError("embed captions", err)
	}
	if len(vectors) != result.Captions.Len() {
		return helper.DependencyCall("embedding", fmt.Errorf("got %d vectors for %d captions", len(vectors), result.Captions.Len()))
	}

	err = r.runs.InsertRun(run)
	if err != nil {
		return helper.NewError("insert run", err)
	}

	for i, c := range result.Captions {
		score, _ := result.Consensus.Score(c.Source)
		caption := &model.StoredCaption{
			RunID:          run.ID,
			Source:         c.Source,
			Text:           c.Text,
			Embedding:      vectors[i],
			ConsensusScore: score,
		}

		err = r.captions.InsertCaption(caption)
		if err != nil {
			if deleteErr := r.runs.DeleteRun(run.RID); deleteErr != nil {
				r.log.Warn("Failed to remove incomplete run", slog.String("run_id", run.RID.String()), slog.Any("error", deleteErr))
			}
			return helper.NewError("insert caption", helper.NewSourceError(c.Source, err))
		}
	}

	r.log.Debug("Recorded run", slog.String("run_id", run.RID.String()), slog.Int("captions", result.Captions.Len()))

	return nil
}

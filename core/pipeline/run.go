package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/captioner/core/explanation"
	"github.com/siherrmann/captioner/helper"
	"github.com/siherrmann/captioner/model"
)

// Run takes one image through every enabled stage and returns the complete
// result, or a *StageError and no result when any stage fails
func (p *Pipeline) Run(ctx context.Context, image model.Image) (*model.PipelineResult, error) {
	return p.RunWithConfig(ctx, image, p.Config)
}

// RunWithConfig is Run with stage switches for this run only
func (p *Pipeline) RunWithConfig(ctx context.Context, image model.Image, config model.PipelineConfig) (*model.PipelineResult, error) {
	if strings.TrimSpace(image.Path) == "" {
		return nil, newStageError(StageGenerateCaptions, helper.InvalidInput("image path is empty"))
	}

	runID := uuid.New()
	base := p.log
	if base == nil {
		base = slog.Default()
	}
	logger := base.With(slog.String("run_id", runID.String()), slog.String("image", image.Name))

	// GENERATE_CAPTIONS
	captions, err := p.generateCaptions(ctx, image.Path, config.AllowPartialCaptions)
	if err != nil {
		return nil, p.fail(logger, StageGenerateCaptions, err)
	}
	logger.Info("captions generated", slog.Int("count", captions.Len()), slog.Any("sources", captions.Sources()))

	// CONSENSUS
	consensusResult, err := p.Consensus.ComputeConsensus(ctx, captions)
	if err != nil {
		return nil, p.fail(logger, StageConsensus, err)
	}
	logger.Info("consensus computed", slog.String("best_source", consensusResult.BestSource))
	logger.Debug("consensus scores", slog.Any("scores", consensusResult.Scores))

	// TOT_CANDIDATES -> TOT_SELECT | DIRECT_FUSION
	var finalCaption string
	var candidateDebug *model.CandidateSelection
	if config.EnableToT {
		candidateDebug, err = p.treeOfThoughts(ctx, logger, captions, consensusResult.BestCaption)
		if err != nil {
			return nil, err
		}
		finalCaption = candidateDebug.PickedCaption
	} else {
		if p.Fuser == nil {
			return nil, p.fail(logger, StageDirectFusion, helper.DependencyInit("fuser", fmt.Errorf("no fusion function configured")))
		}
		finalCaption, err = p.Fuser(ctx, captions, consensusResult.BestCaption)
		if err != nil {
			return nil, p.fail(logger, StageDirectFusion, err)
		}
		logger.Info("captions fused")
	}

	// SELF_CORRECT
	if config.EnableSelfCorrection {
		if p.SelfCorrector == nil {
			return nil, p.fail(logger, StageSelfCorrect, helper.DependencyInit("self corrector", fmt.Errorf("no self-correction function configured")))
		}
		finalCaption, err = p.SelfCorrector(ctx, finalCaption)
		if err != nil {
			return nil, p.fail(logger, StageSelfCorrect, err)
		}
		logger.Info("caption self-corrected")
	}

	// EVALUATE
	evaluation, err := p.evaluate(ctx, logger, config, image.Name, captions, finalCaption)
	if err != nil {
		return nil, p.fail(logger, StageEvaluate, err)
	}

	// EXPLAIN
	text := explanation.BuildExplanation(captions, consensusResult, finalCaption, candidateDebug)

	result := &model.PipelineResult{
		RunID:        runID,
		ImageName:    image.Name,
		Captions:     captions,
		Consensus:    consensusResult,
		FinalCaption: finalCaption,
		Evaluation:   evaluation,
		ToTDebug:     candidateDebug,
		Explanation:  text,
		CreatedAt:    time.Now(),
	}
	logger.Info("run finished", slog.String("final_caption", finalCaption))

	// The result is complete at this point, so a failed recording does not fail the run
	if p.Recorder != nil {
		if err := p.Recorder.Record(ctx, result); err != nil {
			logger.Error("failed to record run", slog.Any("error", err))
		}
	}

	return result, nil
}

func (p *Pipeline) generateCaptions(ctx context.Context, imagePath string, partial bool) (model.CaptionSet, error) {
	if p.Generator == nil {
		return nil, helper.DependencyInit("caption generator", fmt.Errorf("no caption generator configured"))
	}

	var captions model.CaptionSet
	var err error
	if g, ok := p.Generator.(PartialCaptionGenerator); ok {
		captions, err = g.GenerateAllWithMode(ctx, imagePath, partial)
	} else if partial {
		return nil, helper.DependencyInit("caption generator", fmt.Errorf("generator cannot tolerate failing models"))
	} else {
		captions, err = p.Generator.GenerateAll(ctx, imagePath)
	}
	if err != nil {
		return nil, err
	}
	if captions.Len() == 0 {
		return nil, helper.InvalidInput("caption generation returned no captions")
	}
	return captions, nil
}

func (p *Pipeline) treeOfThoughts(ctx context.Context, logger *slog.Logger, captions model.CaptionSet, consensusCaption string) (*model.CandidateSelection, error) {
	if p.Candidates == nil {
		return nil, p.fail(logger, StageToTCandidates, helper.DependencyInit("candidate generator", fmt.Errorf("no candidate function configured")))
	}
	candidates, err := p.Candidates(ctx, captions, consensusCaption)
	if err != nil {
		return nil, p.fail(logger, StageToTCandidates, err)
	}
	logger.Info("candidates generated", slog.Int("count", len(candidates)))

	selection, err := p.Selector.SelectBest(ctx, consensusCaption, candidates)
	if err != nil {
		return nil, p.fail(logger, StageToTSelect, err)
	}
	logger.Info("candidate selected", slog.String("picked", selection.Picked))
	logger.Debug("candidate scores", slog.Any("final_score", selection.FinalScore))

	return selection, nil
}

// evaluate returns nil without error when evaluation is skipped
func (p *Pipeline) evaluate(ctx context.Context, logger *slog.Logger, config model.PipelineConfig, imageName string, captions model.CaptionSet, finalCaption string) (model.Evaluation, error) {
	if !config.EnableEvaluation || p.References == nil || p.Scorer == nil {
		logger.Info("evaluation skipped", slog.String("reason", "disabled"))
		return nil, nil
	}

	references, err := p.References.References(ctx, imageName)
	if err != nil {
		return nil, err
	}
	if len(references) == 0 {
		logger.Info("evaluation skipped", slog.String("reason", "no reference captions"))
		return nil, nil
	}

	fusionSource := config.FusionSource
	if fusionSource == "" {
		fusionSource = model.DefaultFusionSource
	}

	if _, ok := captions.Get(fusionSource); ok {
		return nil, helper.InvalidInput("captioning model %q collides with the fusion source", fusionSource)
	}

	evaluation := p.Scorer(references, captions.With(fusionSource, finalCaption))
	logger.Info("evaluation finished", slog.Int("references", len(references)))

	return evaluation, nil
}

func (p *Pipeline) fail(logger *slog.Logger, stage Stage, err error) error {
	stageErr := newStageError(stage, err)
	logger.Error("run failed", slog.String("stage", string(stage)), slog.String("source", stageErr.Source), slog.Any("error", err))
	return stageErr
}

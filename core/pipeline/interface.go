package pipeline

import (
	"context"
	"log/slog"

	"github.com/siherrmann/captioner/core/consensus"
	"github.com/siherrmann/captioner/core/embedding"
	"github.com/siherrmann/captioner/core/selection"
	"github.com/siherrmann/captioner/helper"
	"github.com/siherrmann/captioner/model"
)

// CaptionGenerator runs every registered captioning model on one image
// and returns their captions in registration order
type CaptionGenerator interface {
	GenerateAll(ctx context.Context, imagePath string) (model.CaptionSet, error)
}

// PartialCaptionGenerator can decide per call whether failing models are
// tolerated as long as one model succeeds
type PartialCaptionGenerator interface {
	CaptionGenerator
	GenerateAllWithMode(ctx context.Context, imagePath string, partial bool) (model.CaptionSet, error)
}

// CaptionGeneratorFunc adapts a function to CaptionGenerator
type CaptionGeneratorFunc func(ctx context.Context, imagePath string) (model.CaptionSet, error)

// GenerateAll calls f
func (f CaptionGeneratorFunc) GenerateAll(ctx context.Context, imagePath string) (model.CaptionSet, error) {
	return f(ctx, imagePath)
}

// FuseFunc merges all captions into one refined caption guided by the consensus caption
type FuseFunc func(ctx context.Context, captions model.CaptionSet, consensusCaption string) (string, error)

// CandidateFunc proposes several refined captions guided by the consensus caption
type CandidateFunc func(ctx context.Context, captions model.CaptionSet, consensusCaption string) ([]string, error)

// SelfCorrectFunc reviews and corrects a single caption
type SelfCorrectFunc func(ctx context.Context, caption string) (string, error)

// ReferenceLoader returns the ground truth captions of an image.
// No references is reported as an empty slice, not as an error.
type ReferenceLoader interface {
	References(ctx context.Context, imageName string) ([]string, error)
}

// ReferenceLoaderFunc adapts a function to ReferenceLoader
type ReferenceLoaderFunc func(ctx context.Context, imageName string) ([]string, error)

// References calls f
func (f ReferenceLoaderFunc) References(ctx context.Context, imageName string) ([]string, error) {
	return f(ctx, imageName)
}

// ScoreFunc scores every caption of a set against the references, in set order
type ScoreFunc func(references []string, captions model.CaptionSet) model.Evaluation

// Recorder persists a finished run
type Recorder interface {
	Record(ctx context.Context, result *model.PipelineResult) error
}

// Pipeline runs one image through captioning, consensus, refinement,
// evaluation and explanation
type Pipeline struct {
	Generator     CaptionGenerator
	Consensus     *consensus.Engine
	Selector      *selection.Selector
	Fuser         FuseFunc
	Candidates    CandidateFunc
	SelfCorrector SelfCorrectFunc
	References    ReferenceLoader // Optional
	Scorer        ScoreFunc       // Optional
	Recorder      Recorder        // Optional
	Config        model.PipelineConfig
	// Logging
	log *slog.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithConfig sets the pipeline configuration
func WithConfig(config model.PipelineConfig) Option {
	return func(p *Pipeline) {
		p.Config = config
	}
}

// WithLogger sets the logger used for stage logs
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.log = logger
		}
	}
}

// WithRecorder persists every successful run
func WithRecorder(recorder Recorder) Option {
	return func(p *Pipeline) {
		p.Recorder = recorder
	}
}

// NewPipeline creates a new pipeline. The consensus engine and the candidate
// selector share the given embedder.
func NewPipeline(generator CaptionGenerator, embedder embedding.Embedder, opts ...Option) *Pipeline {
	p := &Pipeline{
		Generator: generator,
		Consensus: consensus.NewEngine(embedder),
		Selector:  selection.NewSelector(embedder),
		Config:    model.DefaultPipelineConfig(),
		log:       helper.NewLogger(slog.LevelInfo),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetFuser sets the direct fusion function used when Tree of Thoughts is disabled
func (p *Pipeline) SetFuser(fuser FuseFunc) {
	p.Fuser = fuser
}

// SetCandidateGenerator sets the candidate function used when Tree of Thoughts is enabled
func (p *Pipeline) SetCandidateGenerator(candidates CandidateFunc) {
	p.Candidates = candidates
}

// SetSelfCorrector sets the self-correction function
func (p *Pipeline) SetSelfCorrector(selfCorrector SelfCorrectFunc) {
	p.SelfCorrector = selfCorrector
}

// SetEvaluator sets the reference loader and scoring function.
// Evaluation is skipped while either is nil.
func (p *Pipeline) SetEvaluator(references ReferenceLoader, scorer ScoreFunc) {
	p.References = references
	p.Scorer = scorer
}

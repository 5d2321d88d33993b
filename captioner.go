package captioner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/siherrmann/captioner/core/captioning"
	"github.com/siherrmann/captioner/core/embedding"
	"github.com/siherrmann/captioner/core/evaluation"
	"github.com/siherrmann/captioner/core/pipeline"
	"github.com/siherrmann/captioner/core/refinement"
	"github.com/siherrmann/captioner/database"
	"github.com/siherrmann/captioner/helper"
	"github.com/siherrmann/captioner/model"
)

// Captioner wires captioning models, the embedding provider, the pipeline
// and the optional run storage together
type Captioner struct {
	Embedder  *embedding.Provider
	Generator *captioning.Generator
	Pipeline  *pipeline.Pipeline
	DB        *helper.Database   // Optional
	Recorder  *database.Recorder // Optional
	// Logging
	log *slog.Logger
}

type options struct {
	config         model.PipelineConfig
	logger         *slog.Logger
	embedder       *embedding.Provider
	embeddingDim   int
	openAI         *helper.OpenAIConfiguration
	candidateCount int
	dbConfig       *helper.DatabaseConfiguration
}

// Option configures NewCaptioner
type Option func(*options)

// WithPipelineConfig sets the stage switches
func WithPipelineConfig(config model.PipelineConfig) Option {
	return func(o *options) {
		o.config = config
	}
}

// WithLogger sets the logger shared by all components
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEmbedder replaces the default all-MiniLM-L6-v2 provider.
// dim is the vector size the provider returns, it sizes the caption table.
func WithEmbedder(provider *embedding.Provider, dim int) Option {
	return func(o *options) {
		o.embedder = provider
		o.embeddingDim = dim
	}
}

// WithOpenAI enables fusion, Tree of Thoughts candidates and self-correction
// through the chat completion API
func WithOpenAI(config *helper.OpenAIConfiguration) Option {
	return func(o *options) {
		o.openAI = config
	}
}

// WithCandidateCount sets the number of Tree of Thoughts candidates requested
func WithCandidateCount(n int) Option {
	return func(o *options) {
		o.candidateCount = n
	}
}

// WithDatabase stores every finished run in postgres
func WithDatabase(config *helper.DatabaseConfiguration) Option {
	return func(o *options) {
		o.dbConfig = config
	}
}

// NewCaptioner creates a Captioner running the given models
func NewCaptioner(models []captioning.Model, opts ...Option) (*Captioner, error) {
	o := &options{
		config:       model.DefaultPipelineConfig(),
		embeddingDim: embedding.DefaultDimension,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = helper.NewLogger(slog.LevelInfo)
	}
	if o.embedder == nil {
		o.embedder = embedding.NewDefaultProvider()
		o.embeddingDim = embedding.DefaultDimension
	}

	generatorOpts := []captioning.GeneratorOption{captioning.WithGeneratorLogger(o.logger)}
	if o.config.AllowPartialCaptions {
		generatorOpts = append(generatorOpts, captioning.WithPartialResults())
	}
	generator, err := captioning.NewGenerator(models, generatorOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create caption generator: %w", err)
	}
	fusionSource := o.config.FusionSource
	if fusionSource == "" {
		fusionSource = model.DefaultFusionSource
	}
	for _, name := range generator.Models() {
		if name == fusionSource {
			return nil, helper.InvalidInput("captioning model %q collides with the fusion source", name)
		}
	}

	p := pipeline.NewPipeline(generator, o.embedder, pipeline.WithConfig(o.config), pipeline.WithLogger(o.logger))

	if o.config.ReferencesPath != "" {
		p.SetEvaluator(evaluation.NewReferenceStore(o.config.ReferencesPath), evaluation.NewScorer().EvaluateAll)
	}

	if o.openAI != nil {
		var clientOpts []refinement.Option
		if o.candidateCount > 0 {
			clientOpts = append(clientOpts, refinement.WithCandidateCount(o.candidateCount))
		}
		client, err := refinement.NewOpenAIClient(o.openAI, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create refinement client: %w", err)
		}
		p.SetFuser(client.Fuse)
		p.SetCandidateGenerator(client.GenerateCandidates)
		p.SetSelfCorrector(client.SelfCorrect)
	}

	c := &Captioner{
		Embedder:  o.embedder,
		Generator: generator,
		Pipeline:  p,
		log:       o.logger,
	}

	if o.dbConfig != nil {
		db, err := helper.NewDatabase("captioner", o.dbConfig, o.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect database: %w", err)
		}
		recorder, err := database.NewRecorder(db, o.embedder, o.embeddingDim, false)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create recorder: %w", err)
		}
		c.DB = db
		c.Recorder = recorder
		p.Recorder = recorder
	}

	return c, nil
}

// Caption runs the full pipeline on one image
func (c *Captioner) Caption(ctx context.Context, image model.Image) (*model.PipelineResult, error) {
	return c.Pipeline.Run(ctx, image)
}

// CaptionWithConfig runs the pipeline with stage switches for this image only
func (c *Captioner) CaptionWithConfig(ctx context.Context, image model.Image, config model.PipelineConfig) (*model.PipelineResult, error) {
	return c.Pipeline.RunWithConfig(ctx, image, config)
}

// Consensus scores already generated captions without running any model
func (c *Captioner) Consensus(ctx context.Context, captions model.CaptionSet) (*model.ConsensusResult, error) {
	return c.Pipeline.Consensus.ComputeConsensus(ctx, captions)
}

// History returns the stored runs of an image, newest first
func (c *Captioner) History(imageName string) ([]*model.Run, error) {
	if c.Recorder == nil {
		return nil, helper.NewError("history", fmt.Errorf("database not configured, use WithDatabase()"))
	}
	return c.Recorder.Runs().SelectRunsByImage(imageName)
}

// SimilarCaptions finds stored captions close to text
func (c *Captioner) SimilarCaptions(ctx context.Context, text string, limit int, threshold float64) ([]*model.StoredCaption, error) {
	if c.Recorder == nil {
		return nil, helper.NewError("similar captions", fmt.Errorf("database not configured, use WithDatabase()"))
	}

	vectors, err := c.Embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, helper.NewError("generate embedding", err)
	}

	return c.Recorder.Captions().SelectCaptionsBySimilarity(vectors[0], limit, threshold)
}

// Close releases the embedding model and the database connection
func (c *Captioner) Close() error {
	var errs []error
	if c.Embedder != nil {
		errs = append(errs, c.Embedder.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}

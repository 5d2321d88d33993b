package captioning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/siherrmann/captioner/helper"
	"github.com/siherrmann/captioner/model"
	"golang.org/x/sync/errgroup"
)

// Generator runs all registered models on an image concurrently
type Generator struct {
	models  []Model
	partial bool
	log     *slog.Logger
}

// GeneratorOption configures a Generator
type GeneratorOption func(*Generator)

// WithPartialResults keeps the captions of the models that succeeded
// as long as at least one model succeeds
func WithPartialResults() GeneratorOption {
	return func(g *Generator) {
		g.partial = true
	}
}

// WithGeneratorLogger sets the logger used for per-model failures
func WithGeneratorLogger(logger *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		if logger != nil {
			g.log = logger
		}
	}
}

// NewGenerator creates a generator for the given models in registration order
func NewGenerator(models []Model, opts ...GeneratorOption) (*Generator, error) {
	g := &Generator{
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	for _, m := range models {
		if err := g.Register(m); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Register appends a model. Model names are the caption sources and must be unique.
func (g *Generator) Register(m Model) error {
	if m == nil {
		return helper.InvalidInput("captioning model is nil")
	}
	name := strings.TrimSpace(m.Name())
	if name == "" {
		return helper.InvalidInput("captioning model has no name")
	}
	for _, existing := range g.models {
		if existing.Name() == name {
			return helper.InvalidInput("captioning model %q registered twice", name)
		}
	}
	g.models = append(g.models, m)
	return nil
}

// Models returns the registered model names in order
func (g *Generator) Models() []string {
	names := make([]string, len(g.models))
	for i, m := range g.models {
		names[i] = m.Name()
	}
	return names
}

// GenerateAll captions the image with every model and returns the captions in
// registration order. By default the first failure cancels the others and
// fails the whole call.
func (g *Generator) GenerateAll(ctx context.Context, imagePath string) (model.CaptionSet, error) {
	return g.GenerateAllWithMode(ctx, imagePath, g.partial)
}

// GenerateAllWithMode is GenerateAll with partial tolerance chosen for this call only
func (g *Generator) GenerateAllWithMode(ctx context.Context, imagePath string, partial bool) (model.CaptionSet, error) {
	if strings.TrimSpace(imagePath) == "" {
		return nil, helper.InvalidInput("image path is empty")
	}
	if len(g.models) == 0 {
		return nil, helper.InvalidInput("no captioning models registered")
	}

	captions := make([]string, len(g.models))
	errs := make([]error, len(g.models))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, m := range g.models {
		group.Go(func() error {
			caption, err := m.Caption(groupCtx, imagePath)
			if err != nil {
				errs[i] = helper.NewSourceError(m.Name(), helper.DependencyCall("caption model", err))
				if partial {
					return nil
				}
				return errs[i]
			}
			captions[i] = strings.TrimSpace(caption)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	set := model.CaptionSet{}
	var failed []error
	for i, m := range g.models {
		if errs[i] != nil {
			g.log.Warn("captioning model failed", slog.String("source", m.Name()), slog.Any("error", errs[i]))
			failed = append(failed, errs[i])
			continue
		}
		set = set.With(m.Name(), captions[i])
	}

	if set.Len() == 0 {
		return nil, fmt.Errorf("all %d captioning models failed: %w", len(g.models), errors.Join(failed...))
	}

	return set, nil
}

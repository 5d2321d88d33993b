package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/siherrmann/captioner"
	"github.com/siherrmann/captioner/helper"
	"github.com/siherrmann/captioner/model"
	"github.com/spf13/cobra"
)

// backendFlags select the models behind a Captioner
type backendFlags struct {
	embedder   string
	llavaDir   string
	captions   []string
	candidates int
	store      bool
}

func (b *backendFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&b.embedder, "embedder", EmbedderHugot, "embedding backend: hugot, openai or hashing")
	cmd.Flags().StringVar(&b.llavaDir, "llava-dir", "", "directory with llava.cpp, llava.bin and llava-proj.bin")
	cmd.Flags().StringArrayVar(&b.captions, "caption", nil, "fixed source=caption model, repeatable")
	cmd.Flags().IntVar(&b.candidates, "candidates", 0, "number of Tree of Thoughts candidates (default 3)")
	cmd.Flags().BoolVar(&b.store, "store", false, "store the run in postgres (CAPTIONER_DB_* variables)")
}

// newCaptioner builds a Captioner from the backend flags and the pipeline config.
// Without an OpenAI key the refinement stages are switched off and the consensus
// caption becomes the final caption, the returned config reflects that.
func (b *backendFlags) newCaptioner(config model.PipelineConfig) (*captioner.Captioner, model.PipelineConfig, error) {
	openAI, err := optionalOpenAI()
	if err != nil {
		return nil, config, err
	}

	models, err := buildModels(openAI, b.llavaDir, b.captions)
	if err != nil {
		return nil, config, err
	}

	provider, dim, err := newEmbedder(b.embedder, openAI)
	if err != nil {
		return nil, config, err
	}

	logger := helper.NewLogger(logLevel())
	if openAI == nil && (config.EnableToT || config.EnableSelfCorrection) {
		logger.Warn("no OpenAI key, using the consensus caption without refinement",
			slog.String("env", helper.EnvOpenAIKey),
			slog.Bool("tot", config.EnableToT),
			slog.Bool("self_correct", config.EnableSelfCorrection),
		)
		config.EnableToT = false
		config.EnableSelfCorrection = false
	}

	opts := []captioner.Option{
		captioner.WithPipelineConfig(config),
		captioner.WithEmbedder(provider, dim),
		captioner.WithLogger(logger),
		captioner.WithCandidateCount(b.candidates),
	}
	if openAI != nil {
		opts = append(opts, captioner.WithOpenAI(openAI))
	}
	if b.store {
		dbConfig, err := helper.NewDatabaseConfiguration()
		if err != nil {
			return nil, config, err
		}
		opts = append(opts, captioner.WithDatabase(dbConfig))
	}

	c, err := captioner.NewCaptioner(models, opts...)
	if err != nil {
		return nil, config, err
	}
	if openAI == nil {
		c.Pipeline.SetFuser(consensusFuser)
	}

	return c, config, nil
}

// consensusFuser keeps the consensus caption as the fused caption
func consensusFuser(ctx context.Context, captions model.CaptionSet, consensusCaption string) (string, error) {
	return consensusCaption, nil
}

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	var (
		backend       backendFlags
		imagePath     string
		imageName     string
		references    string
		noToT         bool
		noSelfCorrect bool
		noEval        bool
		partial       bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Caption one image with every configured model",
		Long: `Caption one image with every configured model, compute the semantic
consensus, refine it and print the explanation.

Models: the OpenAI vision model when OPENAI_API_KEY is set, llava.cpp with
--llava-dir and fixed captions given with --caption source=text.

Without OPENAI_API_KEY Tree of Thoughts and self-correction are skipped and
the consensus caption is the final caption.`,
		Example: `  captioner run --image dog.jpg
  captioner run --image dog.jpg --no-tot --format json
  OPENAI_API_KEY= captioner run --image dog.jpg --embedder hashing \
    --caption "BLIP=a dog in a park" --caption "GIT=a dog running on grass"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("no-tot") {
				config.EnableToT = !noToT
			}
			if cmd.Flags().Changed("no-self-correct") {
				config.EnableSelfCorrection = !noSelfCorrect
			}
			if cmd.Flags().Changed("no-eval") {
				config.EnableEvaluation = !noEval
			}
			if cmd.Flags().Changed("partial") {
				config.AllowPartialCaptions = partial
			}
			if cmd.Flags().Changed("references") {
				config.ReferencesPath = references
			}

			if imageName == "" {
				imageName = filepath.Base(imagePath)
			}

			c, _, err := backend.newCaptioner(config)
			if err != nil {
				return err
			}
			defer c.Close()

			result, err := c.Caption(cmd.Context(), model.Image{Path: imagePath, Name: imageName})
			if err != nil {
				return err
			}

			if err := writeResult(cmd.OutOrStdout(), result, outputFormat); err != nil {
				return fmt.Errorf("failed to write result: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&imagePath, "image", "", "path of the image to caption")
	cmd.Flags().StringVar(&imageName, "name", "", "image name used for reference lookup (default: file name)")
	cmd.Flags().StringVar(&references, "references", "", "reference caption file (default from config: data.json)")
	cmd.Flags().BoolVar(&noToT, "no-tot", false, "fuse captions directly instead of Tree of Thoughts")
	cmd.Flags().BoolVar(&noSelfCorrect, "no-self-correct", false, "skip the self-correction pass")
	cmd.Flags().BoolVar(&noEval, "no-eval", false, "skip evaluation against reference captions")
	cmd.Flags().BoolVar(&partial, "partial", false, "continue when some captioning models fail")
	backend.register(cmd)
	_ = cmd.MarkFlagRequired("image")

	return cmd
}

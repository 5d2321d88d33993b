package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/siherrmann/captioner/core/captioning"
	"github.com/siherrmann/captioner/core/embedding"
	"github.com/siherrmann/captioner/core/explanation"
	"github.com/siherrmann/captioner/helper"
	"github.com/siherrmann/captioner/model"
)

// Embedding backends selectable with --embedder
const (
	EmbedderHugot   = "hugot"
	EmbedderOpenAI  = "openai"
	EmbedderHashing = "hashing"
)

// openAIEmbeddingDim is the vector size of text-embedding-3-small
const openAIEmbeddingDim = 1536

// loadConfig returns the defaults or the --config file on top of them
func loadConfig() (model.PipelineConfig, error) {
	if configPath == "" {
		return model.DefaultPipelineConfig(), nil
	}
	return model.LoadPipelineConfig(configPath)
}

// optionalOpenAI returns the OpenAI configuration or nil when no key is set
func optionalOpenAI() (*helper.OpenAIConfiguration, error) {
	if os.Getenv(helper.EnvOpenAIKey) == "" {
		return nil, nil
	}
	return helper.NewOpenAIConfiguration()
}

// newEmbedder builds the provider for a backend name and reports its dimension
func newEmbedder(kind string, openAI *helper.OpenAIConfiguration) (*embedding.Provider, int, error) {
	switch kind {
	case EmbedderHugot, "":
		return embedding.NewDefaultProvider(), embedding.DefaultDimension, nil
	case EmbedderOpenAI:
		if openAI == nil {
			return nil, 0, helper.DependencyInit("openai embedder", fmt.Errorf("%s must be set", helper.EnvOpenAIKey))
		}
		return embedding.NewOpenAIProvider(openAI.NewClient(), openAI.EmbeddingModel), openAIEmbeddingDim, nil
	case EmbedderHashing:
		return embedding.NewHashingProvider(embedding.DefaultDimension), embedding.DefaultDimension, nil
	default:
		return nil, 0, fmt.Errorf("unknown embedder %q (use %q, %q or %q)", kind, EmbedderHugot, EmbedderOpenAI, EmbedderHashing)
	}
}

// parseCaptionArgs turns "source=caption" arguments into a CaptionSet
func parseCaptionArgs(args []string) (model.CaptionSet, error) {
	captions := model.CaptionSet{}
	for _, arg := range args {
		source, text, ok := strings.Cut(arg, "=")
		source = strings.TrimSpace(source)
		text = strings.TrimSpace(text)
		if !ok || source == "" || text == "" {
			return nil, helper.InvalidInput("expected source=caption, got %q", arg)
		}
		if _, exists := captions.Get(source); exists {
			return nil, helper.InvalidInput("source %q given twice", source)
		}
		captions = captions.With(source, text)
	}
	return captions, nil
}

// buildModels collects the captioning models enabled by flags and environment
func buildModels(openAI *helper.OpenAIConfiguration, llavaDir string, static []string) ([]captioning.Model, error) {
	var models []captioning.Model

	fixed, err := parseCaptionArgs(static)
	if err != nil {
		return nil, err
	}
	for _, c := range fixed {
		models = append(models, captioning.NewStaticModel(c.Source, c.Text))
	}

	if openAI != nil {
		m, err := captioning.NewOpenAIVisionModel(openAI.VisionModel, openAI)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}

	if llavaDir != "" {
		m, err := captioning.NewLlavaModel("LLaVA", captioning.DefaultLlavaConfig(llavaDir))
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}

	if len(models) == 0 {
		return nil, helper.InvalidInput("no captioning model available, set %s, --llava-dir or --caption", helper.EnvOpenAIKey)
	}
	return models, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeResult prints a pipeline result in the selected format
func writeResult(w io.Writer, result *model.PipelineResult, format string) error {
	if format == FormatJSON {
		return writeJSON(w, result)
	}

	var sb strings.Builder
	sb.WriteString(result.Explanation)
	sb.WriteString("\n")

	if len(result.Evaluation) > 0 {
		sb.WriteString("\n### Evaluation against reference captions\n\n")
		sb.WriteString("| Source |")
		for _, s := range result.Evaluation[0].Scores {
			sb.WriteString(" " + s.Metric + " |")
		}
		sb.WriteString("\n|---|")
		for range result.Evaluation[0].Scores {
			sb.WriteString("---|")
		}
		sb.WriteString("\n")
		for _, e := range result.Evaluation {
			sb.WriteString("| " + e.Source + " |")
			for _, s := range e.Scores {
				sb.WriteString(fmt.Sprintf(" %.4f |", s.Value))
			}
			sb.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// writeConsensus prints a consensus result in the selected format
func writeConsensus(w io.Writer, result *model.ConsensusResult, format string) error {
	if format == FormatJSON {
		return writeJSON(w, result)
	}

	var sb strings.Builder
	sb.WriteString(explanation.HeaderSimilarity + "\n")
	for _, s := range explanation.SortedScores(result.Scores) {
		sb.WriteString(fmt.Sprintf("- **%s** similarity score: `%.2f`\n", s.Source, s.Score))
	}
	sb.WriteString(fmt.Sprintf("\n%s **%s**\n- Selected caption: _%s_\n", explanation.ConsensusChoice, result.BestSource, result.BestCaption))

	_, err := io.WriteString(w, sb.String())
	return err
}

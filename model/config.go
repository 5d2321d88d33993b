package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFusionSource is the source name the final caption is evaluated under
const DefaultFusionSource = "Fusion"

// PipelineConfig represents the switches of a pipeline run.
// It is resolved once when a run starts.
type PipelineConfig struct {
	// Tree of Thoughts: generate several refined candidates and select one,
	// otherwise fuse the captions directly
	EnableToT bool `json:"enable_tot" yaml:"enable_tot"`
	// Run the self-correction pass on the selected caption
	EnableSelfCorrection bool `json:"enable_self_correction" yaml:"enable_self_correction"`
	// Score captions against reference captions when available
	EnableEvaluation bool `json:"enable_evaluation" yaml:"enable_evaluation"`
	// Keep going when some captioning models fail as long as one succeeds
	AllowPartialCaptions bool `json:"allow_partial_captions" yaml:"allow_partial_captions"`
	// Source name of the final caption in the evaluation
	FusionSource string `json:"fusion_source" yaml:"fusion_source"`
	// Path of the reference caption file (image name -> captions)
	ReferencesPath string `json:"references_path,omitempty" yaml:"references_path"`
}

// DefaultPipelineConfig returns the default configuration
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		EnableToT:            true,
		EnableSelfCorrection: true,
		EnableEvaluation:     true,
		AllowPartialCaptions: false,
		FusionSource:         DefaultFusionSource,
		ReferencesPath:       "data.json",
	}
}

// LoadPipelineConfig reads a YAML file on top of the defaults.
// Keys missing from the file keep their default value.
func LoadPipelineConfig(path string) (PipelineConfig, error) {
	config := DefaultPipelineConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read pipeline config: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse pipeline config: %w", err)
	}
	if config.FusionSource == "" {
		config.FusionSource = DefaultFusionSource
	}

	return config, nil
}

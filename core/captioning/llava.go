package captioning

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/siherrmann/captioner/helper"
)

// llava runs on a single GPU, one inference at a time
var llavaMutex sync.Mutex

// LlavaConfig points to a local llava.cpp build and its weights
type LlavaConfig struct {
	Binary      string
	Model       string
	Projector   string
	Prompt      string
	Temperature string
}

// DefaultLlavaConfig expects llava.cpp, llava.bin and llava-proj.bin in dir
func DefaultLlavaConfig(dir string) LlavaConfig {
	return LlavaConfig{
		Binary:      filepath.Join(dir, "llava.cpp"),
		Model:       filepath.Join(dir, "llava.bin"),
		Projector:   filepath.Join(dir, "llava-proj.bin"),
		Prompt:      DefaultVisionPrompt,
		Temperature: "0.1",
	}
}

// LlavaModel captions images by executing a local llava.cpp binary
type LlavaModel struct {
	name   string
	config LlavaConfig
}

// NewLlavaModel checks that the binary exists and creates the model
func NewLlavaModel(name string, config LlavaConfig) (*LlavaModel, error) {
	if _, err := os.Stat(config.Binary); err != nil {
		return nil, helper.DependencyInit(name, err)
	}
	if config.Prompt == "" {
		config.Prompt = DefaultVisionPrompt
	}
	if config.Temperature == "" {
		config.Temperature = "0.1"
	}
	return &LlavaModel{name: name, config: config}, nil
}

// Name returns the source name
func (m *LlavaModel) Name() string {
	return m.name
}

// Caption runs llava.cpp on the image and returns its cleaned output
func (m *LlavaModel) Caption(ctx context.Context, imagePath string) (string, error) {
	llavaMutex.Lock()
	defer llavaMutex.Unlock()

	cmd := exec.CommandContext(ctx,
		m.config.Binary,
		"-m", m.config.Model,
		"--mmproj", m.config.Projector,
		"--image", imagePath,
		"--temp", m.config.Temperature,
		"-p", m.config.Prompt,
	)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("llava.cpp: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return cleanLlavaOutput(out.String()), nil
}

// cleanLlavaOutput drops the model loading log llava.cpp prints before the answer
func cleanLlavaOutput(output string) string {
	const anchor = "per image patch)"
	if i := strings.Index(output, anchor); i != -1 {
		output = output[i+len(anchor):]
	}
	return strings.TrimSpace(output)
}

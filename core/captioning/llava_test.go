package captioning

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/siherrmann/captioner/helper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLlava writes a shell script that prints a llava.cpp like log followed by the answer
func fakeLlava(t *testing.T, script string) LlavaConfig {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake llava binary is a shell script")
	}
	dir := t.TempDir()
	config := DefaultLlavaConfig(dir)
	require.NoError(t, os.WriteFile(config.Binary, []byte("#!/bin/sh\n"+script), 0o700))
	return config
}

func TestNewLlavaModel(t *testing.T) {
	t.Run("Missing binary", func(t *testing.T) {
		_, err := NewLlavaModel("LLaVA", DefaultLlavaConfig(t.TempDir()))

		assert.ErrorIs(t, err, helper.ErrDependencyInit)
	})

	t.Run("Defaults are filled in", func(t *testing.T) {
		config := fakeLlava(t, "exit 0\n")
		config.Prompt = ""
		config.Temperature = ""

		m, err := NewLlavaModel("LLaVA", config)

		require.NoError(t, err)
		assert.Equal(t, DefaultVisionPrompt, m.config.Prompt)
		assert.Equal(t, "0.1", m.config.Temperature)
		assert.Equal(t, "llava.cpp", filepath.Base(m.config.Binary))
	})
}

func TestLlavaModelCaption(t *testing.T) {
	t.Run("Returns the answer after the loading log", func(t *testing.T) {
		config := fakeLlava(t, "echo 'clip_model_load: 576 tokens (per image patch)'\necho '  a cat on a mat  '\n")
		m, err := NewLlavaModel("LLaVA", config)
		require.NoError(t, err)

		caption, err := m.Caption(context.Background(), "/tmp/image.jpg")

		require.NoError(t, err)
		assert.Equal(t, "a cat on a mat", caption)
	})

	t.Run("Passes the image path", func(t *testing.T) {
		config := fakeLlava(t, "while [ \"$1\" != \"--image\" ]; do shift; done\necho \"$2\"\n")
		m, err := NewLlavaModel("LLaVA", config)
		require.NoError(t, err)

		caption, err := m.Caption(context.Background(), "/tmp/dog.jpg")

		require.NoError(t, err)
		assert.Equal(t, "/tmp/dog.jpg", caption)
	})

	t.Run("Non-zero exit is an error with stderr", func(t *testing.T) {
		config := fakeLlava(t, "echo 'failed to load model' >&2\nexit 3\n")
		m, err := NewLlavaModel("LLaVA", config)
		require.NoError(t, err)

		_, err = m.Caption(context.Background(), "/tmp/image.jpg")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load model")
	})
}

func TestCleanLlavaOutput(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		expected string
	}{
		{"No anchor", "  a dog  ", "a dog"},
		{"With anchor", "loading...\nencode_image (576 per image patch)\n a dog\n", "a dog"},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cleanLlavaOutput(tt.output))
		})
	}
}

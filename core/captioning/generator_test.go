package captioning

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/siherrmann/captioner/helper"
	"github.com/siherrmann/captioner/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeModel waits for delay, then returns caption or err
type fakeModel struct {
	name    string
	caption string
	err     error
	delay   time.Duration
	calls   int32
}

func (m *fakeModel) Name() string {
	return m.name
}

func (m *fakeModel) Caption(ctx context.Context, imagePath string) (string, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(m.delay):
		}
	}
	return m.caption, m.err
}

func TestNewGenerator(t *testing.T) {
	t.Run("Create generator with models", func(t *testing.T) {
		generator, err := NewGenerator([]Model{
			NewStaticModel("BLIP Base", "a cat"),
			NewStaticModel("GIT", "a kitten"),
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"BLIP Base", "GIT"}, generator.Models())
	})

	t.Run("Duplicate model names", func(t *testing.T) {
		_, err := NewGenerator([]Model{
			NewStaticModel("GIT", "a cat"),
			NewStaticModel("GIT", "a kitten"),
		})

		assert.ErrorIs(t, err, helper.ErrInvalidInput)
	})

	t.Run("Unnamed model", func(t *testing.T) {
		_, err := NewGenerator([]Model{NewStaticModel(" ", "a cat")})

		assert.ErrorIs(t, err, helper.ErrInvalidInput)
	})

	t.Run("Nil model", func(t *testing.T) {
		_, err := NewGenerator([]Model{nil})

		assert.ErrorIs(t, err, helper.ErrInvalidInput)
	})
}

func TestGenerateAll(t *testing.T) {
	ctx := context.Background()

	t.Run("Captions keep registration order regardless of finish order", func(t *testing.T) {
		generator, err := NewGenerator([]Model{
			&fakeModel{name: "slow", caption: "a slow caption ", delay: 30 * time.Millisecond},
			&fakeModel{name: "fast", caption: "a fast caption"},
			&fakeModel{name: "medium", caption: "a medium caption", delay: 10 * time.Millisecond},
		})
		require.NoError(t, err)

		captions, err := generator.GenerateAll(ctx, "/tmp/image.jpg")

		require.NoError(t, err)
		assert.Equal(t, model.NewCaptionSet(
			"slow", "a slow caption",
			"fast", "a fast caption",
			"medium", "a medium caption",
		), captions)
	})

	t.Run("Models run concurrently", func(t *testing.T) {
		models := make([]Model, 5)
		for i := range models {
			models[i] = &fakeModel{name: model.CandidateLabel(i), caption: "x", delay: 50 * time.Millisecond}
		}
		generator, err := NewGenerator(models)
		require.NoError(t, err)

		start := time.Now()
		_, err = generator.GenerateAll(ctx, "/tmp/image.jpg")

		require.NoError(t, err)
		assert.Less(t, time.Since(start), 200*time.Millisecond)
	})

	t.Run("First failure fails the call", func(t *testing.T) {
		cause := errors.New("cuda out of memory")
		generator, err := NewGenerator([]Model{
			&fakeModel{name: "BLIP Base", caption: "a cat", delay: time.Second},
			&fakeModel{name: "GIT", err: cause},
		})
		require.NoError(t, err)

		captions, err := generator.GenerateAll(ctx, "/tmp/image.jpg")

		assert.Nil(t, captions)
		assert.ErrorIs(t, err, cause)
		assert.ErrorIs(t, err, helper.ErrDependencyCall)
		var sourceErr *helper.SourceError
		require.ErrorAs(t, err, &sourceErr)
		assert.Equal(t, "GIT", sourceErr.Source)
	})

	t.Run("Partial results skip failed models", func(t *testing.T) {
		generator, err := NewGenerator([]Model{
			&fakeModel{name: "BLIP Base", caption: "a cat"},
			&fakeModel{name: "GIT", err: errors.New("timeout")},
			&fakeModel{name: "ViT-GPT2", caption: "a kitten"},
		}, WithPartialResults())
		require.NoError(t, err)

		captions, err := generator.GenerateAll(ctx, "/tmp/image.jpg")

		require.NoError(t, err)
		assert.Equal(t, []string{"BLIP Base", "ViT-GPT2"}, captions.Sources())
	})

	t.Run("Partial mode chosen per call", func(t *testing.T) {
		generator, err := NewGenerator([]Model{
			&fakeModel{name: "BLIP Base", caption: "a cat"},
			&fakeModel{name: "GIT", err: errors.New("timeout")},
		})
		require.NoError(t, err)

		captions, err := generator.GenerateAllWithMode(ctx, "/tmp/image.jpg", true)
		require.NoError(t, err)
		assert.Equal(t, []string{"BLIP Base"}, captions.Sources())

		_, err = generator.GenerateAllWithMode(ctx, "/tmp/image.jpg", false)
		assert.ErrorIs(t, err, helper.ErrDependencyCall)
	})

	t.Run("Partial results still fail when every model fails", func(t *testing.T) {
		generator, err := NewGenerator([]Model{
			&fakeModel{name: "BLIP Base", err: errors.New("timeout")},
			&fakeModel{name: "GIT", err: errors.New("timeout")},
		}, WithPartialResults())
		require.NoError(t, err)

		_, err = generator.GenerateAll(ctx, "/tmp/image.jpg")

		assert.ErrorIs(t, err, helper.ErrDependencyCall)
		assert.Contains(t, err.Error(), "all 2 captioning models failed")
	})

	t.Run("Empty caption is kept", func(t *testing.T) {
		generator, err := NewGenerator([]Model{NewStaticModel("BLIP Base", "")})
		require.NoError(t, err)

		captions, err := generator.GenerateAll(ctx, "/tmp/image.jpg")

		require.NoError(t, err)
		text, ok := captions.Get("BLIP Base")
		assert.True(t, ok)
		assert.Empty(t, text)
	})

	t.Run("Missing image path", func(t *testing.T) {
		m := &fakeModel{name: "BLIP Base", caption: "a cat"}
		generator, err := NewGenerator([]Model{m})
		require.NoError(t, err)

		_, err = generator.GenerateAll(ctx, "")

		assert.ErrorIs(t, err, helper.ErrInvalidInput)
		assert.Equal(t, int32(0), atomic.LoadInt32(&m.calls))
	})

	t.Run("No models", func(t *testing.T) {
		generator, err := NewGenerator(nil)
		require.NoError(t, err)

		_, err = generator.GenerateAll(ctx, "/tmp/image.jpg")

		assert.ErrorIs(t, err, helper.ErrInvalidInput)
	})
}

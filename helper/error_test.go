package helper

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewError(t *testing.T) {
	t.Run("Wraps error with operation", func(t *testing.T) {
		err := NewError("load references", errors.New("file not found"))

		assert.EqualError(t, err, "load references: file not found")
	})

	t.Run("Returns nil for nil error", func(t *testing.T) {
		assert.NoError(t, NewError("noop", nil))
	})

	t.Run("Keeps sentinel kinds reachable", func(t *testing.T) {
		err := NewError("compute consensus", InvalidInput("caption set is empty"))

		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Contains(t, err.Error(), "caption set is empty")
	})
}

func TestDependencyErrors(t *testing.T) {
	cause := errors.New("onnx file missing")

	t.Run("DependencyInit keeps kind and cause", func(t *testing.T) {
		err := DependencyInit("embedding model", cause)

		assert.ErrorIs(t, err, ErrDependencyInit)
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, ErrDependencyCall)
		assert.Contains(t, err.Error(), "embedding model")
	})

	t.Run("DependencyCall keeps kind and cause", func(t *testing.T) {
		err := DependencyCall("caption model BLIP", cause)

		assert.ErrorIs(t, err, ErrDependencyCall)
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, ErrDependencyInit)
	})
}

func TestSourceError(t *testing.T) {
	t.Run("Nil error stays nil", func(t *testing.T) {
		assert.NoError(t, NewSourceError("GIT", nil))
	})

	t.Run("Source is recoverable with errors.As", func(t *testing.T) {
		err := NewError("generate captions", NewSourceError("BLIP Large", DependencyCall("caption model", errors.New("oom"))))

		var sourceErr *SourceError
		assert.ErrorAs(t, err, &sourceErr)
		assert.Equal(t, "BLIP Large", sourceErr.Source)
		assert.ErrorIs(t, err, ErrDependencyCall)
		assert.Contains(t, err.Error(), "source BLIP Large")
	})
}

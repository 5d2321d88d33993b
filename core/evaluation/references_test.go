package evaluation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testReferences = `{
	"dog.jpg": [
		{"caption": "A dog runs through the park."},
		{"caption": "  "},
		{"caption": "A brown dog playing on grass."}
	],
	"empty.jpg": []
}`

func writeReferences(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadReferences(t *testing.T) {
	t.Run("Load reference file", func(t *testing.T) {
		references, err := LoadReferences(writeReferences(t, testReferences))

		require.NoError(t, err)
		assert.Equal(t, []string{"A dog runs through the park.", "A brown dog playing on grass."}, references["dog.jpg"])
		assert.Empty(t, references["empty.jpg"])
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		_, err := LoadReferences(writeReferences(t, `{"dog.jpg": "not a list"}`))

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "parse reference captions")
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := LoadReferences(filepath.Join(t.TempDir(), "missing.json"))

		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestReferenceStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Known and unknown images", func(t *testing.T) {
		store := NewReferenceStore(writeReferences(t, testReferences))

		references, err := store.References(ctx, "dog.jpg")
		require.NoError(t, err)
		assert.Len(t, references, 2)

		references, err = store.References(ctx, "cat.jpg")
		require.NoError(t, err)
		assert.Empty(t, references)

		references, err = store.References(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, references)
	})

	t.Run("File is loaded once", func(t *testing.T) {
		path := writeReferences(t, testReferences)
		store := NewReferenceStore(path)

		_, err := store.References(ctx, "dog.jpg")
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))

		references, err := store.References(ctx, "dog.jpg")
		require.NoError(t, err)
		assert.Len(t, references, 2)
	})

	t.Run("Returned captions are a copy", func(t *testing.T) {
		store := NewReferenceStore(writeReferences(t, testReferences))

		references, err := store.References(ctx, "dog.jpg")
		require.NoError(t, err)
		references[0] = "changed"

		again, err := store.References(ctx, "dog.jpg")
		require.NoError(t, err)
		assert.Equal(t, "A dog runs through the park.", again[0])
	})

	t.Run("Missing file means no references", func(t *testing.T) {
		store := NewReferenceStore(filepath.Join(t.TempDir(), "missing.json"))

		references, err := store.References(ctx, "dog.jpg")

		require.NoError(t, err)
		assert.Empty(t, references)
	})

	t.Run("Invalid file is an error on every call", func(t *testing.T) {
		store := NewReferenceStore(writeReferences(t, `not json`))

		_, err := store.References(ctx, "dog.jpg")
		assert.Error(t, err)
		_, err = store.References(ctx, "dog.jpg")
		assert.Error(t, err)
	})
}

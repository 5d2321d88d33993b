package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// NewHashingProvider creates an offline lexical provider.
// Each lowercased word and each of its character trigrams is hashed into one
// of dim signed buckets and the vector is L2 normalized. It needs no model
// download and is deterministic, which makes it usable for dry runs and tests.
func NewHashingProvider(dim int) *Provider {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return NewStaticProvider("hashing", HashingEmbedFunc(dim))
}

// HashingEmbedFunc returns the EmbedFunc used by NewHashingProvider
func HashingEmbedFunc(dim int) EmbedFunc {
	return func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			vectors[i] = hashText(text, dim)
		}
		return vectors, nil
	}
}

func hashText(text string, dim int) []float32 {
	vector := make([]float32, dim)

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, word := range words {
		addFeature(vector, "w:"+word, 1.0)
		padded := []rune("^" + word + "$")
		for j := 0; j+3 <= len(padded); j++ {
			addFeature(vector, "t:"+string(padded[j:j+3]), 0.5)
		}
	}

	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vector
	}
	norm = math.Sqrt(norm)
	for j := range vector {
		vector[j] = float32(float64(vector[j]) / norm)
	}

	return vector
}

func addFeature(vector []float32, feature string, weight float32) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	sum := h.Sum64()

	bucket := int(sum % uint64(len(vector)))
	if (sum>>63)&1 == 1 {
		weight = -weight
	}
	vector[bucket] += weight
}

package embedding

import "math"

// CosineSimilarity calculates the cosine similarity between two embedding vectors.
// Mismatched dimensions or a zero vector give 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dotProduct += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	// rounding can push identical vectors slightly past 1
	return math.Max(-1, math.Min(1, similarity))
}

// SimilarityMatrix returns the symmetric pairwise cosine matrix with a unit diagonal
func SimilarityMatrix(vectors [][]float32) [][]float64 {
	n := len(vectors)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		matrix[i][i] = 1.0
		for j := i + 1; j < n; j++ {
			similarity := CosineSimilarity(vectors[i], vectors[j])
			matrix[i][j] = similarity
			matrix[j][i] = similarity
		}
	}

	return matrix
}

package evaluation

import (
	"math"
	"sort"
)

// meteor computes METEOR with exact unigram matching against one reference
func meteor(ref, hyp []string, alpha, beta, gamma float64) float64 {
	matches := alignExact(ref, hyp)
	if len(matches) == 0 {
		return 0
	}

	m := float64(len(matches))
	precision := m / float64(len(hyp))
	recall := m / float64(len(ref))
	fmean := precision * recall / (alpha*precision + (1-alpha)*recall)

	fragmentation := float64(countChunks(matches)) / m
	penalty := gamma * math.Pow(fragmentation, beta)

	return (1 - penalty) * fmean
}

// alignExact pairs equal words. Hypothesis words are visited from the end and each
// takes the last unused equal reference word.
func alignExact(ref, hyp []string) [][2]int {
	used := make([]bool, len(ref))
	var matches [][2]int
	for i := len(hyp) - 1; i >= 0; i-- {
		for j := len(ref) - 1; j >= 0; j-- {
			if !used[j] && hyp[i] == ref[j] {
				used[j] = true
				matches = append(matches, [2]int{i, j})
				break
			}
		}
	}
	sort.Slice(matches, func(a, b int) bool { return matches[a][0] < matches[b][0] })
	return matches
}

// countChunks counts runs of matches adjacent in both hypothesis and reference
func countChunks(matches [][2]int) int {
	if len(matches) == 0 {
		return 0
	}
	chunks := 1
	for i := 0; i+1 < len(matches); i++ {
		if matches[i+1][0] == matches[i][0]+1 && matches[i+1][1] == matches[i][1]+1 {
			continue
		}
		chunks++
	}
	return chunks
}

package evaluation

import "math"

// bleu computes sentence BLEU of hyp against refs with the given n-gram weights.
// Zero n-gram matches are smoothed to epsilon / hypothesis n-gram count and the
// brevity penalty uses the reference length closest to the hypothesis length.
func bleu(refs [][]string, hyp []string, weights []float64, epsilon float64) float64 {
	precisions := make([]float64, len(weights))
	for i := range weights {
		numerator, denominator := modifiedPrecision(refs, hyp, i+1)
		if i == 0 && numerator == 0 {
			return 0
		}
		if numerator == 0 {
			precisions[i] = epsilon / float64(denominator)
		} else {
			precisions[i] = float64(numerator) / float64(denominator)
		}
	}

	var sum float64
	for i, w := range weights {
		if w == 0 {
			continue
		}
		sum += w * math.Log(precisions[i])
	}

	return brevityPenalty(closestRefLength(refs, len(hyp)), len(hyp)) * math.Exp(sum)
}

// modifiedPrecision returns the clipped n-gram matches and the hypothesis n-gram count (at least 1)
func modifiedPrecision(refs [][]string, hyp []string, n int) (int, int) {
	hypCounts := ngramCounts(hyp, n)

	maxRefCounts := map[string]int{}
	for _, ref := range refs {
		for ngram, count := range ngramCounts(ref, n) {
			if count > maxRefCounts[ngram] {
				maxRefCounts[ngram] = count
			}
		}
	}

	numerator, denominator := 0, 0
	for ngram, count := range hypCounts {
		numerator += min(count, maxRefCounts[ngram])
		denominator += count
	}

	return numerator, max(1, denominator)
}

// closestRefLength picks the reference length nearest to hypLen, the shorter one on ties
func closestRefLength(refs [][]string, hypLen int) int {
	best := -1
	for _, ref := range refs {
		refLen := len(ref)
		if best == -1 {
			best = refLen
			continue
		}
		d, bestD := abs(refLen-hypLen), abs(best-hypLen)
		if d < bestD || (d == bestD && refLen < best) {
			best = refLen
		}
	}
	return max(best, 0)
}

func brevityPenalty(refLen, hypLen int) float64 {
	if hypLen > refLen {
		return 1
	}
	if hypLen == 0 {
		return 0
	}
	return math.Exp(1 - float64(refLen)/float64(hypLen))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

package evaluation

// conceptSet returns the content words of a sentence
func conceptSet(text string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, word := range wordTokens(text) {
		if !isStopword(word) {
			set[word] = struct{}{}
		}
	}
	return set
}

// spiceLike is the best concept F1 of hyp over all refs
func spiceLike(refs []string, hyp string) float64 {
	hypSet := conceptSet(hyp)
	if len(hypSet) == 0 {
		return 0
	}

	best := 0.0
	for _, ref := range refs {
		refSet := conceptSet(ref)
		overlap := 0
		for word := range hypSet {
			if _, ok := refSet[word]; ok {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		precision := float64(overlap) / float64(len(hypSet))
		recall := float64(overlap) / float64(len(refSet))
		best = max(best, 2*precision*recall/(precision+recall))
	}

	return best
}

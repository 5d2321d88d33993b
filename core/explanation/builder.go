package explanation

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/siherrmann/captioner/model"
)

// Section headers of the explanation
const (
	HeaderCaptions   = "### What each vision model detected"
	HeaderSimilarity = "### Semantic similarity (agreement between models)"
	HeaderCandidates = "### Tree of Thoughts (refinement candidates)"
	HeaderFinal      = "### Final caption (after refinement)"
	ConsensusChoice  = "**Consensus choice:**"
)

// BuildExplanation renders the decision trail of one run as markdown.
// It is a pure function of its inputs. Scores are shown with two decimals,
// similarity lines are sorted by score descending with ties kept in caption order.
func BuildExplanation(captions model.CaptionSet, consensus *model.ConsensusResult, finalCaption string, candidateDebug *model.CandidateSelection) string {
	lines := []string{HeaderCaptions}
	for _, c := range captions {
		lines = append(lines, fmt.Sprintf("- **%s**: %s", c.Source, c.Text))
	}

	if consensus != nil {
		lines = append(lines, "", HeaderSimilarity)
		for _, s := range SortedScores(consensus.Scores) {
			lines = append(lines, fmt.Sprintf("- **%s** similarity score: `%.2f`", s.Source, s.Score))
		}

		lines = append(lines,
			"",
			fmt.Sprintf("%s we selected **%s** because its caption is the most semantically consistent with the others (highest average similarity).", ConsensusChoice, consensus.BestSource),
			fmt.Sprintf("- Selected caption: _%s_", consensus.BestCaption),
		)
	}

	if candidateDebug != nil {
		lines = append(lines, "", HeaderCandidates)
		for i, candidate := range candidateDebug.Candidates {
			lines = append(lines, fmt.Sprintf("- **%s**: %s", model.CandidateLabel(i), candidate))
		}

		lines = append(lines, "", "**Selection among candidates** (closer to consensus and less verbose):")
		for _, s := range candidateDebug.FinalScore {
			lines = append(lines, fmt.Sprintf("- %s final score: `%.2f`", s.Label, s.Score))
		}

		lines = append(lines, "", fmt.Sprintf("Picked: **%s**", candidateDebug.Picked))
	}

	lines = append(lines, "", HeaderFinal, fmt.Sprintf("**%s**", finalCaption))

	return strings.Join(lines, "\n")
}

// SortedScores returns a copy of scores sorted by score descending, ties keep their order
func SortedScores(scores []model.SourceScore) []model.SourceScore {
	sorted := slices.Clone(scores)
	slices.SortStableFunc(sorted, func(a, b model.SourceScore) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return sorted
}

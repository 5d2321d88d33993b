package evaluation

import "github.com/siherrmann/captioner/model"

// Scorer computes caption metrics against reference captions
type Scorer struct {
	BLEUEpsilon float64
	MeteorAlpha float64
	MeteorBeta  float64
	MeteorGamma float64
}

// bleuWeights are the n-gram weights of BLEU-1 to BLEU-4
var bleuWeights = [][]float64{
	{1, 0, 0, 0},
	{0.5, 0.5, 0, 0},
	{0.33, 0.33, 0.33, 0},
	{0.25, 0.25, 0.25, 0.25},
}

// NewScorer creates a scorer with the usual smoothing and METEOR parameters
func NewScorer() *Scorer {
	return &Scorer{
		BLEUEpsilon: 0.1,
		MeteorAlpha: 0.9,
		MeteorBeta:  3,
		MeteorGamma: 0.5,
	}
}

// Score returns SPICE-like, BLEU-1..4, METEOR and ROUGE-L of hypothesis in that order.
// Without references every metric is 0.
func (s *Scorer) Score(references []string, hypothesis string) model.MetricScores {
	refTokens := make([][]string, len(references))
	for i, ref := range references {
		refTokens[i] = whitespaceTokens(ref)
	}
	hypTokens := whitespaceTokens(hypothesis)

	scores := model.MetricScores{
		{Metric: model.MetricSPICE, Value: spiceLike(references, hypothesis)},
	}

	bleuMetrics := []string{model.MetricBLEU1, model.MetricBLEU2, model.MetricBLEU3, model.MetricBLEU4}
	for i, metric := range bleuMetrics {
		value := 0.0
		if len(refTokens) > 0 {
			value = bleu(refTokens, hypTokens, bleuWeights[i], s.BLEUEpsilon)
		}
		scores = append(scores, model.MetricScore{Metric: metric, Value: value})
	}

	bestMeteor := 0.0
	for _, ref := range refTokens {
		bestMeteor = max(bestMeteor, meteor(ref, hypTokens, s.MeteorAlpha, s.MeteorBeta, s.MeteorGamma))
	}
	scores = append(scores, model.MetricScore{Metric: model.MetricMETEOR, Value: bestMeteor})

	hypWords := wordTokens(hypothesis)
	bestRouge := 0.0
	for _, ref := range references {
		bestRouge = max(bestRouge, rougeL(wordTokens(ref), hypWords))
	}
	scores = append(scores, model.MetricScore{Metric: model.MetricROUGEL, Value: bestRouge})

	return scores
}

// EvaluateAll scores every caption of the set in set order
func (s *Scorer) EvaluateAll(references []string, captions model.CaptionSet) model.Evaluation {
	evaluation := make(model.Evaluation, len(captions))
	for i, caption := range captions {
		evaluation[i] = model.SourceEvaluation{
			Source:  caption.Source,
			Caption: caption.Text,
			Scores:  s.Score(references, caption.Text),
		}
	}
	return evaluation
}

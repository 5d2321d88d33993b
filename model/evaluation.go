package model

// Metric names reported by the evaluation stage, in report order
const (
	MetricSPICE  = "SPICE"
	MetricBLEU1  = "BLEU-1"
	MetricBLEU2  = "BLEU-2"
	MetricBLEU3  = "BLEU-3"
	MetricBLEU4  = "BLEU-4"
	MetricMETEOR = "METEOR"
	MetricROUGEL = "ROUGE-L"
)

// MetricScore is one metric value
type MetricScore struct {
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
}

// MetricScores is an ordered list of metric values for one caption
type MetricScores []MetricScore

// Get returns the value of a metric
func (m MetricScores) Get(metric string) (float64, bool) {
	for _, s := range m {
		if s.Metric == metric {
			return s.Value, true
		}
	}
	return 0, false
}

// SourceEvaluation holds the metric values for one evaluated caption
type SourceEvaluation struct {
	Source  string       `json:"source"`
	Caption string       `json:"caption"`
	Scores  MetricScores `json:"scores"`
}

// Evaluation is the per-source evaluation of a run, in CaptionSet order followed by the final caption
type Evaluation []SourceEvaluation

// For returns the evaluation of a source
func (e Evaluation) For(source string) (*SourceEvaluation, bool) {
	for i := range e {
		if e[i].Source == source {
			return &e[i], true
		}
	}
	return nil, false
}

// ReferenceCaption is one ground truth caption as stored in the reference file
type ReferenceCaption struct {
	Caption string `json:"caption"`
}

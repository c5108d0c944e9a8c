// Package classifier defines the strategy interfaces shared by concrete
// classifiers and the evaluation types they report.
package classifier

import (
	"encoding/json"
	"math"

	"sibyl/internal/frame"
)

// Neighbor pairs a dissimilarity with the index of a reference row.
type Neighbor struct {
	Distance float64 `json:"distance"`
	Index    int     `json:"index"`
}

// Classifier assigns a label to a point and scores itself on held-out data.
type Classifier interface {
	Predict(point []frame.Value) (frame.Value, error)
	Evaluate(test *frame.Frame) (*Evaluation, error)
}

// ProvideFn builds a classifier on demand.
type ProvideFn func() (Classifier, error)

// ConfusionMatrix counts predictions by actual label, then predicted label.
type ConfusionMatrix map[frame.Value]map[frame.Value]int

func (cm ConfusionMatrix) Add(actual, predicted frame.Value) {
	row, ok := cm[actual]
	if !ok {
		row = map[frame.Value]int{}
		cm[actual] = row
	}
	row[predicted]++
}

// MarshalJSON renders the matrix with stringified labels so it can cross
// the HTTP surface.
func (cm ConfusionMatrix) MarshalJSON() ([]byte, error) {
	out := make(map[string]map[string]int, len(cm))
	for actual, row := range cm {
		inner := make(map[string]int, len(row))
		for predicted, n := range row {
			inner[predicted.String()] = n
		}
		out[actual.String()] = inner
	}
	return json.Marshal(out)
}

func (cm ConfusionMatrix) Total() int {
	var total int
	for _, row := range cm {
		for _, n := range row {
			total += n
		}
	}
	return total
}

// Labels returns every label appearing as an actual or predicted class.
func (cm ConfusionMatrix) Labels() []frame.Value {
	seen := map[frame.Value]bool{}
	var labels []frame.Value
	for actual, row := range cm {
		if !seen[actual] {
			seen[actual] = true
			labels = append(labels, actual)
		}
		for predicted := range row {
			if !seen[predicted] {
				seen[predicted] = true
				labels = append(labels, predicted)
			}
		}
	}
	return labels
}

// Evaluation pools the matrix counts across classes. Off-diagonal mass is
// counted once toward the false negatives of its actual class and once
// toward the false positives of its predicted class; nothing is accumulated
// twice into the same figure.
type Evaluation struct {
	Matrix         ConfusionMatrix `json:"matrix"`
	Total          int             `json:"total"`
	TruePositives  int             `json:"truePositives"`
	FalsePositives int             `json:"falsePositives"`
	FalseNegatives int             `json:"falseNegatives"`
}

// Summarize computes the pooled micro counts from a confusion matrix.
func Summarize(cm ConfusionMatrix) *Evaluation {
	e := &Evaluation{Matrix: cm, Total: cm.Total()}
	for actual, row := range cm {
		for predicted, n := range row {
			if actual.Equal(predicted) {
				e.TruePositives += n
				continue
			}
			e.FalseNegatives += n
			e.FalsePositives += n
		}
	}
	return e
}

// MicroPrecision is TP/(TP+FP) as a rounded percentage.
func (e *Evaluation) MicroPrecision() int {
	return percent(e.TruePositives, e.TruePositives+e.FalsePositives)
}

// MicroRecall is TP/(TP+FN) as a rounded percentage.
func (e *Evaluation) MicroRecall() int {
	return percent(e.TruePositives, e.TruePositives+e.FalseNegatives)
}

// MicroAccuracy is TP over the total count as a rounded percentage.
func (e *Evaluation) MicroAccuracy() int {
	return percent(e.TruePositives, e.Total)
}

func percent(num, den int) int {
	if den == 0 {
		return 0
	}
	return int(math.Round(float64(num) / float64(den) * 100))
}

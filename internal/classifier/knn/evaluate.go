package knn

import (
	"sibyl/internal/classifier"
	"sibyl/internal/frame"
)

// Evaluate predicts every row of the test frame and tallies the outcomes
// into a confusion matrix keyed by actual, then predicted label. The test
// frame must share the reference schema.
func (m *Model) Evaluate(test *frame.Frame) (*classifier.Evaluation, error) {
	if test == nil || test.Len() == 0 {
		return nil, frame.BoundsErrf("test frame is empty")
	}
	l := m.ref.LabelIndex()
	if l < 0 {
		return nil, frame.SchemaErrf("label unset, nothing to evaluate")
	}

	matrix := classifier.ConfusionMatrix{}
	for i := 0; i < test.Len(); i++ {
		row, err := test.Row(i)
		if err != nil {
			return nil, err
		}
		if l >= len(row) {
			return nil, frame.SchemaErrf("test row %d has no field for label column %q", i, m.ref.Label())
		}
		actual := row[l]
		predicted, err := m.Predict(row)
		if err != nil {
			return nil, err
		}
		matrix.Add(actual, predicted)
	}
	return classifier.Summarize(matrix), nil
}

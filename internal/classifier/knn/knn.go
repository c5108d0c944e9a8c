// Package knn implements a weighted k-nearest-neighbor classifier over a
// normalized reference frame.
package knn

import (
	"math"

	"sibyl/internal/classifier"
	"sibyl/internal/frame"
	"sibyl/internal/measure"
	"sibyl/pkg/pqueue"
)

var _ classifier.Classifier = (*Model)(nil)

type Option func(*Model)

func WithK(k int) Option {
	return func(m *Model) {
		m.k = k
	}
}

func WithMeasure(ms measure.Measure) Option {
	return func(m *Model) {
		m.measure = ms
	}
}

// WithOrderDesc ranks neighbors by descending score, for measures where
// larger means closer.
func WithOrderDesc() Option {
	return func(m *Model) {
		m.desc = true
	}
}

type Model struct {
	k       int
	ref     *frame.Frame
	measure measure.Measure
	desc    bool
}

// New builds a model over the reference frame. The frame must carry a label
// and at least one row; it is normalized here unless that already happened.
// k must stay within [1, rows].
func New(ref *frame.Frame, opts ...Option) (*Model, error) {
	m := &Model{k: 1, ref: ref, measure: measure.MixedEuclidean{}}
	for _, opt := range opts {
		opt(m)
	}
	if ref == nil || ref.Len() == 0 {
		return nil, frame.BoundsErrf("reference frame is empty")
	}
	if ref.Label() == "" {
		return nil, frame.SchemaErrf("reference frame has no label set")
	}
	if m.k < 1 {
		return nil, frame.BoundsErrf("k must be positive, got %d", m.k)
	}
	if m.k > ref.Len() {
		return nil, frame.BoundsErrf("k %d exceeds the reference row count %d", m.k, ref.Len())
	}
	if !ref.Normalized() {
		if err := ref.Normalize(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NewFromCSV loads the reference set from a CSV file, designates its label
// and builds the model.
func NewFromCSV(path, label string, opts ...Option) (*Model, error) {
	ref, err := frame.ReadCSV(path)
	if err != nil {
		return nil, err
	}
	if err := ref.SetLabel(label); err != nil {
		return nil, err
	}
	return New(ref, opts...)
}

func (m *Model) K() int {
	return m.k
}

func (m *Model) Ref() *frame.Frame {
	return m.ref
}

// SetMeasure swaps the dissimilarity measure and returns the previous one.
func (m *Model) SetMeasure(ms measure.Measure) measure.Measure {
	prev := m.measure
	m.measure = ms
	return prev
}

// FirstKNN scores every reference row against the query point and returns
// the k best pairs in ranking order. Ties keep reference row order. The
// query may carry the full column layout or omit the label.
func (m *Model) FirstKNN(point []frame.Value) ([]classifier.Neighbor, error) {
	if m.ref.Label() == "" {
		return nil, frame.SchemaErrf("label unset, no neighbors computed")
	}
	query, err := m.prepare(point)
	if err != nil {
		return nil, err
	}

	opts := []pqueue.Option{pqueue.WithCap(m.k)}
	if m.desc {
		opts = append(opts, pqueue.WithOrderDesc())
	}
	pq := pqueue.New(opts...)

	for i := 0; i < m.ref.Len(); i++ {
		row, err := m.ref.Row(i)
		if err != nil {
			return nil, err
		}
		d, err := m.measure.Distance(m.ref, row, query)
		if err != nil {
			return nil, err
		}
		pq.Push(i, d)
	}

	neighbors := make([]classifier.Neighbor, pq.Len())
	for i := range neighbors {
		idx, d := pq.Seek(i)
		neighbors[i] = classifier.Neighbor{Distance: d, Index: idx.(int)}
	}
	return neighbors, nil
}

// Predict combines the k nearest labels into a single one by exp(-distance)
// weighted voting. A weight tie resolves to the label reached first in
// neighbor order.
func (m *Model) Predict(point []frame.Value) (frame.Value, error) {
	neighbors, err := m.FirstKNN(point)
	if err != nil {
		return frame.Value{}, err
	}

	l := m.ref.LabelIndex()
	var sum float64
	for _, n := range neighbors {
		sum += math.Exp(-n.Distance)
	}

	weights := map[frame.Value]float64{}
	var order []frame.Value
	for _, n := range neighbors {
		row, err := m.ref.Row(n.Index)
		if err != nil {
			return frame.Value{}, err
		}
		label := row[l]
		if _, seen := weights[label]; !seen {
			order = append(order, label)
		}
		weights[label] += math.Exp(-n.Distance) / sum
	}

	best := order[0]
	for _, label := range order[1:] {
		if weights[label] > weights[best] {
			best = label
		}
	}
	return best, nil
}

// prepare aligns the query to the schema and, when its numeric fields still
// sit inside the stored raw bounds, scales them with the recorded
// parameters. Points outside the raw bounds are taken as already
// normalized and pass through.
func (m *Model) prepare(point []frame.Value) ([]frame.Value, error) {
	query, err := measure.Align(m.ref, point)
	if err != nil {
		return nil, err
	}

	cols := m.ref.Columns()
	aligned := measure.AlignedColumns(m.ref)

	within := true
	for i, col := range aligned {
		if !m.ref.NumericCol(col) {
			continue
		}
		if !query[i].IsNumber() {
			return nil, frame.SchemaErrf("field %d is not numeric, column %q expects a number", i, cols[col])
		}
		min, max, ok := m.ref.Bounds(cols[col])
		if !ok {
			return nil, frame.ErrNotNormalized
		}
		if v := query[i].Number(); v < min || v > max {
			within = false
			break
		}
	}
	if !within {
		return query, nil
	}

	for i, col := range aligned {
		if !m.ref.NumericCol(col) {
			continue
		}
		min, max, _ := m.ref.Bounds(cols[col])
		query[i] = frame.Number(rescale(query[i].Number(), min, max))
	}
	return query, nil
}

func rescale(v, min, max float64) float64 {
	if max == min {
		return 0
	}
	return (v - min) / (max - min)
}

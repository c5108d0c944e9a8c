// Package measure provides pluggable dissimilarity measures over frame rows.
// A measure sees the frame so it can exclude the label column and resolve
// points that omit it.
package measure

import (
	"fmt"
	"math"

	"sibyl/internal/frame"
)

type Type string

const (
	TypeMixedEuclidean Type = "MIXED_EUCLIDEAN"
	TypeMixedManhattan Type = "MIXED_MANHATTAN"
	TypeJaccard        Type = "JACCARD"
)

var (
	ErrShape   = fmt.Errorf("point shape does not match the frame schema")
	ErrKindMix = fmt.Errorf("numeric column holds a non-numeric value")
	ErrNoText  = fmt.Errorf("frame has no categorical column to compare")
	ErrUnknown = fmt.Errorf("unknown measure type")
)

// Measure computes a non-negative dissimilarity between two rows of
// compatible shape. Symmetry is not part of the contract; the provided
// measures are symmetric.
type Measure interface {
	Distance(f *frame.Frame, a, b []frame.Value) (float64, error)
}

// For resolves a measure type name to its implementation.
func For(t Type) (Measure, error) {
	switch t {
	case TypeMixedEuclidean:
		return MixedEuclidean{}, nil
	case TypeMixedManhattan:
		return MixedManhattan{}, nil
	case TypeJaccard:
		return Jaccard{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknown, t)
	}
}

// AlignedColumns returns the indexes of the frame's non-label columns, in
// table order.
func AlignedColumns(f *frame.Frame) []int {
	l := f.LabelIndex()
	cols := f.Columns()
	out := make([]int, 0, len(cols))
	for i := range cols {
		if i == l {
			continue
		}
		out = append(out, i)
	}
	return out
}

// Align maps a point onto the frame's non-label columns. A full-layout point
// drops its label field; a point that omits the label passes through. Every
// other shape is an ErrShape. This is the single place the label-offset
// convention lives; measures and the classifier never re-derive it.
func Align(f *frame.Frame, point []frame.Value) ([]frame.Value, error) {
	cols := len(f.Columns())
	l := f.LabelIndex()
	if l < 0 {
		if len(point) != cols {
			return nil, fmt.Errorf("%w: got %d fields, schema has %d columns", ErrShape, len(point), cols)
		}
		return append([]frame.Value(nil), point...), nil
	}
	switch len(point) {
	case cols:
		out := make([]frame.Value, 0, cols-1)
		out = append(out, point[:l]...)
		out = append(out, point[l+1:]...)
		return out, nil
	case cols - 1:
		return append([]frame.Value(nil), point...), nil
	default:
		return nil, fmt.Errorf("%w: got %d fields, schema has %d columns", ErrShape, len(point), cols)
	}
}

// MixedEuclidean is the default measure: squared differences over numeric
// columns, a 0/1 overlap penalty over categorical ones, square root of the
// sum. The label column is excluded.
type MixedEuclidean struct{}

func (MixedEuclidean) Distance(f *frame.Frame, a, b []frame.Value) (float64, error) {
	return mixed(f, a, b, true)
}

// MixedManhattan accumulates absolute differences instead and skips the
// square root.
type MixedManhattan struct{}

func (MixedManhattan) Distance(f *frame.Frame, a, b []frame.Value) (float64, error) {
	return mixed(f, a, b, false)
}

func mixed(f *frame.Frame, a, b []frame.Value, squared bool) (float64, error) {
	av, err := Align(f, a)
	if err != nil {
		return 0, err
	}
	bv, err := Align(f, b)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i, col := range AlignedColumns(f) {
		if f.NumericCol(col) {
			if !av[i].IsNumber() || !bv[i].IsNumber() {
				return 0, fmt.Errorf("%w: column %d", ErrKindMix, col)
			}
			d := av[i].Number() - bv[i].Number()
			if squared {
				sum += d * d
			} else {
				sum += abs(d)
			}
			continue
		}
		if !av[i].Equal(bv[i]) {
			sum++
		}
	}
	if squared {
		return math.Sqrt(sum), nil
	}
	return sum, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

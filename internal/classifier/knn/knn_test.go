package knn

import (
	"errors"
	"testing"

	"sibyl/internal/frame"
	"sibyl/internal/measure"
)

func refFrame(t *testing.T) *frame.Frame {
	t.Helper()
	f, err := frame.New([]string{"x", "y", "species"}, []bool{true, true, false})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rows := [][]frame.Value{
		{frame.Number(0), frame.Number(0), frame.Text("A")},
		{frame.Number(1), frame.Number(1), frame.Text("A")},
		{frame.Number(10), frame.Number(10), frame.Text("B")},
	}
	for _, row := range rows {
		if err := f.Append(row); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := f.SetLabel("species"); err != nil {
		t.Fatalf("SetLabel: %v", err)
	}
	return f
}

func TestNewValidation(t *testing.T) {
	empty, err := frame.New([]string{"x", "species"}, []bool{true, false})
	if err != nil {
		t.Fatalf("New frame: %v", err)
	}

	unlabeled := refFrame(t)
	// Rebuild without a label.
	noLabel, _ := frame.New(unlabeled.Columns(), []bool{true, true, false})
	for i := 0; i < unlabeled.Len(); i++ {
		row, _ := unlabeled.Row(i)
		if err := noLabel.Append(row); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	tests := []struct {
		name string
		ref  *frame.Frame
		opts []Option
		kind frame.ErrKind
	}{
		{name: "empty_reference", ref: empty, kind: frame.KindBounds},
		{name: "label_unset", ref: noLabel, kind: frame.KindSchema},
		{name: "k_zero", ref: refFrame(t), opts: []Option{WithK(0)}, kind: frame.KindBounds},
		{name: "k_exceeds_rows", ref: refFrame(t), opts: []Option{WithK(4)}, kind: frame.KindBounds},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := New(test.ref, test.opts...)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if frame.KindOf(err) != test.kind {
				t.Errorf("error kind, got %v, expected %v", frame.KindOf(err), test.kind)
			}
		})
	}
}

func TestFirstKNNCountAndOrder(t *testing.T) {
	m, err := New(refFrame(t), WithK(3))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	nn, err := m.FirstKNN([]frame.Value{frame.Number(0.5), frame.Number(0.5)})
	if err != nil {
		t.Fatalf("FirstKNN: %v", err)
	}
	if len(nn) != 3 {
		t.Fatalf("neighbor count, got %d, expected 3", len(nn))
	}
	for i := 1; i < len(nn); i++ {
		if nn[i].Distance < nn[i-1].Distance {
			t.Errorf("distances not ascending: %v then %v", nn[i-1].Distance, nn[i].Distance)
		}
	}
}

func TestFirstKNNStableTies(t *testing.T) {
	f, err := frame.New([]string{"x", "species"}, []bool{true, false})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// Rows 0 and 2 are equidistant from the query; stable selection must
	// keep row 0 first.
	rows := [][]frame.Value{
		{frame.Number(4), frame.Text("A")},
		{frame.Number(5), frame.Text("B")},
		{frame.Number(6), frame.Text("C")},
	}
	for _, row := range rows {
		if err := f.Append(row); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := f.SetLabel("species"); err != nil {
		t.Fatalf("SetLabel: %v", err)
	}
	m, err := New(f, WithK(3))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	nn, err := m.FirstKNN([]frame.Value{frame.Number(5)})
	if err != nil {
		t.Fatalf("FirstKNN: %v", err)
	}
	if nn[0].Index != 1 {
		t.Fatalf("nearest, got row %d, expected 1", nn[0].Index)
	}
	if nn[1].Index != 0 || nn[2].Index != 2 {
		t.Errorf("tied rows must keep reference order, got %d then %d", nn[1].Index, nn[2].Index)
	}
}

func TestFirstKNNQueryLayouts(t *testing.T) {
	m, err := New(refFrame(t), WithK(1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tests := []struct {
		name  string
		point []frame.Value
	}{
		{name: "label_free", point: []frame.Value{frame.Number(1), frame.Number(1)}},
		{name: "full_layout", point: []frame.Value{frame.Number(1), frame.Number(1), frame.Text("A")}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			nn, err := m.FirstKNN(test.point)
			if err != nil {
				t.Fatalf("FirstKNN: %v", err)
			}
			if len(nn) != 1 {
				t.Fatalf("neighbor count, got %d, expected 1", len(nn))
			}
			if nn[0].Index != 1 || nn[0].Distance != 0 {
				t.Errorf("nearest, got row %d at %v, expected row 1 at 0", nn[0].Index, nn[0].Distance)
			}
		})
	}

	if _, err := m.FirstKNN([]frame.Value{frame.Number(1)}); !errors.Is(err, measure.ErrShape) {
		t.Errorf("bad arity, got %v, expected ErrShape", err)
	}
}

func TestPredictIdentityK1(t *testing.T) {
	ref := refFrame(t)
	raw := make([][]frame.Value, ref.Len())
	expected := make([]frame.Value, ref.Len())
	for i := range raw {
		row, _ := ref.Row(i)
		raw[i] = row
		expected[i] = row[2]
	}

	m, err := New(ref, WithK(1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i, row := range raw {
		got, err := m.Predict(row)
		if err != nil {
			t.Fatalf("Predict: %v", err)
		}
		if !got.Equal(expected[i]) {
			t.Errorf("row %d, got %v, expected %v", i, got, expected[i])
		}
	}
}

func TestPredictEndToEnd(t *testing.T) {
	m, err := New(refFrame(t), WithK(1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tests := []struct {
		name     string
		point    []frame.Value
		expected frame.Value
	}{
		{name: "near_origin", point: []frame.Value{frame.Number(0.1), frame.Number(0.1)}, expected: frame.Text("A")},
		{name: "near_far_corner", point: []frame.Value{frame.Number(9), frame.Number(9)}, expected: frame.Text("B")},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := m.Predict(test.point)
			if err != nil {
				t.Fatalf("Predict: %v", err)
			}
			if !got.Equal(test.expected) {
				t.Errorf("predicted label, got %v, expected %v", got, test.expected)
			}
		})
	}
}

func TestPredictUnanimousNeighbors(t *testing.T) {
	f, err := frame.New([]string{"x", "species"}, []bool{true, false})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 4; i++ {
		if err := f.Append([]frame.Value{frame.Number(float64(i)), frame.Text("A")}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := f.Append([]frame.Value{frame.Number(100), frame.Text("B")}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := f.SetLabel("species"); err != nil {
		t.Fatalf("SetLabel: %v", err)
	}
	m, err := New(f, WithK(4))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := m.Predict([]frame.Value{frame.Number(2)})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if !got.Equal(frame.Text("A")) {
		t.Errorf("unanimous neighbors, got %v, expected A", got)
	}
}

func TestPredictWeightTieFirstSeen(t *testing.T) {
	f, err := frame.New([]string{"x", "species"}, []bool{true, false})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// Two rows equidistant from the query with different labels: the vote
	// ties exactly and must resolve to the label seen first in neighbor
	// order, which tie-stability pins to the lower row index.
	rows := [][]frame.Value{
		{frame.Number(4), frame.Text("A")},
		{frame.Number(6), frame.Text("B")},
	}
	for _, row := range rows {
		if err := f.Append(row); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := f.SetLabel("species"); err != nil {
		t.Fatalf("SetLabel: %v", err)
	}
	m, err := New(f, WithK(2))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := m.Predict([]frame.Value{frame.Number(5)})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if !got.Equal(frame.Text("A")) {
		t.Errorf("tied vote, got %v, expected first-seen label A", got)
	}
}

func TestSetMeasureReturnsPrevious(t *testing.T) {
	m, err := New(refFrame(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	prev := m.SetMeasure(measure.MixedManhattan{})
	if _, ok := prev.(measure.MixedEuclidean); !ok {
		t.Errorf("previous measure, got %T, expected MixedEuclidean", prev)
	}
}

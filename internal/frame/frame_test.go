package frame

import (
	"encoding/json"
	"testing"
)

func testFrame(t *testing.T) *Frame {
	t.Helper()
	f, err := New([]string{"x", "y", "species"}, []bool{true, true, false})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rows := [][]Value{
		{Number(0), Number(0), Text("A")},
		{Number(1), Number(1), Text("A")},
		{Number(10), Number(10), Text("B")},
	}
	for _, row := range rows {
		if err := f.Append(row); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	return f
}

func TestFrameAppend(t *testing.T) {
	f := testFrame(t)
	if f.Len() != 3 {
		t.Fatalf("rows, got %d, expected 3", f.Len())
	}

	tests := []struct {
		name string
		row  []Value
		kind ErrKind
	}{
		{name: "arity_mismatch", row: []Value{Number(1)}, kind: KindSchema},
		{name: "kind_mismatch", row: []Value{Text("a"), Number(1), Text("A")}, kind: KindSchema},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := f.Append(test.row)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if KindOf(err) != test.kind {
				t.Errorf("error kind, got %v, expected %v", KindOf(err), test.kind)
			}
		})
	}
	if f.Len() != 3 {
		t.Errorf("failed appends must not change the row count, got %d", f.Len())
	}
}

func TestFrameRow(t *testing.T) {
	f := testFrame(t)
	row, err := f.Row(1)
	if err != nil {
		t.Fatalf("Row: %v", err)
	}
	expected := []Value{Number(1), Number(1), Text("A")}
	for i := range expected {
		if !row[i].Equal(expected[i]) {
			t.Errorf("row cell %d, got %v, expected %v", i, row[i], expected[i])
		}
	}

	if _, err := f.Row(3); KindOf(err) != KindBounds {
		t.Errorf("out of range index must be a bounds error, got %v", err)
	}
	if _, err := f.Row(-1); KindOf(err) != KindBounds {
		t.Errorf("negative index must be a bounds error, got %v", err)
	}
}

func TestFrameSetLabel(t *testing.T) {
	f := testFrame(t)
	if err := f.SetLabel("species"); err != nil {
		t.Fatalf("SetLabel: %v", err)
	}
	if f.LabelIndex() != 2 {
		t.Errorf("label index, got %d, expected 2", f.LabelIndex())
	}
	if err := f.SetLabel("missing"); KindOf(err) != KindSchema {
		t.Errorf("unknown attribute must be a schema error, got %v", err)
	}
	if f.Label() != "species" {
		t.Errorf("failed SetLabel must keep the current label, got %q", f.Label())
	}
}

func TestFrameRemove(t *testing.T) {
	f := testFrame(t)
	if err := f.Remove(0); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if f.Len() != 2 {
		t.Fatalf("rows after remove, got %d, expected 2", f.Len())
	}
	// Swap-with-last moves the former last row into slot 0.
	row, err := f.Row(0)
	if err != nil {
		t.Fatalf("Row: %v", err)
	}
	if !row[2].Equal(Text("B")) {
		t.Errorf("slot 0 after remove, got %v, expected B", row[2])
	}
	if err := f.Remove(5); KindOf(err) != KindBounds {
		t.Errorf("out of range remove must be a bounds error, got %v", err)
	}
}

func TestFrameSplit(t *testing.T) {
	f, err := New([]string{"x", "species"}, []bool{true, false})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	const n = 20
	for i := 0; i < n; i++ {
		if err := f.Append([]Value{Number(float64(i)), Text("A")}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := f.SetLabel("species"); err != nil {
		t.Fatalf("SetLabel: %v", err)
	}

	train, test, err := f.Split(0.75)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if train.Len() != 15 || test.Len() != 5 {
		t.Fatalf("split sizes, got %d/%d, expected 15/5", train.Len(), test.Len())
	}
	if train.Label() != "species" || test.Label() != "species" {
		t.Errorf("split outputs must inherit the label")
	}

	// Disjoint and covering: every original x value appears exactly once.
	seen := map[float64]int{}
	for _, part := range []*Frame{train, test} {
		for i := 0; i < part.Len(); i++ {
			row, err := part.Row(i)
			if err != nil {
				t.Fatalf("Row: %v", err)
			}
			seen[row[0].Number()]++
		}
	}
	if len(seen) != n {
		t.Fatalf("distinct rows, got %d, expected %d", len(seen), n)
	}
	for v, count := range seen {
		if count != 1 {
			t.Errorf("row %v appears %d times, expected once", v, count)
		}
	}
}

func TestFrameSplitRatioOutOfRange(t *testing.T) {
	f := testFrame(t)
	for _, ratio := range []float64{-0.1, 1.1} {
		if _, _, err := f.Split(ratio); KindOf(err) != KindBounds {
			t.Errorf("ratio %v must be a bounds error, got %v", ratio, err)
		}
	}
}

func TestValueEquality(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Value
		expected bool
	}{
		{name: "equal_numbers", a: Number(1.5), b: Number(1.5), expected: true},
		{name: "distinct_numbers", a: Number(1.5), b: Number(2), expected: false},
		{name: "equal_text", a: Text("A"), b: Text("A"), expected: true},
		{name: "distinct_text", a: Text("A"), b: Text("B"), expected: false},
		{name: "number_never_equals_text", a: Number(0), b: Text(""), expected: false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.a.Equal(test.b); got != test.expected {
				t.Errorf("Equal, got %v, expected %v", got, test.expected)
			}
		})
	}
}

func TestValueJSONRoundTrip(t *testing.T) {
	f := testFrame(t)
	row, err := f.Row(2)
	if err != nil {
		t.Fatalf("Row: %v", err)
	}
	var decoded []Value
	if err := json.Unmarshal([]byte(`[10, 10, "B"]`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for i := range row {
		if !decoded[i].Equal(row[i]) {
			t.Errorf("cell %d, got %v, expected %v", i, decoded[i], row[i])
		}
	}
}

func TestParse(t *testing.T) {
	if v := Parse("4.9"); !v.IsNumber() || v.Number() != 4.9 {
		t.Errorf("Parse numeric, got %v", v)
	}
	if v := Parse("Iris-setosa"); v.IsNumber() || v.Text() != "Iris-setosa" {
		t.Errorf("Parse text, got %v", v)
	}
}

// Package frame implements a column-major table over mixed numeric and
// categorical values, with min-max normalization parameters tracked per
// numeric column so externally supplied points can be scaled consistently.
package frame

import (
	"github.com/valyala/fastrand"
)

const (
	nminSuffix = " nmin"
	nmaxSuffix = " nmax"
)

type Frame struct {
	cols    []string
	numeric []bool
	data    map[string][]Value
	size    int
	label   string

	// params maps "<col> nmin"/"<col> nmax" keys to the bounds discovered
	// during normalization.
	params     map[string]float64
	normalized bool

	norm   Normalizer
	renorm Renormalizer
}

// New creates an empty frame with the given column order and type flags.
// Both are fixed for the frame's lifetime.
func New(cols []string, numeric []bool) (*Frame, error) {
	if len(cols) != len(numeric) {
		return nil, SchemaErrf("column/type flag arity mismatch: %d != %d", len(cols), len(numeric))
	}
	f := &Frame{
		cols:    append([]string(nil), cols...),
		numeric: append([]bool(nil), numeric...),
		data:    make(map[string][]Value, len(cols)),
		params:  map[string]float64{},
		norm:    MinMax{},
		renorm:  MinMaxPoint{},
	}
	for _, c := range f.cols {
		f.data[c] = nil
	}
	return f, nil
}

func (f *Frame) Len() int {
	return f.size
}

// Columns returns the column names in table order.
func (f *Frame) Columns() []string {
	return append([]string(nil), f.cols...)
}

func (f *Frame) HasColumn(name string) bool {
	return f.columnIndex(name) >= 0
}

// NumericCol reports the fixed type flag of column idx.
func (f *Frame) NumericCol(idx int) bool {
	return f.numeric[idx]
}

// Numerics returns the names of the numeric columns.
func (f *Frame) Numerics() []string {
	var out []string
	for i, c := range f.cols {
		if f.numeric[i] {
			out = append(out, c)
		}
	}
	return out
}

func (f *Frame) Label() string {
	return f.label
}

// LabelIndex returns the label column position, or -1 when no label is set.
func (f *Frame) LabelIndex() int {
	if f.label == "" {
		return -1
	}
	return f.columnIndex(f.label)
}

// SetLabel designates the label column. Unknown names leave the current
// label unchanged.
func (f *Frame) SetLabel(name string) error {
	if !f.HasColumn(name) {
		return SchemaErrf("attribute %q not found, current label not changed", name)
	}
	f.label = name
	return nil
}

// Column returns the values of one column, in row order.
func (f *Frame) Column(name string) ([]Value, error) {
	if !f.HasColumn(name) {
		return nil, SchemaErrf("attribute %q not found", name)
	}
	return append([]Value(nil), f.data[name]...), nil
}

// Row returns a copy of row at, assembled in column order.
func (f *Frame) Row(at int) ([]Value, error) {
	if at < 0 || at >= f.size {
		return nil, BoundsErrf("row index %d out of range [0, %d)", at, f.size)
	}
	row := make([]Value, len(f.cols))
	for i, c := range f.cols {
		row[i] = f.data[c][at]
	}
	return row, nil
}

// Append adds one row. The row must match the column arity and each cell the
// column's fixed type flag.
func (f *Frame) Append(row []Value) error {
	if len(row) != len(f.cols) {
		return SchemaErrf("row arity %d does not match %d columns", len(row), len(f.cols))
	}
	for i, v := range row {
		if v.IsNumber() != f.numeric[i] {
			return SchemaErrf("cell %d kind does not match column %q type", i, f.cols[i])
		}
	}
	for i, c := range f.cols {
		f.data[c] = append(f.data[c], row[i])
	}
	f.size++
	return nil
}

// Remove drops row at by swapping it with the last row.
func (f *Frame) Remove(at int) error {
	if at < 0 || at >= f.size {
		return BoundsErrf("row index %d out of range [0, %d)", at, f.size)
	}
	last := f.size - 1
	for _, c := range f.cols {
		col := f.data[c]
		col[at] = col[last]
		f.data[c] = col[:last]
	}
	f.size--
	return nil
}

// Split partitions the rows into two new frames by a uniform random shuffle:
// floor(ratio*rows) rows go to the first, the rest to the second. Both
// outputs inherit column order, type flags and label; neither inherits
// normalization parameters.
func (f *Frame) Split(ratio float64) (*Frame, *Frame, error) {
	if ratio < 0 || ratio > 1 {
		return nil, nil, BoundsErrf("split ratio %v outside [0, 1]", ratio)
	}
	first, err := f.emptyLike()
	if err != nil {
		return nil, nil, err
	}
	second, err := f.emptyLike()
	if err != nil {
		return nil, nil, err
	}

	idx := make([]int, f.size)
	for i := range idx {
		idx[i] = i
	}
	for i := len(idx) - 1; i > 0; i-- {
		j := int(fastrand.Uint32n(uint32(i + 1)))
		idx[i], idx[j] = idx[j], idx[i]
	}

	cut := int(ratio * float64(f.size))
	for i, at := range idx {
		row, err := f.Row(at)
		if err != nil {
			return nil, nil, err
		}
		dst := first
		if i >= cut {
			dst = second
		}
		if err := dst.Append(row); err != nil {
			return nil, nil, err
		}
	}
	return first, second, nil
}

// Bounds returns the recorded raw min/max of a numeric column. ok is false
// until Normalize has run.
func (f *Frame) Bounds(col string) (min, max float64, ok bool) {
	min, okMin := f.params[col+nminSuffix]
	max, okMax := f.params[col+nmaxSuffix]
	return min, max, okMin && okMax
}

func (f *Frame) Normalized() bool {
	return f.normalized
}

// Normalize scales every numeric column in place with the configured
// strategy and records its parameters. Runs exactly once per frame.
func (f *Frame) Normalize() error {
	if f.normalized {
		return ErrAlreadyNormalized
	}
	if f.size == 0 {
		return BoundsErrf("cannot normalize an empty frame")
	}
	if err := f.norm.Normalize(f); err != nil {
		return err
	}
	f.normalized = true
	return nil
}

// Renormalize scales the numeric entries of an externally supplied point
// with the stored parameters, in place. The point must carry the frame's
// full column layout, label included.
func (f *Frame) Renormalize(point []Value) error {
	if !f.normalized {
		return ErrNotNormalized
	}
	return f.renorm.Renormalize(f, point)
}

// WithinBounds reports whether every numeric field of a full-layout point
// falls inside the stored raw [nmin, nmax] bounds, i.e. whether the point
// still looks like raw data that renormalization applies to.
func (f *Frame) WithinBounds(point []Value) bool {
	if !f.normalized || len(point) != len(f.cols) {
		return false
	}
	for i, c := range f.cols {
		if !f.numeric[i] {
			continue
		}
		min, max, ok := f.Bounds(c)
		if !ok {
			return false
		}
		if v := point[i].Number(); v < min || v > max {
			return false
		}
	}
	return true
}

// SetNormalizer swaps the normalization strategy and returns the previous
// one.
func (f *Frame) SetNormalizer(n Normalizer) Normalizer {
	prev := f.norm
	f.norm = n
	return prev
}

// SetRenormalizer swaps the point scaling strategy and returns the previous
// one.
func (f *Frame) SetRenormalizer(r Renormalizer) Renormalizer {
	prev := f.renorm
	f.renorm = r
	return prev
}

func (f *Frame) emptyLike() (*Frame, error) {
	out, err := New(f.cols, f.numeric)
	if err != nil {
		return nil, err
	}
	out.label = f.label
	return out, nil
}

func (f *Frame) columnIndex(name string) int {
	for i, c := range f.cols {
		if c == name {
			return i
		}
	}
	return -1
}

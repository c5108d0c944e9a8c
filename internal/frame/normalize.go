package frame

// Normalizer computes scaling parameters from a frame and applies them to
// every numeric column in place.
type Normalizer interface {
	Normalize(f *Frame) error
}

// Renormalizer applies a frame's stored parameters to a single full-layout
// point.
type Renormalizer interface {
	Renormalize(f *Frame, point []Value) error
}

// MinMax is the default Normalizer: per numeric column it records the raw
// minimum and maximum under the "<col> nmin"/"<col> nmax" keys and rewrites
// every value to (v-min)/(max-min).
type MinMax struct{}

func (MinMax) Normalize(f *Frame) error {
	for i, c := range f.cols {
		if !f.numeric[i] {
			continue
		}
		col := f.data[c]
		min, max := col[0].Number(), col[0].Number()
		for _, v := range col[1:] {
			if v.Number() < min {
				min = v.Number()
			}
			if v.Number() > max {
				max = v.Number()
			}
		}
		f.params[c+nminSuffix] = min
		f.params[c+nmaxSuffix] = max
		for j, v := range col {
			col[j] = Number(scale(v.Number(), min, max))
		}
	}
	return nil
}

// MinMaxPoint is the default Renormalizer: it applies the stored bounds, not
// the point's own range, so a raw query point becomes comparable to the
// normalized frame.
type MinMaxPoint struct{}

func (MinMaxPoint) Renormalize(f *Frame, point []Value) error {
	if len(point) != len(f.cols) {
		return SchemaErrf("point arity %d does not match %d columns", len(point), len(f.cols))
	}
	for i, c := range f.cols {
		if !f.numeric[i] {
			continue
		}
		if !point[i].IsNumber() {
			return SchemaErrf("field %d is not numeric, column %q expects a number", i, c)
		}
		min, max, ok := f.Bounds(c)
		if !ok {
			return ErrNotNormalized
		}
		point[i] = Number(scale(point[i].Number(), min, max))
	}
	return nil
}

// scale maps v onto [0,1] by the recorded bounds. A degenerate column with
// min == max maps to 0 instead of dividing by zero.
func scale(v, min, max float64) float64 {
	if max == min {
		return 0
	}
	return (v - min) / (max - min)
}

package measure

import (
	"sibyl/internal/frame"
)

// Jaccard is a dissimilarity over the first categorical column: one minus
// the Jaccard coefficient of the two values' character multisets. Suited to
// short-token data such as name/gender tables; numeric columns are ignored.
type Jaccard struct{}

func (Jaccard) Distance(f *frame.Frame, a, b []frame.Value) (float64, error) {
	av, err := Align(f, a)
	if err != nil {
		return 0, err
	}
	bv, err := Align(f, b)
	if err != nil {
		return 0, err
	}

	for i, col := range AlignedColumns(f) {
		if f.NumericCol(col) {
			continue
		}
		return jaccard(av[i].Text(), bv[i].Text()), nil
	}
	return 0, ErrNoText
}

func jaccard(a, b string) float64 {
	ca := runeCounts(a)
	cb := runeCounts(b)

	var inter, sizeA, sizeB int
	for r, n := range ca {
		sizeA += n
		if m := cb[r]; m < n {
			inter += m
		} else {
			inter += n
		}
	}
	for _, n := range cb {
		sizeB += n
	}

	union := sizeA + sizeB - inter
	if union == 0 {
		return 0
	}
	return 1 - float64(inter)/float64(union)
}

func runeCounts(s string) map[rune]int {
	counts := make(map[rune]int, len(s))
	for _, r := range s {
		counts[r]++
	}
	return counts
}

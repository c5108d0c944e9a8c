// Package plot renders a gnuplot script scattering two numeric columns,
// one series per label.
package plot

import (
	"fmt"
	"io"
	"os"

	"sibyl/internal/frame"
)

// Render writes a self-contained gnuplot script for the frame's xCol/yCol
// scatter. With a label set, each label becomes its own series; an optional
// full-layout or label-free target point is drawn as a separate marker.
func Render(w io.Writer, f *frame.Frame, xCol, yCol string, target []frame.Value) error {
	xi, yi, err := axes(f, xCol, yCol)
	if err != nil {
		return err
	}

	series, order, err := group(f, xi, yi)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "set xlabel %q\nset ylabel %q\nset key outside\n", xCol, yCol); err != nil {
		return err
	}

	if _, err := io.WriteString(w, "plot "); err != nil {
		return err
	}
	for i, label := range order {
		if i > 0 {
			if _, err := io.WriteString(w, ", "); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "'-' title %q with points", label); err != nil {
			return err
		}
	}
	if target != nil {
		if len(order) > 0 {
			if _, err := io.WriteString(w, ", "); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "'-' title \"query\" with points pointtype 7"); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}

	for _, label := range order {
		for _, p := range series[label] {
			if _, err := fmt.Fprintf(w, "%g %g\n", p[0], p[1]); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "e\n"); err != nil {
			return err
		}
	}
	if target != nil {
		tx, ty, err := targetPoint(f, xi, yi, target)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%g %g\ne\n", tx, ty); err != nil {
			return err
		}
	}
	return nil
}

// RenderFile writes the script to path.
func RenderFile(path string, f *frame.Frame, xCol, yCol string, target []frame.Value) error {
	file, err := os.Create(path)
	if err != nil {
		return frame.IOErr(fmt.Sprintf("creating plot file %s", path), err)
	}
	defer file.Close()

	if err := Render(file, f, xCol, yCol, target); err != nil {
		return err
	}
	return file.Close()
}

func axes(f *frame.Frame, xCol, yCol string) (int, int, error) {
	xi, yi := -1, -1
	for i, c := range f.Columns() {
		switch c {
		case xCol:
			xi = i
		case yCol:
			yi = i
		}
	}
	if xi < 0 || yi < 0 {
		return 0, 0, frame.SchemaErrf("plot axes %q/%q not found in schema", xCol, yCol)
	}
	if !f.NumericCol(xi) || !f.NumericCol(yi) {
		return 0, 0, frame.SchemaErrf("plot axes %q/%q must be numeric", xCol, yCol)
	}
	return xi, yi, nil
}

func group(f *frame.Frame, xi, yi int) (map[string][][2]float64, []string, error) {
	l := f.LabelIndex()
	series := map[string][][2]float64{}
	var order []string
	for i := 0; i < f.Len(); i++ {
		row, err := f.Row(i)
		if err != nil {
			return nil, nil, err
		}
		label := "data"
		if l >= 0 {
			label = row[l].String()
		}
		if _, ok := series[label]; !ok {
			order = append(order, label)
		}
		series[label] = append(series[label], [2]float64{row[xi].Number(), row[yi].Number()})
	}
	return series, order, nil
}

func targetPoint(f *frame.Frame, xi, yi int, target []frame.Value) (float64, float64, error) {
	cols := len(f.Columns())
	l := f.LabelIndex()
	if len(target) == cols {
		return target[xi].Number(), target[yi].Number(), nil
	}
	if l >= 0 && len(target) == cols-1 {
		tx, ty := xi, yi
		if xi > l {
			tx--
		}
		if yi > l {
			ty--
		}
		return target[tx].Number(), target[ty].Number(), nil
	}
	return 0, 0, frame.SchemaErrf("target point arity %d does not match schema", len(target))
}

package frame

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// ReadCSV loads a frame from a comma-separated file. The first line names
// the columns, the second line's per-cell shape fixes each column's type for
// every subsequent row. Trailing carriage returns are stripped; embedded
// commas are not escaped. An unreadable path yields an empty frame and a
// KindIO error.
func ReadCSV(path string) (*Frame, error) {
	empty, _ := New(nil, nil)
	file, err := os.Open(path)
	if err != nil {
		return empty, IOErr(path+": no such file or the path is unreadable", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return empty, IOErr(path+": read failed", err)
		}
		return empty, IOErr(path+": empty file", nil)
	}
	cols := strings.Split(strings.TrimSuffix(scanner.Text(), "\r"), ",")

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return empty, IOErr(path+": read failed", err)
		}
		return empty, IOErr(path+": no data rows", nil)
	}
	cells := strings.Split(strings.TrimSuffix(scanner.Text(), "\r"), ",")
	if len(cells) != len(cols) {
		return empty, SchemaErrf("%s: first data row arity %d does not match header arity %d", path, len(cells), len(cols))
	}

	numeric := make([]bool, len(cells))
	first := make([]Value, len(cells))
	for i, cell := range cells {
		first[i] = Parse(cell)
		numeric[i] = first[i].IsNumber()
	}

	f, err := New(cols, numeric)
	if err != nil {
		return empty, err
	}
	if err := f.Append(first); err != nil {
		return empty, err
	}

	for scanner.Scan() {
		cells := strings.Split(strings.TrimSuffix(scanner.Text(), "\r"), ",")
		if len(cells) != len(cols) {
			return empty, SchemaErrf("%s: row %d arity %d does not match header arity %d", path, f.Len()+1, len(cells), len(cols))
		}
		row := make([]Value, len(cells))
		for i, cell := range cells {
			row[i] = coerce(cell, numeric[i])
		}
		if err := f.Append(row); err != nil {
			return empty, err
		}
	}
	if err := scanner.Err(); err != nil {
		return empty, IOErr(path+": read failed", err)
	}
	return f, nil
}

// coerce follows the fixed column type: unparseable numeric cells become 0.
func coerce(cell string, numeric bool) Value {
	if !numeric {
		return Text(cell)
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return Number(0)
	}
	return Number(v)
}

// WriteCSV writes the header and rows, comma separated, without escaping.
func WriteCSV(f *Frame, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return IOErr(path+": unable to create file", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if _, err := w.WriteString(strings.Join(f.Columns(), ",") + "\n"); err != nil {
		return IOErr(path+": write failed", err)
	}
	for i := 0; i < f.Len(); i++ {
		row, err := f.Row(i)
		if err != nil {
			return err
		}
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = v.String()
		}
		if _, err := w.WriteString(strings.Join(cells, ",") + "\n"); err != nil {
			return IOErr(path+": write failed", err)
		}
	}
	if err := w.Flush(); err != nil {
		return IOErr(path+": flush failed", err)
	}
	return nil
}

// Package model holds the persisted shape of a labeled dataset.
package model

import (
	"time"

	"github.com/google/uuid"

	"sibyl/internal/frame"
)

func NewDataset(name, label string, columns []string, numeric []bool, rows [][]frame.Value) Dataset {
	return Dataset{
		ID:        uuid.New(),
		Name:      name,
		Label:     label,
		Columns:   columns,
		Numeric:   numeric,
		Rows:      rows,
		CreatedAt: time.Now(),
	}
}

// FromFrame captures a frame row by row. The rows keep whatever scaling the
// frame currently carries, so capture before normalizing.
func FromFrame(name string, f *frame.Frame) (Dataset, error) {
	rows := make([][]frame.Value, 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		row, err := f.Row(i)
		if err != nil {
			return Dataset{}, err
		}
		rows = append(rows, row)
	}
	numeric := make([]bool, len(f.Columns()))
	for i := range numeric {
		numeric[i] = f.NumericCol(i)
	}
	return NewDataset(name, f.Label(), f.Columns(), numeric, rows), nil
}

type Dataset struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Label     string          `json:"label"`
	Columns   []string        `json:"columns"`
	Numeric   []bool          `json:"numeric"`
	Rows      [][]frame.Value `json:"rows"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Frame rebuilds the stored rows into a frame with the label designated.
func (d Dataset) Frame() (*frame.Frame, error) {
	f, err := frame.New(d.Columns, d.Numeric)
	if err != nil {
		return nil, err
	}
	for _, row := range d.Rows {
		if err := f.Append(row); err != nil {
			return nil, err
		}
	}
	if d.Label != "" {
		if err := f.SetLabel(d.Label); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (d Dataset) Size() int {
	return len(d.Rows)
}

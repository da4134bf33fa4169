package domain

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch is returned when a mask does not match the grid it is applied to.
var ErrShapeMismatch = errors.New("mask shape does not match grid")

// Mask is a row-major boolean grid: Cells[i*Cols+j] belongs to latitude i, longitude j.
type Mask struct {
	Rows  int
	Cols  int
	Cells []bool
}

// NewMask returns an all-false mask of the given shape.
func NewMask(rows, cols int) Mask {
	return Mask{Rows: rows, Cols: cols, Cells: make([]bool, rows*cols)}
}

// At returns the cell at latitude index i and longitude index j.
func (m Mask) At(i, j int) bool {
	return m.Cells[i*m.Cols+j]
}

// Set assigns the cell at latitude index i and longitude index j.
func (m Mask) Set(i, j int, v bool) {
	m.Cells[i*m.Cols+j] = v
}

// Count returns the number of true cells.
func (m Mask) Count() int {
	n := 0
	for _, c := range m.Cells {
		if c {
			n++
		}
	}
	return n
}

// ValidPoints enumerates the coordinates of every true mask cell in row-major
// order: latitude index first, then longitude index. Cell (i, j) maps to
// (lats[i], lons[j]).
func ValidPoints(m Mask, lats, lons []float64) ([]GridPoint, error) {
	if m.Rows != len(lats) || m.Cols != len(lons) {
		return nil, fmt.Errorf("%w: mask is %dx%d, grid is %dx%d",
			ErrShapeMismatch, m.Rows, m.Cols, len(lats), len(lons))
	}
	if len(m.Cells) != m.Rows*m.Cols {
		return nil, fmt.Errorf("%w: mask has %d cells for shape %dx%d",
			ErrShapeMismatch, len(m.Cells), m.Rows, m.Cols)
	}

	points := make([]GridPoint, 0, m.Count())
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			if m.At(i, j) {
				points = append(points, GridPoint{Lat: lats[i], Lon: lons[j]})
			}
		}
	}
	return points, nil
}

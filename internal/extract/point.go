// Package extract pulls per-point daily series out of gridded datasets and
// runs that extraction over many points with a bounded worker pool.
package extract

import (
	"errors"
	"fmt"
	"time"

	"go.ngs.io/agroclim/internal/adapter/grid"
	"go.ngs.io/agroclim/internal/domain"
)

// ErrEmptyGrid is returned when a dataset has no coordinates on an axis.
var ErrEmptyGrid = errors.New("dataset grid is empty")

// Cell returns the grid indices nearest to p, looked up per axis.
func Cell(r domain.GridReader, p domain.GridPoint) (latIdx, lonIdx int, err error) {
	lats, lons := r.Latitudes(), r.Longitudes()
	if len(lats) == 0 || len(lons) == 0 {
		return 0, 0, ErrEmptyGrid
	}
	latIdx = grid.NearestIndex(lats, p.Lat)
	lonIdx = grid.NearestIndex(lons, grid.NormalizeLonForAxis(lons, p.Lon))
	return latIdx, lonIdx, nil
}

// Extract returns the daily series of variables at the grid cell nearest to p.
// Dates are the dataset timestamps with the time of day dropped.
func Extract(r domain.GridReader, p domain.GridPoint, variables []string) (domain.Series, error) {
	latIdx, lonIdx, err := Cell(r, p)
	if err != nil {
		return domain.Series{}, err
	}

	times := r.Times()
	s := domain.Series{
		Variables: append([]string(nil), variables...),
		Dates:     make([]time.Time, 0, len(times)),
		Columns:   make([][]float64, len(variables)),
	}
	for _, t := range times {
		s.Dates = append(s.Dates, domain.DateOf(t))
	}

	for v, name := range variables {
		col, err := r.ReadCell(name, latIdx, lonIdx)
		if err != nil {
			return domain.Series{}, fmt.Errorf("read %s at %s: %w", name, p.Key(), err)
		}
		if len(col) != len(times) {
			return domain.Series{}, fmt.Errorf("read %s at %s: got %d values for %d dates", name, p.Key(), len(col), len(times))
		}
		s.Columns[v] = col
	}
	return s, nil
}

package usecase_test

import (
	"sync/atomic"
	"time"

	"go.ngs.io/agroclim/internal/domain"
)

// memGrid is an in-memory grid. values[v][k][i][j] is variable v on date k at cell (i, j).
type memGrid struct {
	lats, lons []float64
	times      []time.Time
	values     map[string][][][]float64
}

func (g *memGrid) Latitudes() []float64  { return g.lats }
func (g *memGrid) Longitudes() []float64 { return g.lons }
func (g *memGrid) Times() []time.Time    { return g.times }

func (g *memGrid) ReadCell(variable string, latIdx, lonIdx int) ([]float64, error) {
	cube, ok := g.values[variable]
	out := make([]float64, len(g.times))
	for k := range out {
		if !ok {
			out[k] = domain.Missing()
			continue
		}
		out[k] = cube[k][latIdx][lonIdx]
	}
	return out, nil
}

func (g *memGrid) Close() error { return nil }

type memSource struct {
	name   string
	grid   *memGrid
	opened atomic.Int64
}

func (s *memSource) Name() string { return s.name }

func (s *memSource) Open() (domain.GridReader, error) {
	if s.grid == nil {
		return nil, nil
	}
	s.opened.Add(1)
	return s.grid, nil
}

// newGrid builds a 2x3 grid where every variable equals fn(k, i, j).
func newGrid(start time.Time, days int, vars []string, fn func(k, i, j int) float64) *memGrid {
	g := &memGrid{
		lats:   []float64{50, 51},
		lons:   []float64{10, 11, 12},
		values: map[string][][][]float64{},
	}
	for k := 0; k < days; k++ {
		g.times = append(g.times, start.AddDate(0, 0, k))
	}
	for _, v := range vars {
		cube := make([][][]float64, days)
		for k := range cube {
			cube[k] = make([][]float64, len(g.lats))
			for i := range cube[k] {
				cube[k][i] = make([]float64, len(g.lons))
				for j := range cube[k][i] {
					cube[k][i][j] = fn(k, i, j)
				}
			}
		}
		g.values[v] = cube
	}
	return g
}

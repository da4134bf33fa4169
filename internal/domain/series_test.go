package domain_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/agroclim/internal/domain"
)

var nan = math.NaN()

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// series builds a series from consecutive dates starting at start.
func series(t *testing.T, vars []string, start time.Time, cols ...[]float64) domain.Series {
	t.Helper()
	require.Len(t, cols, len(vars))
	n := len(cols[0])
	s := domain.NewSeries(vars, n)
	for k := 0; k < n; k++ {
		s.Dates[k] = start.AddDate(0, 0, k)
	}
	for v, col := range cols {
		require.Len(t, col, n)
		copy(s.Columns[v], col)
	}
	require.NoError(t, s.Validate())
	return s
}

func TestDateOf_DropsTimeOfDay(t *testing.T) {
	ts := time.Date(2023, 1, 1, 12, 30, 0, 0, time.UTC)
	assert.Equal(t, day(2023, 1, 1), domain.DateOf(ts))
}

func TestSeries_LastValidIndex(t *testing.T) {
	vars := []string{domain.VarTempMean, domain.VarPrecipitation}
	s := series(t, vars, day(2023, 1, 1),
		[]float64{1, 2, 3, nan},
		[]float64{0, nan, 1, 1},
	)
	assert.Equal(t, 2, s.LastValidIndex())

	empty := series(t, vars, day(2023, 1, 1), []float64{nan, nan}, []float64{1, 1})
	assert.Equal(t, -1, empty.LastValidIndex())
}

func TestSeries_CloneIsIndependent(t *testing.T) {
	s := series(t, []string{domain.VarTempMean}, day(2023, 1, 1), []float64{1, 2})
	c := s.Clone()
	c.Columns[0][0] = 99
	c.Dates[0] = day(1999, 1, 1)

	assert.Equal(t, 1.0, s.Columns[0][0])
	assert.Equal(t, day(2023, 1, 1), s.Dates[0])
}

func TestSeries_SelectReordersColumns(t *testing.T) {
	s := series(t, []string{"a", "b"}, day(2023, 1, 1), []float64{1}, []float64{2})

	got, err := s.Select([]string{"b", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, got.Variables)
	assert.Equal(t, [][]float64{{2}, {1}}, got.Columns)

	_, err = s.Select([]string{"c"})
	require.ErrorIs(t, err, domain.ErrVariableMismatch)
}

func TestSeries_ValidateRejectsUnorderedDates(t *testing.T) {
	s := domain.NewSeries([]string{"a"}, 2)
	s.Dates[0] = day(2023, 1, 2)
	s.Dates[1] = day(2023, 1, 1)
	assert.Error(t, s.Validate())
}

func TestGridPoint_KeyRoundTrip(t *testing.T) {
	p := domain.GridPoint{Lat: 54.80027617931778, Lon: 9.647312950670669}
	assert.Equal(t, "54.80027617931778,9.647312950670669", p.Key())

	got, err := domain.ParseKey(p.Key())
	require.NoError(t, err)
	assert.Equal(t, p, got)

	_, err = domain.ParseKey("54.8")
	assert.Error(t, err)
}

func TestExtractionResult_PointsSorted(t *testing.T) {
	r := domain.ExtractionResult{
		{Lat: 2, Lon: 1}: {},
		{Lat: 1, Lon: 2}: {},
		{Lat: 1, Lon: 1}: {},
	}
	assert.Equal(t, []domain.GridPoint{{Lat: 1, Lon: 1}, {Lat: 1, Lon: 2}, {Lat: 2, Lon: 1}}, r.Points())

	collisions := r.Merge(domain.ExtractionResult{{Lat: 1, Lon: 1}: {}, {Lat: 3, Lon: 3}: {}})
	assert.Equal(t, 1, collisions)
	assert.Len(t, r, 4)
}

package climate

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testLats = []float64{-30, -29.5, -29}
	testLons = []float64{150, 150.5}
)

func days(start time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

// cellValue encodes the position so reads can be checked exactly.
func cellValue(k, i, j int, base float64) float64 {
	return base + float64(k)*100 + float64(i)*10 + float64(j)
}

func writeYear(t *testing.T, path string, year int, n int, vars ...string) {
	t.Helper()
	times := days(time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC), n)
	spec := GridSpec{
		Lats:      testLats,
		Lons:      testLons,
		Times:     times,
		TimeUnits: "days since 1900-01-01",
		Variables: map[string][]float64{},
	}
	for _, name := range vars {
		data := make([]float64, 0, n*len(testLats)*len(testLons))
		for k := 0; k < n; k++ {
			for i := range testLats {
				for j := range testLons {
					data = append(data, cellValue(k, i, j, float64(year-2000)*1000))
				}
			}
		}
		spec.Variables[name] = data
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, WriteGrid(path, spec))
}

func TestOpenDataset_SingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.nc")
	writeYear(t, path, 2020, 3, "pr", "tas")

	ds, err := OpenDataset([]string{path})
	require.NoError(t, err)
	defer func() { _ = ds.Close() }()

	assert.Equal(t, testLats, ds.Latitudes())
	assert.Equal(t, testLons, ds.Longitudes())
	require.Len(t, ds.Times(), 3)
	assert.Equal(t, time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC), ds.Times()[2])

	got, err := ds.ReadCell("tas", 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{20021, 20121, 20221}, got)
}

func TestOpenDataset_ConcatenatesSortedByTime(t *testing.T) {
	dir := t.TempDir()
	p2021 := filepath.Join(dir, "2021.nc")
	p2020 := filepath.Join(dir, "2020.nc")
	writeYear(t, p2021, 2021, 2, "pr")
	writeYear(t, p2020, 2020, 2, "pr")

	ds, err := OpenDataset([]string{p2021, p2020})
	require.NoError(t, err)
	defer func() { _ = ds.Close() }()

	assert.Equal(t, []string{p2020, p2021}, ds.Files())
	require.Len(t, ds.Times(), 4)
	assert.Equal(t, 2020, ds.Times()[0].Year())
	assert.Equal(t, 2021, ds.Times()[3].Year())

	got, err := ds.ReadCell("pr", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{20000, 20100, 21000, 21100}, got)
}

func TestReadCell_FillValueIsNaN(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fill.nc")
	nan := math.NaN()
	require.NoError(t, WriteGrid(path, GridSpec{
		Lats:      []float64{0},
		Lons:      []float64{0},
		Times:     days(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 3),
		Variables: map[string][]float64{"pr": {1.5, nan, 2.5}},
	}))

	ds, err := OpenDataset([]string{path})
	require.NoError(t, err)
	defer func() { _ = ds.Close() }()

	got, err := ds.ReadCell("pr", 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 1.5, got[0])
	assert.True(t, math.IsNaN(got[1]))
	assert.Equal(t, 2.5, got[2])
}

func TestReadCell_Errors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.nc")
	writeYear(t, path, 2020, 1, "pr")

	ds, err := OpenDataset([]string{path})
	require.NoError(t, err)

	_, err = ds.ReadCell("missing", 0, 0)
	assert.Error(t, err)

	_, err = ds.ReadCell("pr", 3, 0)
	assert.Error(t, err)

	require.NoError(t, ds.Close())
	require.NoError(t, ds.Close())

	_, err = ds.ReadCell("pr", 0, 0)
	assert.Error(t, err)
}

func TestOpenDataset_GridMismatch(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.nc")
	b := filepath.Join(dir, "b.nc")
	writeYear(t, a, 2020, 1, "pr")
	require.NoError(t, WriteGrid(b, GridSpec{
		Lats:      []float64{1, 2},
		Lons:      []float64{1, 2},
		Times:     days(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), 1),
		Variables: map[string][]float64{"pr": {0, 0, 0, 0}},
	}))

	_, err := OpenDataset([]string{a, b})
	assert.Error(t, err)
}

func TestOpenDataset_NoFiles(t *testing.T) {
	_, err := OpenDataset(nil)
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestWriteGrid_RejectsWrongLength(t *testing.T) {
	err := WriteGrid(filepath.Join(t.TempDir(), "bad.nc"), GridSpec{
		Lats:      []float64{0, 1},
		Lons:      []float64{0},
		Times:     days(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 1),
		Variables: map[string][]float64{"pr": {1}},
	})
	assert.Error(t, err)
}

func TestWriteGrid_ClosesBeforeReturn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.nc")
	spec := GridSpec{
		Lats:      []float64{0, 1},
		Lons:      []float64{0},
		Times:     days(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 2),
		Variables: map[string][]float64{"bad/name": {1, 2, 3, 4}},
	}
	assert.Error(t, WriteGrid(path, spec), "invalid variable name")

	// The failed attempt released its handle, so the path can be rewritten.
	spec.Variables = map[string][]float64{"pr": {1, 2, 3, 4}}
	require.NoError(t, WriteGrid(path, spec))

	ds, err := OpenDataset([]string{path})
	require.NoError(t, err)
	defer func() { _ = ds.Close() }()
	got, err := ds.ReadCell("pr", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4}, got, "all data flushed on return")
}

package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go.ngs.io/agroclim/internal/domain"
)

func TestConvertForecastUnits(t *testing.T) {
	vars := []string{domain.VarTempMean, domain.VarTempMax, domain.VarTempMin, domain.VarRadiation, domain.VarPrecipitation}
	fc := series(t, vars, day(2023, 1, 1),
		[]float64{278.15, 280.15},
		[]float64{283.15, nan},
		[]float64{273.15, 270.15},
		[]float64{10, 12.5},
		[]float64{1.2, 0},
	)

	got := domain.ConvertForecastUnits(fc)

	assert.InDeltaSlice(t, []float64{5, 7}, got.Columns[0], 1e-9)
	assert.InDelta(t, 10.0, got.Columns[1][0], 1e-9)
	assert.True(t, domain.IsMissing(got.Columns[1][1]), "missing values stay missing")
	assert.InDeltaSlice(t, []float64{0, -3}, got.Columns[2], 1e-9)
	assert.InDeltaSlice(t, []float64{240, 300}, got.Columns[3], 1e-9)
	assert.Equal(t, []float64{1.2, 0}, got.Columns[4], "other variables pass through")

	// Input is untouched.
	assert.Equal(t, []float64{278.15, 280.15}, fc.Columns[0])
	assert.Equal(t, []float64{10, 12.5}, fc.Columns[3])
}

func TestConvertForecastUnits_RoundTrip(t *testing.T) {
	vars := []string{domain.VarHumidity, domain.VarRadiation, domain.VarTempMean, domain.VarTempMax, domain.VarTempMin}
	fc := series(t, vars, day(2024, 5, 1),
		[]float64{80, 75.5, 60},
		[]float64{7.25, 11.1, 0.3},
		[]float64{285.2, 290.01, 271.3},
		[]float64{291, 295.5, 280},
		[]float64{279, 281.4, 265.9},
	)

	back := domain.RevertForecastUnits(domain.ConvertForecastUnits(fc))
	for v := range vars {
		assert.InDeltaSlice(t, fc.Columns[v], back.Columns[v], 1e-9, vars[v])
	}
}

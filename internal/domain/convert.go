package domain

import "gonum.org/v1/gonum/floats"

const (
	// KelvinOffset converts forecast temperatures from Kelvin to °C.
	KelvinOffset = 273.15
	// RadiationHours turns a daily-mean hourly radiation rate into a daily total.
	RadiationHours = 24.0
)

// ConvertForecastUnits returns a copy of a forecast-origin series with values
// transformed to the units of the historical grids. The input is not modified.
//
//	tas, tasmax, tasmin: K -> °C (subtract 273.15)
//	rsds:                hourly rate -> daily total (multiply by 24)
//
// Other variables pass through unchanged.
func ConvertForecastUnits(forecast Series) Series {
	out := forecast.Clone()
	for v, name := range out.Variables {
		switch name {
		case VarTempMean, VarTempMax, VarTempMin:
			floats.AddConst(-KelvinOffset, out.Columns[v])
		case VarRadiation:
			floats.Scale(RadiationHours, out.Columns[v])
		}
	}
	return out
}

// RevertForecastUnits is the inverse of ConvertForecastUnits.
func RevertForecastUnits(converted Series) Series {
	out := converted.Clone()
	for v, name := range out.Variables {
		switch name {
		case VarTempMean, VarTempMax, VarTempMin:
			floats.AddConst(KelvinOffset, out.Columns[v])
		case VarRadiation:
			floats.Scale(1/RadiationHours, out.Columns[v])
		}
	}
	return out
}

// Package domain models per-location daily climate series extracted from
// gridded datasets.
//
// # Sources
//
// Two kinds of grid feed the extraction:
//
//	Historical ("amber") grids: observed/reanalysis daily fields, one merged
//	file per year. Temperatures are in °C, shortwave radiation is a daily total.
//	Forecast grids: one merged file per seasonal ensemble member (e.g. r1i1p1).
//	Temperatures are in Kelvin, shortwave radiation is a daily-mean hourly rate.
//
// # Variables
//
// The tracked variable set follows CF/CMIP short names:
//
//	hurs     relative humidity
//	pr       precipitation
//	rsds     surface downwelling shortwave radiation
//	sfcWind  near-surface wind speed
//	tas      mean air temperature
//	tasmax   maximum air temperature
//	tasmin   minimum air temperature
//
// # Missing values
//
// Fill values in the grids are decoded to NaN. A date is "valid" only when
// every tracked variable has a value on that date. See [Series.LastValidIndex].
//
// # Point identity
//
// Points are keyed by their literal coordinate pair, formatted as "lat,lon"
// (see [GridPoint.Key]), because validity masks carry sampled coordinate
// values rather than grid indices.
package domain

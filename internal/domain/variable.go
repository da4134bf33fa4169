package domain

// Variable short names shared by the historical and forecast grids.
const (
	VarHumidity      = "hurs"
	VarPrecipitation = "pr"
	VarRadiation     = "rsds"
	VarWindSpeed     = "sfcWind"
	VarTempMean      = "tas"
	VarTempMax       = "tasmax"
	VarTempMin       = "tasmin"
)

// DefaultVariables returns the variable set used for crop simulation input.
func DefaultVariables() []string {
	return []string{
		VarHumidity,
		VarPrecipitation,
		VarRadiation,
		VarWindSpeed,
		VarTempMean,
		VarTempMax,
		VarTempMin,
	}
}

// IsKnownVariable reports whether name is one of the tracked variables.
func IsKnownVariable(name string) bool {
	for _, v := range DefaultVariables() {
		if v == name {
			return true
		}
	}
	return false
}

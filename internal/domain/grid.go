package domain

import "time"

// GridReader is read access to one opened gridded dataset indexed by
// (time, latitude, longitude). Implementations must be safe for concurrent
// reads and must release their resources on Close.
type GridReader interface {
	// Latitudes returns the latitude axis.
	Latitudes() []float64
	// Longitudes returns the longitude axis.
	Longitudes() []float64
	// Times returns the timestamps of the time axis.
	Times() []time.Time
	// ReadCell returns the full time series of a variable at grid indices
	// (latIdx, lonIdx), one value per entry of Times. Missing values are NaN.
	ReadCell(variable string, latIdx, lonIdx int) ([]float64, error)
	// Close releases file handles and memory.
	Close() error
}

// GridSource locates and opens a gridded dataset.
type GridSource interface {
	// Open returns the dataset, or nil and no error when no backing file exists.
	Open() (GridReader, error)
	// Name describes the source for logging.
	Name() string
}

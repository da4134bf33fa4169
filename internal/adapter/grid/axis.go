// Package grid provides coordinate-axis lookups for regular lat/lon grids.
package grid

import (
	"fmt"
	"math"
)

// Axis is a strictly monotonic coordinate vector (e.g., latitudes).
type Axis []float64

// Validate checks that the axis is non-empty and strictly monotonic.
func (a Axis) Validate() error {
	if len(a) == 0 {
		return fmt.Errorf("axis must have at least 1 coordinate")
	}
	for i, v := range a {
		if math.IsNaN(v) {
			return fmt.Errorf("axis coordinate %d is NaN", i)
		}
	}
	if len(a) == 1 {
		return nil
	}

	ascending := a[1] > a[0]
	for i := 1; i < len(a); i++ {
		if ascending && a[i] <= a[i-1] {
			return fmt.Errorf("axis must be strictly increasing (index %d: %.6f after %.6f)", i, a[i], a[i-1])
		}
		if !ascending && a[i] >= a[i-1] {
			return fmt.Errorf("axis must be strictly decreasing (index %d: %.6f after %.6f)", i, a[i], a[i-1])
		}
	}
	return nil
}

// Ascending reports whether coordinates increase with index.
func (a Axis) Ascending() bool {
	return len(a) < 2 || a[1] > a[0]
}

// Equal reports whether two axes hold the same coordinates.
func (a Axis) Equal(b Axis) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// NearestIndex returns the index of the coordinate closest to target.
//
// The axis may be increasing or decreasing. When two coordinates are equally
// close the one with the smaller value (earlier in ascending order) wins.
func NearestIndex(axis []float64, target float64) int {
	n := len(axis)
	if n == 0 {
		return 0
	}

	// at maps a position in ascending order to an axis index.
	at := func(i int) int { return i }
	if !Axis(axis).Ascending() {
		at = func(i int) int { return n - 1 - i }
	}

	// Binary search for the first coordinate >= target.
	left, right := 0, n-1
	for left < right {
		mid := (left + right) / 2
		if axis[at(mid)] < target {
			left = mid + 1
		} else {
			right = mid
		}
	}

	// Check if the coordinate below is at least as close.
	if left > 0 && math.Abs(axis[at(left-1)]-target) <= math.Abs(axis[at(left)]-target) {
		return at(left - 1)
	}

	return at(left)
}

// normalizeLon360 maps arbitrary degree longitudes into the [0, 360) range.
func normalizeLon360(lon float64) float64 {
	lon = math.Mod(lon, 360)
	if lon < 0 {
		lon += 360
	}
	return lon
}

// lonAxisRequiresWrap reports whether a longitude axis is defined on 0–360°.
func lonAxisRequiresWrap(lons []float64) bool {
	if len(lons) == 0 {
		return false
	}
	minVal := lons[0]
	maxVal := lons[len(lons)-1]
	if minVal > maxVal {
		minVal, maxVal = maxVal, minVal
	}
	return minVal >= 0 && maxVal > 180
}

// NormalizeLonForAxis wraps a −180–180° longitude onto a 0–360° axis when needed.
func NormalizeLonForAxis(lons []float64, lon float64) float64 {
	if lonAxisRequiresWrap(lons) {
		return normalizeLon360(lon)
	}
	return lon
}

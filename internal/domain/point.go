package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// GridPoint is a (latitude, longitude) pair taken from a grid's coordinate axes.
type GridPoint struct {
	Lat float64
	Lon float64
}

// Key returns the stable "lat,lon" encoding used to key extraction output.
func (p GridPoint) Key() string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lon, 'f', -1, 64)
}

// String implements fmt.Stringer.
func (p GridPoint) String() string {
	return fmt.Sprintf("(%.4f, %.4f)", p.Lat, p.Lon)
}

// ParseKey decodes a key produced by GridPoint.Key.
func ParseKey(key string) (GridPoint, error) {
	latStr, lonStr, ok := strings.Cut(key, ",")
	if !ok {
		return GridPoint{}, fmt.Errorf("invalid point key %q: expected \"lat,lon\"", key)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return GridPoint{}, fmt.Errorf("invalid latitude in key %q: %w", key, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return GridPoint{}, fmt.Errorf("invalid longitude in key %q: %w", key, err)
	}
	return GridPoint{Lat: lat, Lon: lon}, nil
}

// ExtractionResult maps each processed point to its series.
type ExtractionResult map[GridPoint]Series

// Points returns the result's points ordered by latitude, then longitude.
func (r ExtractionResult) Points() []GridPoint {
	points := make([]GridPoint, 0, len(r))
	for p := range r {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Lat != points[j].Lat {
			return points[i].Lat < points[j].Lat
		}
		return points[i].Lon < points[j].Lon
	})
	return points
}

// Merge copies every entry of other into r. It returns the number of keys
// that were already present.
func (r ExtractionResult) Merge(other ExtractionResult) int {
	collisions := 0
	for p, s := range other {
		if _, ok := r[p]; ok {
			collisions++
		}
		r[p] = s
	}
	return collisions
}

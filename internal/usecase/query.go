package usecase

import (
	"errors"
	"math"

	"go.ngs.io/agroclim/internal/adapter/store/archive"
	"go.ngs.io/agroclim/internal/domain"
)

// ErrPointNotFound is returned when no archived point is close enough to a query.
var ErrPointNotFound = errors.New("point not found")

// DefaultSearchRadiusKm bounds the nearest-point fallback of QueryUseCase.
const DefaultSearchRadiusKm = 10.0

// QueryUseCase answers lookups against a loaded archive.
type QueryUseCase struct {
	archive  *archive.Archive
	points   []domain.GridPoint
	radiusKm float64
}

// NewQueryUseCase creates a query use case over a. A radius of zero uses
// DefaultSearchRadiusKm.
func NewQueryUseCase(a *archive.Archive, radiusKm float64) *QueryUseCase {
	if radiusKm <= 0 {
		radiusKm = DefaultSearchRadiusKm
	}
	return &QueryUseCase{archive: a, points: a.Result.Points(), radiusKm: radiusKm}
}

// Meta returns the archive metadata.
func (uc *QueryUseCase) Meta() archive.Meta {
	return uc.archive.Meta
}

// Points returns the archived points ordered by latitude, then longitude.
func (uc *QueryUseCase) Points() []domain.GridPoint {
	return uc.points
}

// Series returns the series of the archived point at (lat, lon), or of the
// nearest archived point within the search radius.
func (uc *QueryUseCase) Series(lat, lon float64) (domain.GridPoint, domain.Series, error) {
	p := domain.GridPoint{Lat: lat, Lon: lon}
	if s, ok := uc.archive.Result[p]; ok {
		return p, s, nil
	}

	bestDist := math.MaxFloat64
	var best domain.GridPoint
	for _, cand := range uc.points {
		d := haversineKm(lat, lon, cand.Lat, cand.Lon)
		if d < bestDist {
			bestDist = d
			best = cand
		}
	}
	if bestDist > uc.radiusKm {
		return domain.GridPoint{}, domain.Series{}, ErrPointNotFound
	}
	return best, uc.archive.Result[best], nil
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371.0
	toRad := func(x float64) float64 { return x * math.Pi / 180.0 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}

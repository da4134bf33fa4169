package extract_test

import (
	"errors"
	"sync/atomic"
	"time"

	"go.ngs.io/agroclim/internal/domain"
)

// fakeReader is an in-memory grid whose values are a function of position.
type fakeReader struct {
	lats, lons []float64
	times      []time.Time
	value      func(variable string, latIdx, lonIdx, k int) float64
	failAt     *domain.GridPoint
	closed     *atomic.Int64
}

func (r *fakeReader) Latitudes() []float64  { return r.lats }
func (r *fakeReader) Longitudes() []float64 { return r.lons }
func (r *fakeReader) Times() []time.Time    { return r.times }

func (r *fakeReader) ReadCell(variable string, latIdx, lonIdx int) ([]float64, error) {
	if r.failAt != nil && r.lats[latIdx] == r.failAt.Lat && r.lons[lonIdx] == r.failAt.Lon {
		return nil, errors.New("disk on fire")
	}
	out := make([]float64, len(r.times))
	for k := range out {
		out[k] = r.value(variable, latIdx, lonIdx, k)
	}
	return out, nil
}

func (r *fakeReader) Close() error {
	if r.closed != nil {
		r.closed.Add(1)
	}
	return nil
}

// fakeSource hands out a fresh reader per Open and counts opens and closes.
type fakeSource struct {
	name    string
	proto   fakeReader
	missing bool
	openErr error
	opened  atomic.Int64
	closed  atomic.Int64
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) Open() (domain.GridReader, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	if s.missing {
		return nil, nil
	}
	s.opened.Add(1)
	r := s.proto
	r.closed = &s.closed
	return &r, nil
}

func dailyTimes(start time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i).Add(12 * time.Hour)
	}
	return out
}

func axis(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// historicalSource covers 2023-01-01..10 and goes missing from the 6th.
func historicalSource() *fakeSource {
	return &fakeSource{
		name: "hist",
		proto: fakeReader{
			lats:  axis(50, 0.5, 4),
			lons:  axis(8, 0.5, 5),
			times: dailyTimes(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 10),
			value: func(_ string, i, j, k int) float64 {
				if k >= 5 {
					return domain.Missing()
				}
				return float64(i*100 + j*10 + k)
			},
		},
	}
}

// forecastSource covers 2023-01-04..15 in forecast units.
func forecastSource() *fakeSource {
	return &fakeSource{
		name: "fc",
		proto: fakeReader{
			lats:  axis(50, 0.5, 4),
			lons:  axis(8, 0.5, 5),
			times: dailyTimes(time.Date(2023, 1, 4, 0, 0, 0, 0, time.UTC), 12),
			value: func(v string, i, j, k int) float64 {
				base := float64(1000 + i*100 + j*10 + k)
				if v == domain.VarTempMean {
					return base + domain.KelvinOffset
				}
				return base
			},
		},
	}
}

func gridPoints(src *fakeSource) []domain.GridPoint {
	var out []domain.GridPoint
	for _, lat := range src.proto.lats {
		for _, lon := range src.proto.lons {
			out = append(out, domain.GridPoint{Lat: lat, Lon: lon})
		}
	}
	return out
}

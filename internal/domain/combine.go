package domain

import (
	"fmt"
	"sort"
	"time"
)

// Combine merges a historical series with a unit-converted forecast series
// for the same point.
//
// The historical series is cut after its last valid date, the forecast is
// appended, and on any date supplied by both sides the historical row is kept.
// The result is ordered by date with no duplicates. If the historical series
// has no valid date the result holds the forecast rows; a historical series
// without variables takes its columns from the forecast.
func Combine(historical, forecast Series) (Series, error) {
	vars := historical.Variables
	var hist Series
	if len(vars) == 0 {
		vars = forecast.Variables
	} else {
		hist = historical.Slice(0, historical.LastValidIndex()+1)
	}

	fc, err := forecast.Select(vars)
	if err != nil {
		return Series{}, fmt.Errorf("align forecast to historical variables: %w", err)
	}

	type row struct {
		date time.Time
		src  *Series
		k    int
	}

	rows := make([]row, 0, hist.Len()+fc.Len())
	seen := make(map[int64]struct{}, hist.Len()+fc.Len())

	// Historical rows first so they win on shared dates.
	for _, side := range []*Series{&hist, &fc} {
		for k, d := range side.Dates {
			key := dayKey(d)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			rows = append(rows, row{date: DateOf(d), src: side, k: k})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].date.Before(rows[j].date)
	})

	out := Series{
		Variables: append([]string(nil), vars...),
		Dates:     make([]time.Time, len(rows)),
		Columns:   make([][]float64, len(vars)),
	}
	for v := range out.Columns {
		out.Columns[v] = make([]float64, len(rows))
	}
	for i, r := range rows {
		out.Dates[i] = r.date
		for v := range out.Columns {
			out.Columns[v][i] = r.src.Columns[v][r.k]
		}
	}

	return out, nil
}

package climate

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// refLayouts are the reference-date layouts accepted in CF "units" strings.
var refLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-1-2 15:4:5",
	"2006-1-2",
}

// decodeTimes converts numeric CF time offsets ("days since 1949-12-01")
// into UTC timestamps, rounded to the second.
func decodeTimes(values []float64, units, calendar string) ([]time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(calendar)) {
	case "", "standard", "gregorian", "proleptic_gregorian":
	default:
		return nil, fmt.Errorf("unsupported calendar %q", calendar)
	}

	step, ref, err := parseTimeUnits(units)
	if err != nil {
		return nil, err
	}

	out := make([]time.Time, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("time value %d is missing", i)
		}
		offset := time.Duration(math.Round(v*float64(step)/float64(time.Second))) * time.Second
		out[i] = ref.Add(offset)
	}
	return out, nil
}

// parseTimeUnits splits "<unit> since <reference>" into a step and a reference time.
func parseTimeUnits(units string) (time.Duration, time.Time, error) {
	unit, refStr, ok := strings.Cut(strings.TrimSpace(units), " since ")
	if !ok {
		return 0, time.Time{}, fmt.Errorf("invalid time units %q: expected \"<unit> since <date>\"", units)
	}

	var step time.Duration
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "days", "day", "d":
		step = 24 * time.Hour
	case "hours", "hour", "hrs", "hr", "h":
		step = time.Hour
	case "minutes", "minute", "mins", "min":
		step = time.Minute
	case "seconds", "second", "secs", "sec", "s":
		step = time.Second
	default:
		return 0, time.Time{}, fmt.Errorf("unsupported time unit %q", unit)
	}

	refStr = strings.TrimSpace(refStr)
	// Drop a trailing numeric zone such as " +00:00" or " UTC".
	for _, suffix := range []string{" UTC", " utc", " +00:00", " +0:00", " 00:00"} {
		refStr = strings.TrimSuffix(refStr, suffix)
	}
	for _, layout := range refLayouts {
		if ref, err := time.ParseInLocation(layout, refStr, time.UTC); err == nil {
			return step, ref, nil
		}
	}
	return 0, time.Time{}, fmt.Errorf("invalid reference date in time units %q", units)
}

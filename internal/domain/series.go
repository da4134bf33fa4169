package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrVariableMismatch is returned when two series do not carry the same variables.
var ErrVariableMismatch = errors.New("series variables do not match")

// Missing returns the value used for absent data.
func Missing() float64 {
	return math.NaN()
}

// IsMissing reports whether v marks absent data.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// DateOf drops the time-of-day from t, returning midnight UTC of the same calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dayKey identifies a calendar date independently of time.Location.
func dayKey(t time.Time) int64 {
	return DateOf(t).Unix() / 86400
}

// Series is a daily time series of several variables at one point.
type Series struct {
	Variables []string    // Variable names, in column order.
	Dates     []time.Time // Calendar dates (midnight UTC).
	Columns   [][]float64 // Columns[v][k] is Variables[v] on Dates[k].
}

// NewSeries allocates a series with n dates, all values missing.
func NewSeries(variables []string, n int) Series {
	s := Series{
		Variables: append([]string(nil), variables...),
		Dates:     make([]time.Time, n),
		Columns:   make([][]float64, len(variables)),
	}
	for v := range s.Columns {
		col := make([]float64, n)
		for k := range col {
			col[k] = Missing()
		}
		s.Columns[v] = col
	}
	return s
}

// Len returns the number of dates.
func (s Series) Len() int {
	return len(s.Dates)
}

// Validate checks that every column has one value per date and that dates are
// strictly increasing.
func (s Series) Validate() error {
	if len(s.Columns) != len(s.Variables) {
		return fmt.Errorf("series has %d columns for %d variables", len(s.Columns), len(s.Variables))
	}
	for v, col := range s.Columns {
		if len(col) != len(s.Dates) {
			return fmt.Errorf("column %s has %d values, expected %d", s.Variables[v], len(col), len(s.Dates))
		}
	}
	for k := 1; k < len(s.Dates); k++ {
		if !s.Dates[k].After(s.Dates[k-1]) {
			return fmt.Errorf("dates must be strictly increasing (%s after %s)",
				s.Dates[k].Format(time.DateOnly), s.Dates[k-1].Format(time.DateOnly))
		}
	}
	return nil
}

// Column returns the values of the named variable.
func (s Series) Column(name string) ([]float64, bool) {
	for v, n := range s.Variables {
		if n == name {
			return s.Columns[v], true
		}
	}
	return nil, false
}

// Value returns the named variable on the given date.
func (s Series) Value(name string, date time.Time) (float64, bool) {
	col, ok := s.Column(name)
	if !ok {
		return 0, false
	}
	want := dayKey(date)
	for k, d := range s.Dates {
		if dayKey(d) == want {
			return col[k], true
		}
	}
	return 0, false
}

// Clone returns a deep copy of s.
func (s Series) Clone() Series {
	return s.Slice(0, s.Len())
}

// Slice returns a deep copy of the dates in [from, to).
func (s Series) Slice(from, to int) Series {
	from = max(0, from)
	to = min(s.Len(), to)
	if to < from {
		to = from
	}
	out := Series{
		Variables: append([]string(nil), s.Variables...),
		Dates:     append([]time.Time(nil), s.Dates[from:to]...),
		Columns:   make([][]float64, len(s.Columns)),
	}
	for v, col := range s.Columns {
		out.Columns[v] = append([]float64(nil), col[from:to]...)
	}
	return out
}

// Select returns a copy of s with columns reordered to match variables.
func (s Series) Select(variables []string) (Series, error) {
	out := Series{
		Variables: append([]string(nil), variables...),
		Dates:     append([]time.Time(nil), s.Dates...),
		Columns:   make([][]float64, len(variables)),
	}
	for v, name := range variables {
		col, ok := s.Column(name)
		if !ok {
			return Series{}, fmt.Errorf("%w: %s not present in %v", ErrVariableMismatch, name, s.Variables)
		}
		out.Columns[v] = append([]float64(nil), col...)
	}
	return out, nil
}

// RowValid reports whether every variable has a value on the k-th date.
func (s Series) RowValid(k int) bool {
	for _, col := range s.Columns {
		if IsMissing(col[k]) {
			return false
		}
	}
	return true
}

// LastValidIndex returns the index of the last date on which no variable is
// missing, or -1 if there is no such date.
func (s Series) LastValidIndex() int {
	for k := s.Len() - 1; k >= 0; k-- {
		if s.RowValid(k) {
			return k
		}
	}
	return -1
}

// AllMissing reports whether the named variable has no value on any date.
func (s Series) AllMissing(name string) bool {
	col, ok := s.Column(name)
	if !ok {
		return true
	}
	for _, v := range col {
		if !IsMissing(v) {
			return false
		}
	}
	return true
}

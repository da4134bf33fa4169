package extract

import (
	"errors"
	"fmt"

	"go.ngs.io/agroclim/internal/domain"
)

// ErrNoDataset is returned when a worker finds no file behind a source.
var ErrNoDataset = errors.New("no dataset")

// Task describes the per-point work of a run. Each worker opens its own
// Session, so no dataset handle is shared between workers.
type Task interface {
	Name() string
	Open() (Session, error)
}

// Session processes points sequentially against datasets owned by one worker.
type Session interface {
	Process(p domain.GridPoint) (domain.Series, error)
	// Datasets is the number of datasets the session holds open.
	Datasets() int
	Close() error
}

func openSource(src domain.GridSource) (domain.GridReader, error) {
	r, err := src.Open()
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("%s: %w", src.Name(), ErrNoDataset)
	}
	return r, nil
}

// CombineTask extracts historical and forecast series, converts forecast
// units and combines both into one continuous series per point.
type CombineTask struct {
	Historical domain.GridSource
	Forecast   domain.GridSource
	Variables  []string
}

// Name implements Task.
func (t CombineTask) Name() string {
	return "combine " + t.Historical.Name() + " + " + t.Forecast.Name()
}

// Open implements Task.
func (t CombineTask) Open() (Session, error) {
	hist, err := openSource(t.Historical)
	if err != nil {
		return nil, err
	}
	fc, err := openSource(t.Forecast)
	if err != nil {
		_ = hist.Close()
		return nil, err
	}
	return &combineSession{hist: hist, fc: fc, vars: t.Variables}, nil
}

type combineSession struct {
	hist domain.GridReader
	fc   domain.GridReader
	vars []string
}

func (s *combineSession) Datasets() int { return 2 }

func (s *combineSession) Process(p domain.GridPoint) (domain.Series, error) {
	h, err := Extract(s.hist, p, s.vars)
	if err != nil {
		return domain.Series{}, fmt.Errorf("historical: %w", err)
	}
	f, err := Extract(s.fc, p, s.vars)
	if err != nil {
		return domain.Series{}, fmt.Errorf("forecast: %w", err)
	}
	return domain.Combine(h, domain.ConvertForecastUnits(f))
}

func (s *combineSession) Close() error {
	return errors.Join(s.hist.Close(), s.fc.Close())
}

// SingleSourceTask extracts from one source. ConvertUnits applies the
// forecast unit conversion to every series.
type SingleSourceTask struct {
	Source       domain.GridSource
	Variables    []string
	ConvertUnits bool
}

// Name implements Task.
func (t SingleSourceTask) Name() string {
	return "extract " + t.Source.Name()
}

// Open implements Task.
func (t SingleSourceTask) Open() (Session, error) {
	r, err := openSource(t.Source)
	if err != nil {
		return nil, err
	}
	return &singleSession{r: r, vars: t.Variables, convert: t.ConvertUnits}, nil
}

type singleSession struct {
	r       domain.GridReader
	vars    []string
	convert bool
}

func (s *singleSession) Datasets() int { return 1 }

func (s *singleSession) Process(p domain.GridPoint) (domain.Series, error) {
	out, err := Extract(s.r, p, s.vars)
	if err != nil {
		return domain.Series{}, err
	}
	if s.convert {
		out = domain.ConvertForecastUnits(out)
	}
	return out, nil
}

func (s *singleSession) Close() error {
	return s.r.Close()
}

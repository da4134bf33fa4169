package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.ngs.io/agroclim/internal/adapter/store/mask"
	"go.ngs.io/agroclim/internal/domain"
	"go.ngs.io/agroclim/internal/extract"
	"go.ngs.io/agroclim/internal/observability"
)

// ErrNoDataset is returned by mask construction when a source has no files.
var ErrNoDataset = errors.New("no dataset")

// MaskReport describes a built mask.
type MaskReport struct {
	Rows, Cols  int
	ValidPoints int
	MaskPath    string
	PointsPath  string
}

// MaskUseCase builds the data-availability mask.
type MaskUseCase struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewMaskUseCase creates a new mask use case.
func NewMaskUseCase(logger *slog.Logger, metrics *observability.Metrics) *MaskUseCase {
	return &MaskUseCase{logger: logger, metrics: metrics}
}

// Build marks a historical grid cell valid when precipitation is not missing
// on every date in the historical dataset and also not at the nearest cell of
// the forecast dataset. The mask follows the historical grid. It is written to
// maskPath and the valid points to pointsPath; either may be empty.
func (uc *MaskUseCase) Build(ctx context.Context, hist, fc domain.GridSource, maskPath, pointsPath string) (rep *MaskReport, err error) {
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		uc.metrics.Runs.WithLabelValues("mask", outcome).Inc()
	}()

	h, err := openRequired(hist)
	if err != nil {
		return nil, err
	}
	defer func() { err = errors.Join(err, h.Close()) }()
	f, err := openRequired(fc)
	if err != nil {
		return nil, err
	}
	defer func() { err = errors.Join(err, f.Close()) }()

	lats, lons := h.Latitudes(), h.Longitudes()
	m := domain.NewMask(len(lats), len(lons))
	for i, lat := range lats {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j, lon := range lons {
			p := domain.GridPoint{Lat: lat, Lon: lon}
			ok, err := hasPrecipitation(h, p)
			if err != nil {
				return nil, fmt.Errorf("historical %s: %w", p.Key(), err)
			}
			if !ok {
				continue
			}
			ok, err = hasPrecipitation(f, p)
			if err != nil {
				return nil, fmt.Errorf("forecast %s: %w", p.Key(), err)
			}
			m.Set(i, j, ok)
		}
	}

	points, err := domain.ValidPoints(m, lats, lons)
	if err != nil {
		return nil, err
	}
	rep = &MaskReport{Rows: m.Rows, Cols: m.Cols, ValidPoints: len(points)}

	if maskPath != "" {
		if err := mask.Save(maskPath, m); err != nil {
			return nil, err
		}
		rep.MaskPath = maskPath
	}
	if pointsPath != "" {
		if err := mask.SavePoints(pointsPath, points); err != nil {
			return nil, err
		}
		rep.PointsPath = pointsPath
	}

	uc.logger.Info("mask built", "rows", rep.Rows, "cols", rep.Cols, "valid_points", rep.ValidPoints)
	return rep, nil
}

func openRequired(src domain.GridSource) (domain.GridReader, error) {
	r, err := src.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", src.Name(), err)
	}
	if r == nil {
		return nil, fmt.Errorf("%s: %w", src.Name(), ErrNoDataset)
	}
	return r, nil
}

func hasPrecipitation(r domain.GridReader, p domain.GridPoint) (bool, error) {
	s, err := extract.Extract(r, p, []string{domain.VarPrecipitation})
	if err != nil {
		return false, err
	}
	return !s.AllMissing(domain.VarPrecipitation), nil
}

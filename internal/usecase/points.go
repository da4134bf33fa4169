package usecase

import (
	"fmt"

	"go.ngs.io/agroclim/internal/adapter/store/mask"
	"go.ngs.io/agroclim/internal/domain"
)

// PointLoader produces the ordered valid points for a grid.
type PointLoader interface {
	Points(lats, lons []float64) ([]domain.GridPoint, error)
}

// MaskPoints selects the true cells of a stored validity mask.
type MaskPoints struct {
	Path string
}

// Points implements PointLoader.
func (m MaskPoints) Points(lats, lons []float64) ([]domain.GridPoint, error) {
	msk, err := mask.Load(m.Path, len(lats), len(lons))
	if err != nil {
		return nil, fmt.Errorf("load mask: %w", err)
	}
	return domain.ValidPoints(msk, lats, lons)
}

// FilePoints reads a precomputed valid-point list; the grid is ignored.
type FilePoints struct {
	Path string
}

// Points implements PointLoader.
func (f FilePoints) Points(_, _ []float64) ([]domain.GridPoint, error) {
	points, err := mask.LoadPoints(f.Path)
	if err != nil {
		return nil, fmt.Errorf("load valid points: %w", err)
	}
	return points, nil
}

// StaticPoints is a fixed point list.
type StaticPoints []domain.GridPoint

// Points implements PointLoader.
func (s StaticPoints) Points(_, _ []float64) ([]domain.GridPoint, error) {
	return append([]domain.GridPoint(nil), s...), nil
}

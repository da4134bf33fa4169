package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"go.ngs.io/agroclim/internal/adapter/store/archive"
	"go.ngs.io/agroclim/internal/domain"
	"go.ngs.io/agroclim/internal/extract"
	"go.ngs.io/agroclim/internal/observability"
)

// Report describes a finished extraction run.
type Report struct {
	RunID  uuid.UUID
	Kind   archive.Kind
	Source string
	// Empty is set when a source had no dataset and nothing was extracted.
	Empty  bool
	Stats  extract.RunStats
	Path   string
	Result domain.ExtractionResult
}

// ExtractionUseCase orchestrates extraction runs: it opens the authoritative
// datasets, derives the valid points, hands the work to the coordinator,
// closes the datasets and persists the result.
type ExtractionUseCase struct {
	coord     *extract.Coordinator
	points    PointLoader
	variables []string
	opts      extract.Options
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
}

// NewExtractionUseCase creates a new extraction use case.
func NewExtractionUseCase(
	coord *extract.Coordinator,
	points PointLoader,
	variables []string,
	opts extract.Options,
	logger *slog.Logger,
	metrics *observability.Metrics,
	clock clockwork.Clock,
) *ExtractionUseCase {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ExtractionUseCase{
		coord:     coord,
		points:    points,
		variables: append([]string(nil), variables...),
		opts:      opts,
		logger:    logger,
		metrics:   metrics,
		clock:     clock,
	}
}

// Combined extracts historical and forecast series for every valid point and
// combines them. The result is saved to out unless out is empty.
func (uc *ExtractionUseCase) Combined(ctx context.Context, hist, fc domain.GridSource, out string) (*Report, error) {
	task := extract.CombineTask{Historical: hist, Forecast: fc, Variables: uc.variables}
	return uc.run(ctx, archive.KindCombined, task, []domain.GridSource{hist, fc}, out)
}

// Amber extracts historical series only.
func (uc *ExtractionUseCase) Amber(ctx context.Context, hist domain.GridSource, out string) (*Report, error) {
	task := extract.SingleSourceTask{Source: hist, Variables: uc.variables}
	return uc.run(ctx, archive.KindAmber, task, []domain.GridSource{hist}, out)
}

// Forecast extracts one ensemble with units converted to historical units.
func (uc *ExtractionUseCase) Forecast(ctx context.Context, fc domain.GridSource, out string) (*Report, error) {
	task := extract.SingleSourceTask{Source: fc, Variables: uc.variables, ConvertUnits: true}
	return uc.run(ctx, archive.KindForecast, task, []domain.GridSource{fc}, out)
}

// EnsembleJob pairs an ensemble source with its archive path.
type EnsembleJob struct {
	Source domain.GridSource
	Out    string
}

// Forecasts runs Forecast for each ensemble in turn. Ensembles without a
// dataset are logged and skipped; any other error stops the loop.
func (uc *ExtractionUseCase) Forecasts(ctx context.Context, jobs []EnsembleJob) ([]*Report, error) {
	reports := make([]*Report, 0, len(jobs))
	for _, job := range jobs {
		rep, err := uc.Forecast(ctx, job.Source, job.Out)
		if err != nil {
			return reports, err
		}
		if rep.Empty {
			uc.logger.Warn("skipping ensemble without data", "source", job.Source.Name())
			continue
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

func (uc *ExtractionUseCase) run(ctx context.Context, kind archive.Kind, task extract.Task, sources []domain.GridSource, out string) (rep *Report, err error) {
	rep = &Report{RunID: uuid.New(), Kind: kind, Source: task.Name(), Result: domain.ExtractionResult{}}
	logger := uc.logger.With("run_id", rep.RunID.String(), "kind", string(kind))

	defer func() {
		outcome := "success"
		switch {
		case err != nil:
			outcome = "error"
		case rep != nil && rep.Empty:
			outcome = "empty"
		}
		uc.metrics.Runs.WithLabelValues(string(kind), outcome).Inc()
	}()

	// The authoritative handles provide the grid axes and are closed only
	// after every worker has returned.
	readers := make([]domain.GridReader, 0, len(sources))
	defer func() {
		for _, r := range readers {
			if cerr := r.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("close dataset: %w", cerr))
			}
			uc.metrics.DatasetsOpen.Dec()
		}
	}()
	for _, src := range sources {
		r, err := src.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", src.Name(), err)
		}
		if r == nil {
			logger.Warn("no dataset, result is empty", "source", src.Name())
			rep.Empty = true
			return rep, nil
		}
		uc.metrics.DatasetsOpen.Inc()
		readers = append(readers, r)
	}

	points, err := uc.points.Points(readers[0].Latitudes(), readers[0].Longitudes())
	if err != nil {
		return nil, err
	}
	logger.Info("valid points selected", "points", len(points))

	result, stats, err := uc.coord.Run(ctx, task, points, uc.opts)
	rep.Stats = stats
	if err != nil {
		return nil, fmt.Errorf("%s run: %w", kind, err)
	}
	rep.Result = result

	if out != "" {
		meta := archive.Meta{
			RunID:     rep.RunID,
			Kind:      kind,
			Source:    rep.Source,
			CreatedAt: uc.clock.Now().UTC(),
			Variables: uc.variables,
		}
		if err := archive.Save(out, meta, result); err != nil {
			return nil, err
		}
		rep.Path = out
		logger.Info("archive written", "path", out, "points", len(result))
	}
	return rep, nil
}

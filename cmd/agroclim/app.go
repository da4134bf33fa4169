package main

import (
	"log/slog"
	"os"

	"github.com/jonboulle/clockwork"

	"go.ngs.io/agroclim/internal/adapter/store/climate"
	"go.ngs.io/agroclim/internal/config"
	"go.ngs.io/agroclim/internal/domain"
	"go.ngs.io/agroclim/internal/extract"
	"go.ngs.io/agroclim/internal/observability"
	"go.ngs.io/agroclim/internal/usecase"
)

// app holds the wiring shared by all subcommands.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: observability.NewMetrics(),
		clock:   clockwork.NewRealClock(),
	}, nil
}

func (a *app) amberSource() domain.GridSource {
	return &climate.YearRangeSource{
		DirPattern:  a.cfg.AmberDirPattern,
		FilePattern: a.cfg.AmberFilePattern,
		StartYear:   a.cfg.AmberStartYear,
		EndYear:     a.cfg.AmberEndYear,
		Logger:      a.logger,
	}
}

func (a *app) forecastSource(ensemble string) domain.GridSource {
	return &climate.EnsembleSource{
		DirPattern:  a.cfg.ForecastDirPattern,
		FilePattern: a.cfg.ForecastFilePattern,
		Ensemble:    ensemble,
		Logger:      a.logger,
	}
}

func (a *app) pointLoader() usecase.PointLoader {
	if a.cfg.PointsPath != "" {
		return usecase.FilePoints{Path: a.cfg.PointsPath}
	}
	return usecase.MaskPoints{Path: a.cfg.MaskPath}
}

func (a *app) extraction() *usecase.ExtractionUseCase {
	coord := extract.NewCoordinator(a.logger, a.metrics, a.clock)
	opts := extract.Options{
		BatchSize: a.cfg.BatchSize,
		Workers:   a.cfg.Workers,
		MaxPoints: a.cfg.MaxPoints,
	}
	return usecase.NewExtractionUseCase(coord, a.pointLoader(), a.cfg.Variables, opts, a.logger, a.metrics, a.clock)
}

func (a *app) logReport(rep *usecase.Report) {
	if rep.Empty {
		a.logger.Warn("run produced no data", "run_id", rep.RunID.String(), "source", rep.Source)
		return
	}
	a.logger.Info("run complete",
		"run_id", rep.RunID.String(),
		"kind", string(rep.Kind),
		"points", len(rep.Result),
		"batches", rep.Stats.Dispatched,
		"duration", rep.Stats.Duration,
		"archive", rep.Path,
	)
}

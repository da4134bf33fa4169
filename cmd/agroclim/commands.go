package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"go.ngs.io/agroclim/internal/scheduler"
	"go.ngs.io/agroclim/internal/usecase"
)

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
}

func combinedCmd() *cobra.Command {
	var ensemble, out string
	cmd := &cobra.Command{
		Use:   "combined",
		Short: "Combine historical and forecast series for every valid point",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if ensemble == "" {
				ensemble = a.cfg.ForecastEnsembles[0]
			}
			if out == "" {
				out = a.cfg.CombinedArchivePath(ensemble)
			}
			ctx, stop := signalContext(cmd)
			defer stop()

			rep, err := a.extraction().Combined(ctx, a.amberSource(), a.forecastSource(ensemble), out)
			if err != nil {
				return err
			}
			a.logReport(rep)
			return nil
		},
	}
	cmd.Flags().StringVar(&ensemble, "ensemble", "", "forecast ensemble (default: first of FORECAST_ENSEMBLES)")
	cmd.Flags().StringVar(&out, "out", "", "archive path (default: under CACHE_DIR/combined)")
	return cmd
}

func amberCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "amber",
		Short: "Extract historical series only",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if out == "" {
				out = a.cfg.AmberArchivePath()
			}
			ctx, stop := signalContext(cmd)
			defer stop()

			rep, err := a.extraction().Amber(ctx, a.amberSource(), out)
			if err != nil {
				return err
			}
			a.logReport(rep)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "archive path (default: under CACHE_DIR/amber)")
	return cmd
}

func forecastJobs(a *app, ensembles []string) []usecase.EnsembleJob {
	if len(ensembles) == 0 {
		ensembles = a.cfg.ForecastEnsembles
	}
	jobs := make([]usecase.EnsembleJob, len(ensembles))
	for i, e := range ensembles {
		jobs[i] = usecase.EnsembleJob{Source: a.forecastSource(e), Out: a.cfg.ForecastArchivePath(e)}
	}
	return jobs
}

func forecastCmd() *cobra.Command {
	var ensembles []string
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Extract forecast series for each ensemble, converted to historical units",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd)
			defer stop()

			reports, err := a.extraction().Forecasts(ctx, forecastJobs(a, ensembles))
			for _, rep := range reports {
				a.logReport(rep)
			}
			return err
		},
	}
	cmd.Flags().StringSliceVar(&ensembles, "ensemble", nil, "ensembles to extract (default: FORECAST_ENSEMBLES)")
	return cmd
}

func maskCmd() *cobra.Command {
	var ensemble, pointsOut string
	cmd := &cobra.Command{
		Use:   "mask",
		Short: "Build the data-availability mask from historical and forecast precipitation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if ensemble == "" {
				ensemble = a.cfg.ForecastEnsembles[0]
			}
			ctx, stop := signalContext(cmd)
			defer stop()

			uc := usecase.NewMaskUseCase(a.logger, a.metrics)
			rep, err := uc.Build(ctx, a.amberSource(), a.forecastSource(ensemble), a.cfg.MaskPath, pointsOut)
			if err != nil {
				return err
			}
			a.logger.Info("mask written", "mask", rep.MaskPath, "points", rep.PointsPath, "valid_points", rep.ValidPoints)
			return nil
		},
	}
	cmd.Flags().StringVar(&ensemble, "ensemble", "", "forecast ensemble to check (default: first of FORECAST_ENSEMBLES)")
	cmd.Flags().StringVar(&pointsOut, "points-out", "", "also write the valid-point list (.npy or raw float32 pairs)")
	return cmd
}

func scheduleCmd() *cobra.Command {
	var runNow bool
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the forecast extraction on FORECAST_SCHEDULE until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd)
			defer stop()

			uc := a.extraction()
			job := func(jobCtx context.Context) error {
				reports, err := uc.Forecasts(jobCtx, forecastJobs(a, nil))
				for _, rep := range reports {
					a.logReport(rep)
				}
				return err
			}

			s := scheduler.New("forecast", a.cfg.ForecastSchedule, job, a.logger)
			if err := s.Start(); err != nil {
				return err
			}
			defer s.Stop()
			if runNow {
				go s.RunNow()
			}

			<-ctx.Done()
			a.logger.Info("shutting down scheduler")
			return nil
		},
	}
	cmd.Flags().BoolVar(&runNow, "now", false, "also run once immediately")
	return cmd
}


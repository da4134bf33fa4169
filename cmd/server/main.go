// Package main provides the climate series HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.ngs.io/agroclim/internal/adapter/store/archive"
	"go.ngs.io/agroclim/internal/config"
	httpHandler "go.ngs.io/agroclim/internal/http"
	"go.ngs.io/agroclim/internal/observability"
	"go.ngs.io/agroclim/internal/usecase"
)

const version = "0.1.0"

func main() {
	// Parse command-line flags.
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	configPath := flag.String("config", "", "YAML configuration file")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("agroclim-server version %s\n", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	// Load the extracted archive.
	path := cfg.ServedArchivePath()
	logger.Info("loading archive", "path", path)
	a, err := archive.Load(path)
	if err != nil {
		logger.Error("failed to load archive", "path", path, "error", err)
		os.Exit(1)
	}
	logger.Info("archive loaded",
		"run_id", a.Meta.RunID.String(),
		"kind", string(a.Meta.Kind),
		"source", a.Meta.Source,
		"points", len(a.Result),
	)
	observability.NewArchiveMetrics().SetArchive(len(a.Result), a.Meta.CreatedAt)

	queryUC := usecase.NewQueryUseCase(a, usecase.DefaultSearchRadiusKm)
	router := httpHandler.SetupRouter(queryUC, cfg.CORSAllowedOrigins)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("Agroclim Series Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  agroclim-server [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println("  -config PATH   YAML configuration file")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  HTTP_ADDR               Listen address (default: :8080)")
	fmt.Println("  ARCHIVE_PATH            Archive to serve (default: combined archive under CACHE_DIR)")
	fmt.Println("  CACHE_DIR               Archive cache directory (default: cache)")
	fmt.Println("  ARCHIVE_CODEC           Archive compression: lz4, zstd or none (default: lz4)")
	fmt.Println("  CORS_ALLOWED_ORIGINS    Comma-separated list of allowed origins (default: all origins)")
	fmt.Println("  LOG_LEVEL               debug, info, warn or error (default: info)")
	fmt.Println("  LOG_FORMAT              json or text (default: json)")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Serve the default combined archive")
	fmt.Println("  agroclim-server")
	fmt.Println()
	fmt.Println("  # Serve a specific archive on a custom port")
	fmt.Println("  ARCHIVE_PATH=cache/amber/2023_to_2024_extracted.gob.lz4 HTTP_ADDR=:3000 agroclim-server")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET /health                    Health check")
	fmt.Println("  GET /metrics                   Prometheus metrics")
	fmt.Println("  GET /v1/variables              List variables in the archive")
	fmt.Println("  GET /v1/points                 List extracted points")
	fmt.Println("  GET /v1/series                 Get the daily series nearest to lat/lon")
	fmt.Println()
}

// Package config loads run and service settings from defaults, an optional
// YAML file, a .env file and the environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"go.ngs.io/agroclim/internal/adapter/store/archive"
	"go.ngs.io/agroclim/internal/domain"
)

// Config holds all settings.
type Config struct {
	AmberDirPattern  string `yaml:"amber_dir_pattern"`
	AmberFilePattern string `yaml:"amber_file_pattern"`
	AmberStartYear   int    `yaml:"amber_start_year"`
	AmberEndYear     int    `yaml:"amber_end_year"`

	ForecastDirPattern  string   `yaml:"forecast_dir_pattern"`
	ForecastFilePattern string   `yaml:"forecast_file_pattern"`
	ForecastEnsembles   []string `yaml:"forecast_ensembles"`

	Variables []string `yaml:"variables"`

	// MaskPath is a .npy or raw validity mask. PointsPath, when set, is a
	// precomputed valid-point list used instead of the mask.
	MaskPath   string `yaml:"mask_path"`
	PointsPath string `yaml:"points_path"`

	Workers   int `yaml:"workers"`
	BatchSize int `yaml:"batch_size"`
	MaxPoints int `yaml:"max_points"`

	CacheDir     string        `yaml:"cache_dir"`
	ArchiveCodec archive.Codec `yaml:"archive_codec"`
	ArchivePath  string        `yaml:"archive_path"`

	HTTPAddr           string   `yaml:"http_addr"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	ForecastSchedule string `yaml:"forecast_schedule"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the settings used when nothing else is configured.
func Default() *Config {
	return &Config{
		AmberDirPattern:     "netcdf_files/combined",
		AmberFilePattern:    "zalf_combined_amber_{year}_v1-0_uncompressed.nc",
		AmberStartYear:      2023,
		AmberEndYear:        2024,
		ForecastDirPattern:  "netcdf_files/forecasts/{ensemble}",
		ForecastFilePattern: "combined.nc",
		ForecastEnsembles:   []string{"r1i1p1"},
		Variables:           domain.DefaultVariables(),
		MaskPath:            "data_availability_mask_h_and_fc.npy",
		CacheDir:            "cache",
		ArchiveCodec:        archive.CodecLZ4,
		HTTPAddr:            ":8080",
		ForecastSchedule:    "0 6 1 * *",
		LogLevel:            "info",
		LogFormat:           "json",
	}
}

// Load builds the configuration. A .env file in the working directory is
// loaded into the environment first if present. yamlPath may be empty.
func Load(yamlPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if yamlPath != "" {
		if err := cfg.mergeYAML(yamlPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.mergeEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv() error {
	envString(&c.AmberDirPattern, "AMBER_DIR_PATTERN")
	envString(&c.AmberFilePattern, "AMBER_FILE_PATTERN")
	envString(&c.ForecastDirPattern, "FORECAST_DIR_PATTERN")
	envString(&c.ForecastFilePattern, "FORECAST_FILE_PATTERN")
	envList(&c.ForecastEnsembles, "FORECAST_ENSEMBLES")
	envList(&c.Variables, "VARIABLES")
	envString(&c.MaskPath, "MASK_PATH")
	envString(&c.PointsPath, "POINTS_PATH")
	envString(&c.CacheDir, "CACHE_DIR")
	envString(&c.ArchivePath, "ARCHIVE_PATH")
	envString(&c.HTTPAddr, "HTTP_ADDR")
	envList(&c.CORSAllowedOrigins, "CORS_ALLOWED_ORIGINS")
	envString(&c.ForecastSchedule, "FORECAST_SCHEDULE")
	envString(&c.LogLevel, "LOG_LEVEL")
	envString(&c.LogFormat, "LOG_FORMAT")

	if v := os.Getenv("ARCHIVE_CODEC"); v != "" {
		codec, err := archive.ParseCodec(v)
		if err != nil {
			return fmt.Errorf("invalid ARCHIVE_CODEC: %w", err)
		}
		c.ArchiveCodec = codec
	}

	for _, e := range []struct {
		key string
		dst *int
	}{
		{"AMBER_START_YEAR", &c.AmberStartYear},
		{"AMBER_END_YEAR", &c.AmberEndYear},
		{"WORKERS", &c.Workers},
		{"BATCH_SIZE", &c.BatchSize},
		{"MAX_POINTS", &c.MaxPoints},
	} {
		if err := envInt(e.dst, e.key); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks ranges and names. Errors name the offending setting.
func (c *Config) Validate() error {
	if c.AmberFilePattern == "" {
		return errors.New("AMBER_FILE_PATTERN is required")
	}
	if c.ForecastFilePattern == "" {
		return errors.New("FORECAST_FILE_PATTERN is required")
	}
	if c.AmberEndYear < c.AmberStartYear {
		return fmt.Errorf("AMBER_END_YEAR (%d) must not be before AMBER_START_YEAR (%d)", c.AmberEndYear, c.AmberStartYear)
	}
	if len(c.ForecastEnsembles) == 0 {
		return errors.New("FORECAST_ENSEMBLES must list at least one ensemble")
	}
	if len(c.Variables) == 0 {
		return errors.New("VARIABLES must list at least one variable")
	}
	for _, v := range c.Variables {
		if !domain.IsKnownVariable(v) {
			return fmt.Errorf("VARIABLES: unknown variable %q", v)
		}
	}
	if c.Workers < 0 {
		return errors.New("WORKERS must be >= 0")
	}
	if c.BatchSize < 0 {
		return errors.New("BATCH_SIZE must be >= 0")
	}
	if c.MaxPoints < 0 {
		return errors.New("MAX_POINTS must be >= 0")
	}
	if _, err := archive.ParseCodec(string(c.ArchiveCodec)); err != nil {
		return fmt.Errorf("invalid ARCHIVE_CODEC: %w", err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	return nil
}

// AmberArchivePath is where a historical-only extraction is stored.
func (c *Config) AmberArchivePath() string {
	name := fmt.Sprintf("%d_to_%d_extracted.gob%s", c.AmberStartYear, c.AmberEndYear, c.ArchiveCodec.Ext())
	return filepath.Join(c.CacheDir, "amber", name)
}

// ForecastArchivePath is where a forecast-only extraction of ensemble is stored.
func (c *Config) ForecastArchivePath(ensemble string) string {
	return filepath.Join(c.CacheDir, "forecast", ensemble+"_extracted.gob"+c.ArchiveCodec.Ext())
}

// CombinedArchivePath is where a combined extraction against ensemble is stored.
func (c *Config) CombinedArchivePath(ensemble string) string {
	name := fmt.Sprintf("%d_to_%d_%s_combined.gob%s", c.AmberStartYear, c.AmberEndYear, ensemble, c.ArchiveCodec.Ext())
	return filepath.Join(c.CacheDir, "combined", name)
}

// ServedArchivePath is the archive served by the query API: ARCHIVE_PATH
// or the combined archive of the first ensemble.
func (c *Config) ServedArchivePath() string {
	if c.ArchivePath != "" {
		return c.ArchivePath
	}
	return c.CombinedArchivePath(c.ForecastEnsembles[0])
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

func envInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

package climate

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.ngs.io/agroclim/internal/domain"
)

// YearRangeSource locates one file per year. DirPattern and FilePattern may
// contain the placeholder {year}, e.g. "/data/amber/{year}" and
// "amber_{year}.nc". File patterns may also use glob metacharacters.
type YearRangeSource struct {
	DirPattern  string
	FilePattern string
	StartYear   int
	EndYear     int
	Logger      *slog.Logger
}

var _ domain.GridSource = (*YearRangeSource)(nil)

// Name implements domain.GridSource.
func (s *YearRangeSource) Name() string {
	return fmt.Sprintf("amber %d-%d", s.StartYear, s.EndYear)
}

// Paths returns the files found for the configured year range, in year order.
// Years without a file are logged and skipped.
func (s *YearRangeSource) Paths() ([]string, error) {
	if s.EndYear < s.StartYear {
		return nil, fmt.Errorf("end year %d before start year %d", s.EndYear, s.StartYear)
	}
	var paths []string
	for year := s.StartYear; year <= s.EndYear; year++ {
		r := strings.NewReplacer("{year}", strconv.Itoa(year))
		matches, err := globPattern(r.Replace(s.DirPattern), r.Replace(s.FilePattern))
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			logger(s.Logger).Warn("no file for year", "source", s.Name(), "year", year)
			continue
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}

// Open implements domain.GridSource. It returns nil, nil when no year has a file.
func (s *YearRangeSource) Open() (domain.GridReader, error) {
	paths, err := s.Paths()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		logger(s.Logger).Warn("no dataset files found", "source", s.Name())
		return nil, nil
	}
	ds, err := OpenDataset(paths)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Name(), err)
	}
	return ds, nil
}

// EnsembleSource locates the file(s) of one forecast ensemble member.
// DirPattern and FilePattern may contain the placeholder {ensemble}.
type EnsembleSource struct {
	DirPattern  string
	FilePattern string
	Ensemble    string
	Logger      *slog.Logger
}

var _ domain.GridSource = (*EnsembleSource)(nil)

// Name implements domain.GridSource.
func (s *EnsembleSource) Name() string {
	return "forecast ensemble " + s.Ensemble
}

// Paths returns the files found for the ensemble.
func (s *EnsembleSource) Paths() ([]string, error) {
	r := strings.NewReplacer("{ensemble}", s.Ensemble)
	return globPattern(r.Replace(s.DirPattern), r.Replace(s.FilePattern))
}

// Open implements domain.GridSource. It returns nil, nil when the ensemble has no file.
func (s *EnsembleSource) Open() (domain.GridReader, error) {
	paths, err := s.Paths()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		logger(s.Logger).Warn("no file for ensemble", "source", s.Name(), "ensemble", s.Ensemble)
		return nil, nil
	}
	ds, err := OpenDataset(paths)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Name(), err)
	}
	return ds, nil
}

func globPattern(dir, file string) ([]string, error) {
	pattern := filepath.Join(dir, file)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid file pattern %q: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

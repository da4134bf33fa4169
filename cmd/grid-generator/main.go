// Command grid-generator writes synthetic historical and forecast climate
// grids laid out the way the extractor expects them, for local development
// and end-to-end testing.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.ngs.io/agroclim/internal/adapter/store/climate"
	"go.ngs.io/agroclim/internal/domain"
	"go.ngs.io/agroclim/internal/observability"
)

// RegionalGrid defines the geographic bounds and resolution.
type RegionalGrid struct {
	LatMin     float64
	LatMax     float64
	LonMin     float64
	LonMax     float64
	Resolution float64 // degrees
}

func (g RegionalGrid) axes() (lats, lons []float64) {
	nLat := int(math.Round((g.LatMax-g.LatMin)/g.Resolution)) + 1
	nLon := int(math.Round((g.LonMax-g.LonMin)/g.Resolution)) + 1
	lats = make([]float64, nLat)
	for i := range lats {
		lats[i] = g.LatMin + float64(i)*g.Resolution
	}
	lons = make([]float64, nLon)
	for j := range lons {
		lons[j] = g.LonMin + float64(j)*g.Resolution
	}
	return lats, lons
}

type generator struct {
	grid      RegionalGrid
	lats      []float64
	lons      []float64
	sea       []bool // per (lat, lon) cell; sea cells have no data
	variables []string
	seed      uint64
	logger    *slog.Logger
}

func main() {
	outDir := flag.String("out", "./netcdf_files", "Output root directory")
	region := flag.String("region", "brandenburg", "Region: brandenburg, germany, or custom")
	latMin := flag.Float64("lat-min", 51.0, "Minimum latitude (custom region)")
	latMax := flag.Float64("lat-max", 54.0, "Maximum latitude (custom region)")
	lonMin := flag.Float64("lon-min", 11.0, "Minimum longitude (custom region)")
	lonMax := flag.Float64("lon-max", 15.0, "Maximum longitude (custom region)")
	resolution := flag.Float64("resolution", 0.25, "Grid resolution in degrees")
	startYear := flag.Int("start-year", 2023, "First historical year")
	endYear := flag.Int("end-year", 2024, "Last historical year")
	ensembles := flag.String("ensembles", "r1i1p1", "Comma-separated forecast ensembles")
	forecastDays := flag.Int("forecast-days", 214, "Forecast length in days, starting after the last historical year")
	seaFraction := flag.Float64("sea-fraction", 0.1, "Fraction of cells without data")
	seed := flag.Uint64("seed", 1, "Random seed")

	flag.Parse()
	logger := observability.NewLogger(os.Stderr, "info", "text")

	var grid RegionalGrid
	switch *region {
	case "brandenburg":
		grid = RegionalGrid{LatMin: 51.0, LatMax: 54.0, LonMin: 11.0, LonMax: 15.0, Resolution: *resolution}
	case "germany":
		grid = RegionalGrid{LatMin: 47.0, LatMax: 55.0, LonMin: 5.5, LonMax: 15.5, Resolution: *resolution}
	case "custom":
		grid = RegionalGrid{LatMin: *latMin, LatMax: *latMax, LonMin: *lonMin, LonMax: *lonMax, Resolution: *resolution}
	default:
		logger.Error("unknown region (use brandenburg, germany, or custom)", "region", *region)
		os.Exit(1)
	}
	if grid.Resolution <= 0 || grid.LatMax < grid.LatMin || grid.LonMax < grid.LonMin {
		logger.Error("invalid grid", "grid", fmt.Sprintf("%+v", grid))
		os.Exit(1)
	}
	if *endYear < *startYear {
		logger.Error("end year before start year", "start", *startYear, "end", *endYear)
		os.Exit(1)
	}

	g := newGenerator(grid, *seaFraction, *seed, logger)
	logger.Info("grid defined", "lats", len(g.lats), "lons", len(g.lons), "sea_fraction", *seaFraction)

	for year := *startYear; year <= *endYear; year++ {
		path := filepath.Join(*outDir, "combined", fmt.Sprintf("zalf_combined_amber_%d_v1-0_uncompressed.nc", year))
		start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
		days := start.AddDate(1, 0, 0).Sub(start).Hours() / 24
		if err := g.write(path, start, int(days), false); err != nil {
			logger.Error("failed to write historical grid", "path", path, "error", err)
			os.Exit(1)
		}
	}

	fcStart := time.Date(*endYear+1, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, e := range strings.Split(*ensembles, ",") {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		path := filepath.Join(*outDir, "forecasts", e, "combined.nc")
		if err := g.write(path, fcStart, *forecastDays, true); err != nil {
			logger.Error("failed to write forecast grid", "path", path, "error", err)
			os.Exit(1)
		}
	}
	logger.Info("done", "out", *outDir)
}

func newGenerator(grid RegionalGrid, seaFraction float64, seed uint64, logger *slog.Logger) *generator {
	lats, lons := grid.axes()
	rng := rand.New(rand.NewPCG(seed, 0))
	sea := make([]bool, len(lats)*len(lons))
	for i := range sea {
		sea[i] = rng.Float64() < seaFraction
	}
	return &generator{
		grid:      grid,
		lats:      lats,
		lons:      lons,
		sea:       sea,
		variables: domain.DefaultVariables(),
		seed:      seed,
		logger:    logger,
	}
}

// write generates days of data starting at start. Forecast grids carry
// temperatures in Kelvin and radiation as an hourly rate.
func (g *generator) write(path string, start time.Time, days int, forecast bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	nLat, nLon := len(g.lats), len(g.lons)
	times := make([]time.Time, days)
	for k := range times {
		times[k] = start.AddDate(0, 0, k)
	}

	rng := rand.New(rand.NewPCG(g.seed, uint64(start.Unix())))
	spec := climate.GridSpec{
		Lats:      g.lats,
		Lons:      g.lons,
		Times:     times,
		TimeUnits: "days since " + start.Format("2006-01-02"),
		Variables: make(map[string][]float64, len(g.variables)),
		VarUnits:  make(map[string]string, len(g.variables)),
	}
	for _, name := range g.variables {
		data := make([]float64, days*nLat*nLon)
		for k, t := range times {
			season := math.Sin(2 * math.Pi * (float64(t.YearDay()) - 110) / 365.25)
			for i := range nLat {
				for j := range nLon {
					idx := (k*nLat+i)*nLon + j
					if g.sea[i*nLon+j] {
						data[idx] = math.NaN()
						continue
					}
					data[idx] = sample(name, season, g.lats[i], rng, forecast)
				}
			}
		}
		spec.Variables[name] = data
		spec.VarUnits[name] = units(name, forecast)
	}

	if err := climate.WriteGrid(path, spec); err != nil {
		return err
	}
	g.logger.Info("wrote grid", "path", path, "days", days, "forecast", forecast)
	return nil
}

func sample(name string, season, lat float64, rng *rand.Rand, forecast bool) float64 {
	tas := 9 + 9*season - 0.5*(lat-52) + rng.NormFloat64()*2
	var v float64
	switch name {
	case domain.VarTempMean:
		v = tas
	case domain.VarTempMax:
		v = tas + 4 + rng.Float64()*3
	case domain.VarTempMin:
		v = tas - 4 - rng.Float64()*3
	case domain.VarPrecipitation:
		if rng.Float64() < 0.6 {
			return 0
		}
		return rng.ExpFloat64() * 4
	case domain.VarHumidity:
		return math.Min(100, math.Max(20, 78-12*season+rng.NormFloat64()*8))
	case domain.VarWindSpeed:
		return math.Abs(3.5 + rng.NormFloat64()*1.5)
	case domain.VarRadiation:
		daily := math.Max(0.5, 11+9*season+rng.NormFloat64()*2)
		if forecast {
			return daily / domain.RadiationHours
		}
		return daily
	}
	if forecast {
		v += domain.KelvinOffset
	}
	return v
}

func units(name string, forecast bool) string {
	switch name {
	case domain.VarTempMean, domain.VarTempMax, domain.VarTempMin:
		if forecast {
			return "K"
		}
		return "degC"
	case domain.VarPrecipitation:
		return "mm"
	case domain.VarHumidity:
		return "%"
	case domain.VarWindSpeed:
		return "m s-1"
	case domain.VarRadiation:
		if forecast {
			return "MJ m-2 h-1"
		}
		return "MJ m-2"
	}
	return ""
}

// Package climate reads daily climate grids stored as NetCDF files with
// (time, lat, lon) variables, one file per year or ensemble member.
package climate

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/agroclim/internal/adapter/grid"
	"go.ngs.io/agroclim/internal/domain"
)

// ncMu serializes every call into the netCDF C library, which is not thread-safe.
var ncMu sync.Mutex

var (
	latNames  = []string{"lat", "latitude", "y"}
	lonNames  = []string{"lon", "longitude", "x"}
	timeNames = []string{"time", "t"}
)

// ErrNoFiles is returned when a dataset is opened without any path.
var ErrNoFiles = errors.New("no dataset files")

type gridFile struct {
	path  string
	nc    netcdf.Dataset
	open  bool
	times []time.Time
}

// Dataset is a set of NetCDF files sharing the same lat/lon grid,
// concatenated along time. It implements domain.GridReader.
type Dataset struct {
	files []*gridFile
	lats  []float64
	lons  []float64
	times []time.Time
}

var _ domain.GridReader = (*Dataset)(nil)

// OpenDataset opens every path and concatenates the files along time.
// Files may be given in any order; they are sorted by their first timestamp.
func OpenDataset(paths []string) (*Dataset, error) {
	if len(paths) == 0 {
		return nil, ErrNoFiles
	}

	ncMu.Lock()
	defer ncMu.Unlock()

	ds := &Dataset{}
	for _, p := range paths {
		f, lats, lons, err := openGridFile(p)
		if err != nil {
			_ = ds.closeLocked()
			return nil, err
		}
		ds.files = append(ds.files, f)

		if ds.lats == nil {
			ds.lats, ds.lons = lats, lons
			continue
		}
		if !grid.Axis(ds.lats).Equal(lats) || !grid.Axis(ds.lons).Equal(lons) {
			_ = ds.closeLocked()
			return nil, fmt.Errorf("%s: lat/lon grid differs from %s", p, ds.files[0].path)
		}
	}

	sort.SliceStable(ds.files, func(i, j int) bool {
		return firstTime(ds.files[i]).Before(firstTime(ds.files[j]))
	})

	for i, f := range ds.files {
		if i > 0 && len(f.times) > 0 && len(ds.times) > 0 && !f.times[0].After(ds.times[len(ds.times)-1]) {
			_ = ds.closeLocked()
			return nil, fmt.Errorf("%s: time axis overlaps %s", f.path, ds.files[i-1].path)
		}
		ds.times = append(ds.times, f.times...)
	}

	return ds, nil
}

func firstTime(f *gridFile) time.Time {
	if len(f.times) == 0 {
		return time.Time{}
	}
	return f.times[0]
}

// openGridFile opens one file and reads its coordinate axes. Callers hold ncMu.
func openGridFile(path string) (*gridFile, []float64, []float64, error) {
	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open NetCDF file %s: %w", path, err)
	}

	lats, err := readAxis(nc, latNames)
	if err != nil {
		_ = nc.Close()
		return nil, nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	lons, err := readAxis(nc, lonNames)
	if err != nil {
		_ = nc.Close()
		return nil, nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	times, err := readTimeAxis(nc)
	if err != nil {
		_ = nc.Close()
		return nil, nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	return &gridFile{path: path, nc: nc, open: true, times: times}, lats, lons, nil
}

func findVar(nc netcdf.Dataset, names []string) (netcdf.Var, string, bool) {
	for _, name := range names {
		if v, err := nc.Var(name); err == nil {
			return v, name, true
		}
	}
	return netcdf.Var{}, "", false
}

func readAxis(nc netcdf.Dataset, names []string) ([]float64, error) {
	v, name, ok := findVar(nc, names)
	if !ok {
		return nil, fmt.Errorf("coordinate variable not found (tried: %v)", names)
	}
	data, err := readFloat64Var(v)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := grid.Axis(data).Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s axis: %w", name, err)
	}
	return data, nil
}

func readTimeAxis(nc netcdf.Dataset) ([]time.Time, error) {
	v, name, ok := findVar(nc, timeNames)
	if !ok {
		return nil, fmt.Errorf("time variable not found (tried: %v)", timeNames)
	}
	raw, err := readFloat64Var(v)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	units, ok := getTextAttr(v, "units")
	if !ok {
		return nil, fmt.Errorf("time variable %s has no units attribute", name)
	}
	calendar, _ := getTextAttr(v, "calendar")
	times, err := decodeTimes(raw, units, calendar)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return times, nil
}

// Latitudes implements domain.GridReader.
func (d *Dataset) Latitudes() []float64 { return d.lats }

// Longitudes implements domain.GridReader.
func (d *Dataset) Longitudes() []float64 { return d.lons }

// Times implements domain.GridReader.
func (d *Dataset) Times() []time.Time { return d.times }

// Files returns the paths backing the dataset in time order.
func (d *Dataset) Files() []string {
	out := make([]string, len(d.files))
	for i, f := range d.files {
		out[i] = f.path
	}
	return out
}

// ReadCell implements domain.GridReader.
func (d *Dataset) ReadCell(variable string, latIdx, lonIdx int) ([]float64, error) {
	if latIdx < 0 || latIdx >= len(d.lats) || lonIdx < 0 || lonIdx >= len(d.lons) {
		return nil, fmt.Errorf("cell (%d, %d) outside %dx%d grid", latIdx, lonIdx, len(d.lats), len(d.lons))
	}

	ncMu.Lock()
	defer ncMu.Unlock()

	out := make([]float64, 0, len(d.times))
	for _, f := range d.files {
		if !f.open {
			return nil, fmt.Errorf("%s: dataset is closed", f.path)
		}
		v, err := f.nc.Var(variable)
		if err != nil {
			return nil, fmt.Errorf("%s: variable %q not found: %w", f.path, variable, err)
		}
		if err := d.checkShape(v, len(f.times)); err != nil {
			return nil, fmt.Errorf("%s: %s: %w", f.path, variable, err)
		}
		vals, err := readCellSeries(v, len(f.times), latIdx, lonIdx)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", f.path, variable, err)
		}
		out = append(out, vals...)
	}
	return out, nil
}

// checkShape verifies that v is laid out as (time, lat, lon).
func (d *Dataset) checkShape(v netcdf.Var, nTime int) error {
	dims, err := v.Dims()
	if err != nil {
		return fmt.Errorf("failed to get dimensions: %w", err)
	}
	if len(dims) != 3 {
		return fmt.Errorf("expected (time, lat, lon) variable, got %dD", len(dims))
	}
	want := []int{nTime, len(d.lats), len(d.lons)}
	for i, dim := range dims {
		n, err := dim.Len()
		if err != nil {
			return err
		}
		//nolint:gosec // G115: Dimension lengths fit in int.
		if int(n) != want[i] {
			return fmt.Errorf("dimension %d has length %d, expected %d", i, n, want[i])
		}
	}
	return nil
}

// Close releases all file handles. It is safe to call more than once.
func (d *Dataset) Close() error {
	ncMu.Lock()
	defer ncMu.Unlock()
	return d.closeLocked()
}

func (d *Dataset) closeLocked() error {
	var errs []error
	for _, f := range d.files {
		if !f.open {
			continue
		}
		if err := f.nc.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", f.path, err))
		}
		f.open = false
	}
	return errors.Join(errs...)
}

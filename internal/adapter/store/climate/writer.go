package climate

import (
	"fmt"
	"math"
	"time"

	"github.com/fhs/go-netcdf/netcdf"
)

// DefaultFillValue is written as _FillValue for data variables.
const DefaultFillValue float32 = -9999

// GridSpec describes a (time, lat, lon) grid to be written by WriteGrid.
type GridSpec struct {
	Lats  []float64
	Lons  []float64
	Times []time.Time
	// Units of the time variable, e.g. "days since 2023-01-01".
	TimeUnits string
	// Variables maps a name to values in (time, lat, lon) row-major order.
	// NaN is stored as the fill value.
	Variables map[string][]float64
	// VarUnits optionally sets the "units" attribute per variable.
	VarUnits map[string]string
}

// WriteGrid creates a NetCDF-4 file at path holding spec.
func WriteGrid(path string, spec GridSpec) (err error) {
	nt, nlat, nlon := len(spec.Times), len(spec.Lats), len(spec.Lons)
	for name, data := range spec.Variables {
		if len(data) != nt*nlat*nlon {
			return fmt.Errorf("variable %s has %d values, expected %d", name, len(data), nt*nlat*nlon)
		}
	}
	units := spec.TimeUnits
	if units == "" && nt > 0 {
		units = "days since " + spec.Times[0].UTC().Format("2006-01-02 15:04:05")
	}
	step, ref, err := parseTimeUnits(units)
	if err != nil {
		return err
	}
	timeVals := make([]float64, nt)
	for i, t := range spec.Times {
		timeVals[i] = float64(t.Sub(ref)) / float64(step)
	}

	ncMu.Lock()
	defer ncMu.Unlock()

	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := ds.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	//nolint:gosec // G115: Safe int to uint64 conversion for NetCDF dimensions.
	timeDim, err := ds.AddDim("time", uint64(nt))
	if err != nil {
		return err
	}
	//nolint:gosec // G115: Safe int to uint64 conversion for NetCDF dimensions.
	latDim, err := ds.AddDim("lat", uint64(nlat))
	if err != nil {
		return err
	}
	//nolint:gosec // G115: Safe int to uint64 conversion for NetCDF dimensions.
	lonDim, err := ds.AddDim("lon", uint64(nlon))
	if err != nil {
		return err
	}

	timeVar, err := ds.AddVar("time", netcdf.DOUBLE, []netcdf.Dim{timeDim})
	if err != nil {
		return err
	}
	if err := timeVar.Attr("units").WriteBytes([]byte(units)); err != nil {
		return err
	}
	if err := timeVar.Attr("calendar").WriteBytes([]byte("standard")); err != nil {
		return err
	}
	latVar, err := ds.AddVar("lat", netcdf.DOUBLE, []netcdf.Dim{latDim})
	if err != nil {
		return err
	}
	lonVar, err := ds.AddVar("lon", netcdf.DOUBLE, []netcdf.Dim{lonDim})
	if err != nil {
		return err
	}

	dataVars := make(map[string]netcdf.Var, len(spec.Variables))
	for name := range spec.Variables {
		v, err := ds.AddVar(name, netcdf.FLOAT, []netcdf.Dim{timeDim, latDim, lonDim})
		if err != nil {
			return fmt.Errorf("add %s: %w", name, err)
		}
		if err := v.Attr("_FillValue").WriteFloat32s([]float32{DefaultFillValue}); err != nil {
			return err
		}
		if u, ok := spec.VarUnits[name]; ok {
			if err := v.Attr("units").WriteBytes([]byte(u)); err != nil {
				return err
			}
		}
		dataVars[name] = v
	}

	if err := ds.EndDef(); err != nil {
		return fmt.Errorf("enddef: %w", err)
	}

	if nt > 0 {
		if err := timeVar.WriteFloat64s(timeVals); err != nil {
			return fmt.Errorf("write time: %w", err)
		}
	}
	if err := latVar.WriteFloat64s(spec.Lats); err != nil {
		return fmt.Errorf("write lat: %w", err)
	}
	if err := lonVar.WriteFloat64s(spec.Lons); err != nil {
		return fmt.Errorf("write lon: %w", err)
	}
	for name, v := range dataVars {
		if nt == 0 {
			continue
		}
		src := spec.Variables[name]
		buf := make([]float32, len(src))
		for i, x := range src {
			if math.IsNaN(x) {
				buf[i] = DefaultFillValue
			} else {
				buf[i] = float32(x)
			}
		}
		if err := v.WriteFloat32s(buf); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

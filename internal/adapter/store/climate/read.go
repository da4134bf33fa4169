package climate

import (
	"fmt"
	"math"

	"github.com/fhs/go-netcdf/netcdf"
)

// readFloat64Var reads a 1D variable (coordinate axis) as float64.
func readFloat64Var(v netcdf.Var) ([]float64, error) {
	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions: %w", err)
	}
	if len(dims) != 1 {
		return nil, fmt.Errorf("expected 1D variable, got %dD", len(dims))
	}

	length, err := dims[0].Len()
	if err != nil {
		return nil, err
	}

	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get var type: %w", err)
	}

	switch t {
	case netcdf.DOUBLE:
		data := make([]float64, length)
		if err := v.ReadFloat64s(data); err != nil {
			return nil, err
		}
		return data, nil
	case netcdf.FLOAT:
		tmp := make([]float32, length)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, err
		}
		return widen(tmp), nil
	case netcdf.INT:
		tmp := make([]int32, length)
		if err := v.ReadInt32s(tmp); err != nil {
			return nil, err
		}
		return widen(tmp), nil
	case netcdf.SHORT:
		tmp := make([]int16, length)
		if err := v.ReadInt16s(tmp); err != nil {
			return nil, err
		}
		return widen(tmp), nil
	default:
		return nil, fmt.Errorf("unsupported var type: %v", t)
	}
}

// readCellSeries reads var[0:nTime, latIdx, lonIdx] from a (time, lat, lon)
// variable, decoding packing and fill values. Fill values become NaN.
func readCellSeries(v netcdf.Var, nTime, latIdx, lonIdx int) ([]float64, error) {
	varType, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get variable type: %w", err)
	}

	//nolint:gosec // G115: Indices are validated against dimension lengths.
	start := []uint64{0, uint64(latIdx), uint64(lonIdx)}
	//nolint:gosec // G115: Safe int to uint64 conversion for NetCDF dimensions.
	count := []uint64{uint64(nTime), 1, 1}

	var out []float64
	switch varType {
	case netcdf.DOUBLE:
		out = make([]float64, nTime)
		if err := v.ReadFloat64Slice(out, start, count); err != nil {
			return nil, fmt.Errorf("failed to read float64 subset: %w", err)
		}
	case netcdf.FLOAT:
		tmp := make([]float32, nTime)
		if err := v.ReadFloat32Slice(tmp, start, count); err != nil {
			return nil, fmt.Errorf("failed to read float32 subset: %w", err)
		}
		out = widen(tmp)
	case netcdf.SHORT:
		tmp := make([]int16, nTime)
		if err := v.ReadInt16Slice(tmp, start, count); err != nil {
			return nil, fmt.Errorf("failed to read int16 subset: %w", err)
		}
		out = widen(tmp)
	case netcdf.INT:
		tmp := make([]int32, nTime)
		if err := v.ReadInt32Slice(tmp, start, count); err != nil {
			return nil, fmt.Errorf("failed to read int32 subset: %w", err)
		}
		out = widen(tmp)
	default:
		return nil, fmt.Errorf("unsupported data type: %v (expected DOUBLE, FLOAT, INT, or SHORT)", varType)
	}

	// Fill values are compared on the packed representation.
	if fv, ok := getFillValue(v); ok {
		for k := range out {
			if out[k] == fv {
				out[k] = math.NaN()
			}
		}
	}

	scale, hasScale := getScalarAttr(v, "scale_factor")
	offset, hasOffset := getScalarAttr(v, "add_offset")
	if (hasScale && scale != 0 && scale != 1) || (hasOffset && offset != 0) {
		if !hasScale || scale == 0 {
			scale = 1
		}
		for k := range out {
			out[k] = out[k]*scale + offset
		}
	}

	return out, nil
}

// getFillValue returns the _FillValue or missing_value attribute if present as float64.
func getFillValue(v netcdf.Var) (float64, bool) {
	for _, name := range []string{"_FillValue", "missing_value"} {
		if fv, ok := getScalarAttr(v, name); ok {
			return fv, true
		}
	}
	return 0, false
}

// getScalarAttr reads a numeric attribute's first value as float64.
func getScalarAttr(v netcdf.Var, name string) (float64, bool) {
	a := v.Attr(name)
	n, err := a.Len()
	if err != nil || n == 0 {
		return 0, false
	}
	t, err := a.Type()
	if err != nil {
		return 0, false
	}

	switch t {
	case netcdf.DOUBLE:
		buf := make([]float64, n)
		if err := a.ReadFloat64s(buf); err == nil {
			return buf[0], true
		}
	case netcdf.FLOAT:
		buf := make([]float32, n)
		if err := a.ReadFloat32s(buf); err == nil {
			return float64(buf[0]), true
		}
	case netcdf.INT:
		buf := make([]int32, n)
		if err := a.ReadInt32s(buf); err == nil {
			return float64(buf[0]), true
		}
	case netcdf.SHORT:
		buf := make([]int16, n)
		if err := a.ReadInt16s(buf); err == nil {
			return float64(buf[0]), true
		}
	}
	return 0, false
}

// getTextAttr reads a CHAR attribute such as "units" or "calendar".
func getTextAttr(v netcdf.Var, name string) (string, bool) {
	a := v.Attr(name)
	n, err := a.Len()
	if err != nil || n == 0 {
		return "", false
	}
	buf := make([]byte, n)
	if err := a.ReadBytes(buf); err != nil {
		return "", false
	}
	// Some writers include the C string terminator.
	for len(buf) > 0 && buf[len(buf)-1] == 0 {
		buf = buf[:len(buf)-1]
	}
	return string(buf), true
}

func widen[T float32 | int32 | int16](in []T) []float64 {
	out := make([]float64, len(in))
	for i, val := range in {
		out[i] = float64(val)
	}
	return out
}

package mask

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/sbinet/npyio/npy"

	"go.ngs.io/agroclim/internal/domain"
)

// SavePoints writes points as little-endian float32 (lat, lon) pairs. A .npy
// path gets a float32 array of 2*len(points) values; any other path is
// written raw.
func SavePoints(path string, points []domain.GridPoint) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create point list: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to write point list %s: %w", path, cerr)
		}
	}()

	data := make([]float32, 0, 2*len(points))
	for _, p := range points {
		data = append(data, float32(p.Lat), float32(p.Lon))
	}

	w := bufio.NewWriter(f)
	if isNPY(path) {
		err = npy.Write(w, data)
	} else {
		err = binary.Write(w, binary.LittleEndian, data)
	}
	if err == nil {
		err = w.Flush()
	}
	if err != nil {
		return fmt.Errorf("failed to write point list %s: %w", path, err)
	}
	return nil
}

// LoadPoints reads a list written by SavePoints, preserving file order. A
// .npy list may also be a float32 array of shape (n, 2).
func LoadPoints(path string) ([]domain.GridPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open point list: %w", err)
	}
	defer func() { _ = f.Close() }()

	var data []float32
	if isNPY(path) {
		data, err = readNPYPoints(bufio.NewReader(f))
	} else {
		data, err = readRawPoints(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	points := make([]domain.GridPoint, len(data)/2)
	for i := range points {
		points[i] = domain.GridPoint{Lat: float64(data[2*i]), Lon: float64(data[2*i+1])}
	}
	return points, nil
}

func readRawPoints(r io.Reader) ([]float32, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(raw)%8 != 0 {
		return nil, fmt.Errorf("%d trailing bytes", len(raw)%8)
	}
	data := make([]float32, len(raw)/4)
	for i := range data {
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return data, nil
}

func readNPYPoints(r io.Reader) ([]float32, error) {
	nr, err := npy.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidNPY, err)
	}
	h := nr.Header.Descr
	if h.Type != "<f4" {
		return nil, fmt.Errorf("%w: point dtype %s, expected <f4", ErrInvalidNPY, h.Type)
	}
	twoCols := len(h.Shape) == 2 && h.Shape[1] == 2
	if !twoCols && (len(h.Shape) != 1 || h.Shape[0]%2 != 0) {
		return nil, fmt.Errorf("%w: point shape %v", ErrInvalidNPY, h.Shape)
	}

	var data []float32
	if err := nr.Read(&data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidNPY, err)
	}
	if twoCols && h.Fortran {
		// Column-major (n, 2): all latitudes, then all longitudes.
		n := h.Shape[0]
		pairs := make([]float32, 0, 2*n)
		for i := range n {
			pairs = append(pairs, data[i], data[n+i])
		}
		return pairs, nil
	}
	return data, nil
}

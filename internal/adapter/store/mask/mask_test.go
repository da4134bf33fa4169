package mask

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sbinet/npyio/npy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/agroclim/internal/domain"
)

func sampleMask() domain.Mask {
	m := domain.NewMask(2, 3)
	m.Set(0, 1, true)
	m.Set(1, 0, true)
	m.Set(1, 2, true)
	return m
}

// npyBytes builds a version 1.0 .npy file around a header dictionary.
func npyBytes(dict string, data []byte) []byte {
	pad := 64 - (10+len(dict)+1)%64
	if pad == 64 {
		pad = 0
	}
	header := dict + strings.Repeat(" ", pad) + "\n"

	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY")
	buf.Write([]byte{1, 0})
	_ = binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
	buf.Write(data)
	return buf.Bytes()
}

func TestSaveLoad_NPY(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mask.npy")
	require.NoError(t, Save(path, sampleMask()))

	got, err := Load(path, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, sampleMask(), got)

	_, err = Load(path, 3, 3)
	assert.ErrorIs(t, err, domain.ErrShapeMismatch)

	_, err = Load(path, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidNPY)
}

func TestSave_NPYIsBoolArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mask.npy")
	require.NoError(t, Save(path, sampleMask()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r, err := npy.NewReader(f)
	require.NoError(t, err)
	assert.Equal(t, "|b1", r.Header.Descr.Type)
	assert.Equal(t, []int{6}, r.Header.Descr.Shape)

	var cells []bool
	require.NoError(t, r.Read(&cells))
	assert.Equal(t, []bool{false, true, false, true, false, true}, cells)
}

func TestLoad_NPY2D(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mask.npy")
	dict := "{'descr': '|b1', 'fortran_order': False, 'shape': (2, 3), }"
	require.NoError(t, os.WriteFile(path, npyBytes(dict, []byte{0, 1, 0, 1, 0, 1}), 0o644))

	got, err := Load(path, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, sampleMask(), got)
}

func TestLoad_NPYFortranOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mask.npy")
	dict := "{'descr': '|b1', 'fortran_order': True, 'shape': (2, 3), }"
	// Column-major order of sampleMask.
	require.NoError(t, os.WriteFile(path, npyBytes(dict, []byte{0, 1, 1, 0, 0, 1}), 0o644))

	got, err := Load(path, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, sampleMask(), got)
}

func TestLoad_NPYUint8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mask.npy")
	dict := "{'descr': '|u1', 'fortran_order': False, 'shape': (2, 3), }"
	require.NoError(t, os.WriteFile(path, npyBytes(dict, []byte{0, 7, 0, 1, 0, 255}), 0o644))

	got, err := Load(path, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, sampleMask(), got)
}

func TestLoad_NPYRejects(t *testing.T) {
	dir := t.TempDir()

	notNumpy := filepath.Join(dir, "garbage.npy")
	require.NoError(t, os.WriteFile(notNumpy, []byte("not numpy"), 0o644))
	_, err := Load(notNumpy, 2, 2)
	assert.ErrorIs(t, err, ErrInvalidNPY)

	floats := filepath.Join(dir, "floats.npy")
	f, err := os.Create(floats)
	require.NoError(t, err)
	require.NoError(t, npy.Write(f, []float64{1, 0, 1, 0}))
	require.NoError(t, f.Close())
	_, err = Load(floats, 2, 2)
	assert.ErrorIs(t, err, ErrInvalidNPY)
}

func TestSaveLoad_Raw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mask.bin")
	require.NoError(t, Save(path, sampleMask()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 0, 1, 0, 1}, raw)

	got, err := Load(path, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, sampleMask(), got)

	_, err = Load(path, 2, 2)
	assert.ErrorIs(t, err, domain.ErrShapeMismatch)

	_, err = Load(path, 0, 0)
	assert.Error(t, err)
}

func TestPoints_RoundTrip(t *testing.T) {
	points := []domain.GridPoint{{Lat: 54.5, Lon: 9.25}, {Lat: -30, Lon: 150.75}}
	for _, name := range []string{"points.npy", "points.bin"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, SavePoints(path, points))

			got, err := LoadPoints(path)
			require.NoError(t, err)
			assert.Equal(t, points, got)
		})
	}
}

func TestLoadPoints_NPYTwoColumns(t *testing.T) {
	want := []domain.GridPoint{{Lat: 54.5, Lon: 9.25}, {Lat: -30, Lon: 150.75}}
	for _, tc := range []struct {
		name    string
		fortran string
		values  []float32
	}{
		{"c order", "False", []float32{54.5, 9.25, -30, 150.75}},
		{"fortran order", "True", []float32{54.5, -30, 9.25, 150.75}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var data bytes.Buffer
			require.NoError(t, binary.Write(&data, binary.LittleEndian, tc.values))
			dict := "{'descr': '<f4', 'fortran_order': " + tc.fortran + ", 'shape': (2, 2), }"
			path := filepath.Join(t.TempDir(), "points.npy")
			require.NoError(t, os.WriteFile(path, npyBytes(dict, data.Bytes()), 0o644))

			got, err := LoadPoints(path)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLoadPoints_Truncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.bin")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))
	_, err := LoadPoints(path)
	assert.Error(t, err)
}

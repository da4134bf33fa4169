// Package mask persists validity masks and valid-point lists.
//
// Masks are stored either as NumPy .npy boolean arrays or as raw row-major
// byte arrays (one byte per cell, non-zero = valid). The format is chosen by
// file extension.
package mask

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sbinet/npyio/npy"

	"go.ngs.io/agroclim/internal/domain"
)

// ErrInvalidNPY is returned for .npy files of an unsupported dtype or shape.
var ErrInvalidNPY = errors.New("invalid .npy file")

func isNPY(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".npy")
}

// Load reads a mask. For raw files rows and cols give the expected shape.
// A 2D .npy array keeps its stored shape, which is checked against rows and
// cols when they are positive; a 1D .npy array is taken as row-major cells
// and needs rows and cols.
func Load(path string, rows, cols int) (domain.Mask, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Mask{}, fmt.Errorf("failed to open mask: %w", err)
	}
	defer func() { _ = f.Close() }()

	var m domain.Mask
	if isNPY(path) {
		m, err = decodeNPYMask(bufio.NewReader(f), rows, cols)
	} else {
		m, err = decodeRawMask(f, rows, cols)
	}
	if err != nil {
		return domain.Mask{}, fmt.Errorf("%s: %w", path, err)
	}
	if (rows > 0 && m.Rows != rows) || (cols > 0 && m.Cols != cols) {
		return domain.Mask{}, fmt.Errorf("%w: %s is %dx%d, expected %dx%d",
			domain.ErrShapeMismatch, path, m.Rows, m.Cols, rows, cols)
	}
	return m, nil
}

// Save writes a mask in the format implied by the file extension. A .npy
// mask is written as a row-major bool vector of rows*cols cells.
func Save(path string, m domain.Mask) (err error) {
	if len(m.Cells) != m.Rows*m.Cols {
		return fmt.Errorf("%w: mask has %d cells for shape %dx%d",
			domain.ErrShapeMismatch, len(m.Cells), m.Rows, m.Cols)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create mask: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to write mask %s: %w", path, cerr)
		}
	}()

	w := bufio.NewWriter(f)
	if isNPY(path) {
		err = npy.Write(w, m.Cells)
	} else {
		_, err = w.Write(maskBytes(m))
	}
	if err == nil {
		err = w.Flush()
	}
	if err != nil {
		return fmt.Errorf("failed to write mask %s: %w", path, err)
	}
	return nil
}

func maskBytes(m domain.Mask) []byte {
	buf := make([]byte, len(m.Cells))
	for i, c := range m.Cells {
		if c {
			buf[i] = 1
		}
	}
	return buf
}

func decodeRawMask(r io.Reader, rows, cols int) (domain.Mask, error) {
	if rows < 1 || cols < 1 {
		return domain.Mask{}, fmt.Errorf("raw mask needs a shape, got %dx%d", rows, cols)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.Mask{}, err
	}
	if len(data) != rows*cols {
		return domain.Mask{}, fmt.Errorf("%w: %d bytes for shape %dx%d",
			domain.ErrShapeMismatch, len(data), rows, cols)
	}
	m := domain.NewMask(rows, cols)
	for i, b := range data {
		m.Cells[i] = b != 0
	}
	return m, nil
}

// readNPYCells reads a bool or byte array as booleans.
func readNPYCells(r *npy.Reader) ([]bool, error) {
	switch r.Header.Descr.Type {
	case "|b1":
		var cells []bool
		if err := r.Read(&cells); err != nil {
			return nil, err
		}
		return cells, nil
	case "|u1", "<u1":
		var raw []uint8
		if err := r.Read(&raw); err != nil {
			return nil, err
		}
		cells := make([]bool, len(raw))
		for i, b := range raw {
			cells[i] = b != 0
		}
		return cells, nil
	case "|i1":
		var raw []int8
		if err := r.Read(&raw); err != nil {
			return nil, err
		}
		cells := make([]bool, len(raw))
		for i, b := range raw {
			cells[i] = b != 0
		}
		return cells, nil
	}
	return nil, fmt.Errorf("%w: mask dtype %s, expected bool", ErrInvalidNPY, r.Header.Descr.Type)
}

func decodeNPYMask(r io.Reader, rows, cols int) (domain.Mask, error) {
	nr, err := npy.NewReader(r)
	if err != nil {
		return domain.Mask{}, fmt.Errorf("%w: %w", ErrInvalidNPY, err)
	}
	shape := nr.Header.Descr.Shape
	switch len(shape) {
	case 1:
		if rows < 1 || cols < 1 {
			return domain.Mask{}, fmt.Errorf("%w: 1D mask needs a shape", ErrInvalidNPY)
		}
		if shape[0] != rows*cols {
			return domain.Mask{}, fmt.Errorf("%w: %d cells for shape %dx%d",
				domain.ErrShapeMismatch, shape[0], rows, cols)
		}
	case 2:
		rows, cols = shape[0], shape[1]
	default:
		return domain.Mask{}, fmt.Errorf("%w: mask shape %v", ErrInvalidNPY, shape)
	}

	cells, err := readNPYCells(nr)
	if err != nil {
		return domain.Mask{}, err
	}
	if len(cells) != rows*cols {
		return domain.Mask{}, fmt.Errorf("%w: %d cells for shape %dx%d", ErrInvalidNPY, len(cells), rows, cols)
	}

	m := domain.NewMask(rows, cols)
	if !nr.Header.Descr.Fortran || len(shape) == 1 {
		copy(m.Cells, cells)
		return m, nil
	}
	// Column-major: idx = j*rows + i.
	for idx, c := range cells {
		m.Set(idx%rows, idx/rows, c)
	}
	return m, nil
}

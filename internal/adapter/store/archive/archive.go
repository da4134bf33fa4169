// Package archive persists extraction results as gob streams compressed with
// lz4 or zstd.
package archive

import (
	"bufio"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"go.ngs.io/agroclim/internal/domain"
)

// ErrUnknownCodec is returned for an unsupported compression codec.
var ErrUnknownCodec = errors.New("unknown archive codec")

// Codec selects the compression of an archive file.
type Codec string

// Supported codecs.
const (
	CodecLZ4  Codec = "lz4"
	CodecZstd Codec = "zstd"
	CodecNone Codec = "none"
)

// ParseCodec validates a codec name.
func ParseCodec(s string) (Codec, error) {
	switch c := Codec(strings.ToLower(strings.TrimSpace(s))); c {
	case CodecLZ4, CodecZstd, CodecNone:
		return c, nil
	case "zst":
		return CodecZstd, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCodec, s)
	}
}

// Ext returns the file extension for the codec, including the dot.
func (c Codec) Ext() string {
	switch c {
	case CodecLZ4:
		return ".lz4"
	case CodecZstd:
		return ".zst"
	default:
		return ""
	}
}

// CodecForPath infers the codec from a file extension.
func CodecForPath(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".lz4":
		return CodecLZ4
	case ".zst", ".zstd":
		return CodecZstd
	default:
		return CodecNone
	}
}

// Kind names the flow that produced an archive.
type Kind string

// Archive kinds.
const (
	KindCombined Kind = "combined"
	KindAmber    Kind = "amber"
	KindForecast Kind = "forecast"
)

// Meta describes an archive.
type Meta struct {
	RunID     uuid.UUID
	Kind      Kind
	Source    string
	CreatedAt time.Time
	Variables []string
	Points    int
}

// record is one point entry of the gob stream.
type record struct {
	Key    string
	Point  domain.GridPoint
	Series domain.Series
}

// Archive is a loaded result with its metadata.
type Archive struct {
	Meta   Meta
	Result domain.ExtractionResult
}

// Write encodes meta followed by one record per point, in point order.
// meta.Points is set from result.
func Write(w io.Writer, codec Codec, meta Meta, result domain.ExtractionResult) error {
	cw, err := compressor(w, codec)
	if err != nil {
		return err
	}

	meta.Points = len(result)
	enc := gob.NewEncoder(cw)
	if err := enc.Encode(meta); err != nil {
		_ = cw.Close()
		return fmt.Errorf("encode metadata: %w", err)
	}
	for _, p := range result.Points() {
		if err := enc.Encode(record{Key: p.Key(), Point: p, Series: result[p]}); err != nil {
			_ = cw.Close()
			return fmt.Errorf("encode %s: %w", p.Key(), err)
		}
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("flush %s stream: %w", codec, err)
	}
	return nil
}

// Read decodes an archive written by Write.
func Read(r io.Reader, codec Codec) (*Archive, error) {
	cr, closeFn, err := decompressor(r, codec)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	dec := gob.NewDecoder(cr)
	var a Archive
	if err := dec.Decode(&a.Meta); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	a.Result = make(domain.ExtractionResult, a.Meta.Points)
	for i := 0; i < a.Meta.Points; i++ {
		var rec record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode record %d of %d: %w", i+1, a.Meta.Points, err)
		}
		a.Result[rec.Point] = rec.Series
	}
	return &a, nil
}

// Save writes an archive to path, inferring the codec from its extension.
// The file is written to a temporary name and renamed into place.
func Save(path string, meta Meta, result domain.ExtractionResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	bw := bufio.NewWriter(tmp)
	err = Write(bw, CodecForPath(path), meta, result)
	if err == nil {
		err = bw.Flush()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write archive %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename archive: %w", err)
	}
	return nil
}

// Load reads an archive from path, inferring the codec from its extension.
func Load(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = f.Close() }()

	a, err := Read(bufio.NewReader(f), CodecForPath(path))
	if err != nil {
		return nil, fmt.Errorf("read archive %s: %w", path, err)
	}
	return a, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func compressor(w io.Writer, codec Codec) (io.WriteCloser, error) {
	switch codec {
	case CodecLZ4:
		return lz4.NewWriter(w), nil
	case CodecZstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("create zstd writer: %w", err)
		}
		return enc, nil
	case CodecNone, "":
		return nopWriteCloser{w}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, codec)
	}
}

func decompressor(r io.Reader, codec Codec) (io.Reader, func(), error) {
	switch codec {
	case CodecLZ4:
		return lz4.NewReader(r), func() {}, nil
	case CodecZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("create zstd reader: %w", err)
		}
		return dec, dec.Close, nil
	case CodecNone, "":
		return r, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownCodec, codec)
	}
}

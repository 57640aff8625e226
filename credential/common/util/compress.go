package util

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
)

// ErrTooLarge is returned by Inflate when the decompressed data exceeds the limit.
var ErrTooLarge = errors.New("decompressed data exceeds limit")

// Format is a compression container format.
type Format int

// Supported compression formats.
const (
	FormatGzip Format = iota
	FormatZlib
	FormatDeflate
)

func (f Format) String() string {
	switch f {
	case FormatGzip:
		return "gzip"
	case FormatZlib:
		return "zlib"
	case FormatDeflate:
		return "deflate"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// Compress compresses data with gzip.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	gz := gzip.NewWriter(&buf)

	_, err := gz.Write(data)
	if err != nil {
		return nil, err
	}

	err = gz.Close()
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// DetectFormat guesses the container format from the leading bytes. Anything
// that is neither gzip nor zlib is assumed to be a raw DEFLATE stream.
func DetectFormat(data []byte) Format {
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		return FormatGzip
	}

	if len(data) >= 2 && data[0]&0x0f == 8 && (uint16(data[0])<<8|uint16(data[1]))%31 == 0 {
		return FormatZlib
	}

	return FormatDeflate
}

// Inflate decompresses gzip, zlib or raw DEFLATE data. At most limit bytes
// are decompressed; longer output fails with ErrTooLarge.
func Inflate(data []byte, limit int) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("failed to inflate: no data")
	}

	if limit < 1 {
		return nil, fmt.Errorf("failed to inflate: limit must be positive, got %d", limit)
	}

	var (
		r   io.ReadCloser
		err error
	)

	format := DetectFormat(data)

	switch format {
	case FormatGzip:
		r, err = gzip.NewReader(bytes.NewReader(data))
	case FormatZlib:
		r, err = zlib.NewReader(bytes.NewReader(data))
	default:
		r = flate.NewReader(bytes.NewReader(data))
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open %s stream: %w", format, err)
	}
	defer r.Close()

	out, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s stream: %w", format, err)
	}

	if len(out) > limit {
		return nil, fmt.Errorf("%s stream: %w (%d bytes)", format, ErrTooLarge, limit)
	}

	return out, nil
}

// DeflateZlib compresses data with zlib.
func DeflateZlib(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	w := zlib.NewWriter(&buf)

	if _, err := w.Write(data); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

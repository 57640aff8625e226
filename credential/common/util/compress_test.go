package util

import (
	"bytes"
	"compress/flate"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompress(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{
			name:  "status list bytes",
			input: []byte{0x00, 0x21, 0x00, 0x80},
		},
		{
			name:  "empty list",
			input: []byte{},
		},
		{
			name:  "large sparse list",
			input: append(make([]byte, 16384), 0x01),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressed, err := Compress(tt.input)
			require.NoError(t, err)
			require.NotEmpty(t, compressed)
			assert.Equal(t, FormatGzip, DetectFormat(compressed))

			out, err := Inflate(compressed, len(tt.input)+1)
			require.NoError(t, err)
			assert.Len(t, out, len(tt.input))
			if len(tt.input) > 0 {
				assert.Equal(t, tt.input, out)
			}
		})
	}
}

func TestDeflateZlib(t *testing.T) {
	input := bytes.Repeat([]byte{0xff, 0x00}, 512)

	compressed, err := DeflateZlib(input)
	require.NoError(t, err)
	assert.Equal(t, FormatZlib, DetectFormat(compressed))
	assert.Less(t, len(compressed), len(input))

	out, err := Inflate(compressed, len(input))
	require.NoError(t, err)
	assert.Equal(t, input, out)
}

func TestInflate(t *testing.T) {
	input := bytes.Repeat([]byte{0x00, 0x21, 0x00, 0x00}, 256)

	gz, err := Compress(input)
	require.NoError(t, err)

	zl, err := DeflateZlib(input)
	require.NoError(t, err)

	var raw bytes.Buffer
	fw, err := flate.NewWriter(&raw, flate.BestCompression)
	require.NoError(t, err)
	_, err = fw.Write(input)
	require.NoError(t, err)
	require.NoError(t, fw.Close())

	tests := []struct {
		name   string
		input  []byte
		format Format
	}{
		{name: "gzip", input: gz, format: FormatGzip},
		{name: "zlib", input: zl, format: FormatZlib},
		{name: "raw deflate", input: raw.Bytes(), format: FormatDeflate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.format, DetectFormat(tt.input))

			out, err := Inflate(tt.input, len(input))
			require.NoError(t, err)
			assert.Equal(t, input, out)

			_, err = Inflate(tt.input, len(input)-1)
			assert.ErrorIs(t, err, ErrTooLarge)
		})
	}

	t.Run("empty input", func(t *testing.T) {
		_, err := Inflate(nil, len(input))
		assert.Error(t, err)
	})

	t.Run("non-positive limit", func(t *testing.T) {
		_, err := Inflate(gz, 0)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrTooLarge)
	})

	t.Run("truncated gzip", func(t *testing.T) {
		_, err := Inflate(gz[:len(gz)/2], len(input))
		assert.Error(t, err)
	})

	t.Run("highly compressible stream is cut at the limit", func(t *testing.T) {
		bomb, err := Compress(make([]byte, 8<<20))
		require.NoError(t, err)
		require.Less(t, len(bomb), 64<<10)

		_, err = Inflate(bomb, 1024)
		assert.ErrorIs(t, err, ErrTooLarge)
	})

	t.Run("format names", func(t *testing.T) {
		assert.Equal(t, "gzip", FormatGzip.String())
		assert.Equal(t, "zlib", FormatZlib.String())
		assert.Equal(t, "deflate", FormatDeflate.String())
	})
}

func BenchmarkInflate(b *testing.B) {
	data := bytes.Repeat([]byte("status list "), 1000)

	compressed, err := Compress(data)
	if err != nil {
		b.Fatalf("Compress() failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Inflate(compressed, len(data)); err != nil {
			b.Fatalf("Inflate() failed: %v", err)
		}
	}
}

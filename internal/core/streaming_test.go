package core

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

func TestSkipBOM(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "script with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("CREATE DATABASE shop;")...),
			expected: "CREATE DATABASE shop;",
		},
		{
			name:     "script without BOM",
			input:    []byte("CREATE DATABASE shop;"),
			expected: "CREATE DATABASE shop;",
		},
		{
			name:     "empty script",
			input:    []byte{},
			expected: "",
		},
		{
			name:     "only BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: "",
		},
		{
			name:     "partial BOM at start",
			input:    []byte{0xEF, 0xBB, 'a', 'b', 'c'},
			expected: string([]byte{0xEF, 0xBB, 'a', 'b', 'c'}),
		},
		{
			name:     "BOM in the middle is kept",
			input:    append([]byte("ab"), 0xEF, 0xBB, 0xBF),
			expected: string(append([]byte("ab"), 0xEF, 0xBB, 0xBF)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := io.ReadAll(skipBOM(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestCountingReader(t *testing.T) {
	input := bytes.Repeat([]byte("INSERT INTO t VALUES (1);\n"), 1000)
	r := &countingReader{reader: bytes.NewReader(input)}

	n, err := io.Copy(io.Discard, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != int64(len(input)) || r.n != int64(len(input)) {
		t.Errorf("counted %d (copied %d), want %d", r.n, n, len(input))
	}
}

const dump = "CREATE DATABASE shop;\nUSE shop;\nCREATE TABLE t (id INT);\n"

func compressWith(t *testing.T, kind Compression, plain string) []byte {
	t.Helper()
	var buf bytes.Buffer
	var w io.WriteCloser
	var err error
	switch kind {
	case CompressionGzip:
		w = gzip.NewWriter(&buf)
	case CompressionXZ:
		w, err = xz.NewWriter(&buf)
	case CompressionZstd:
		w, err = zstd.NewWriter(&buf)
	default:
		t.Fatalf("no writer for %s", kind)
	}
	require.NoError(t, err)
	_, err = io.WriteString(w, plain)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestDecompress(t *testing.T) {
	for _, kind := range []Compression{CompressionGzip, CompressionXZ, CompressionZstd} {
		t.Run(string(kind), func(t *testing.T) {
			r, got, release, err := decompress(bytes.NewReader(compressWith(t, kind, dump)))
			require.NoError(t, err)
			defer release()

			assert.Equal(t, kind, got)
			out, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, dump, string(out))
		})
	}
}

func TestDecompress_PlainPassesThrough(t *testing.T) {
	r, kind, release, err := decompress(bytes.NewReader([]byte(dump)))
	require.NoError(t, err)
	defer release()

	assert.Equal(t, CompressionNone, kind)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, dump, string(out))
}

func TestDetectCompression(t *testing.T) {
	tests := []struct {
		head []byte
		want Compression
	}{
		{[]byte{0x1F, 0x8B, 0x08}, CompressionGzip},
		{[]byte("BZh91AY&SY"), CompressionBzip2},
		{[]byte{0xFD, '7', 'z', 'X', 'Z', 0x00, 0x00}, CompressionXZ},
		{[]byte{0x28, 0xB5, 0x2F, 0xFD, 0x00}, CompressionZstd},
		{[]byte("-- MySQL dump"), CompressionNone},
		{[]byte{0x1F}, CompressionNone},
		{nil, CompressionNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, detectCompression(bufio.NewReader(bytes.NewReader(tt.head))), "%q", tt.head)
	}
}

func TestDecompress_CorruptGzip(t *testing.T) {
	_, _, release, err := decompress(bytes.NewReader([]byte{0x1F, 0x8B, 0x00, 0x00}))
	defer release()
	assert.Error(t, err)
}

package core

// streaming.go holds the readers used while staging an upload:
//
//   - decompress unwraps gzip, bzip2, xz and zstd dumps, detected by their
//     magic bytes rather than the file name
//   - skipBOM drops a UTF-8 byte order mark that Windows editors prepend,
//     which the mysql client rejects as a syntax error on line 1
//   - countingReader tracks staged bytes for logging
//
// None of them buffer the whole dump, so a staged dump of any size costs
// constant memory.

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Compression identifies how an uploaded dump is packed.
type Compression string

const (
	CompressionNone  Compression = "none"
	CompressionGzip  Compression = "gzip"
	CompressionBzip2 Compression = "bzip2"
	CompressionXZ    Compression = "xz"
	CompressionZstd  Compression = "zstd"
)

var magicNumbers = []struct {
	kind  Compression
	magic []byte
}{
	{CompressionGzip, []byte{0x1F, 0x8B}},
	{CompressionBzip2, []byte("BZh")},
	{CompressionXZ, []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}},
	{CompressionZstd, []byte{0x28, 0xB5, 0x2F, 0xFD}},
}

// detectCompression peeks at the head of br without consuming it.
func detectCompression(br *bufio.Reader) Compression {
	head, _ := br.Peek(6)
	for _, m := range magicNumbers {
		if bytes.HasPrefix(head, m.magic) {
			return m.kind
		}
	}
	return CompressionNone
}

// decompress returns a reader over the plain script in r and a func that
// releases the decoder.
func decompress(r io.Reader) (io.Reader, Compression, func(), error) {
	br := bufio.NewReader(r)
	kind := detectCompression(br)
	noop := func() {}

	switch kind {
	case CompressionGzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, kind, noop, fmt.Errorf("open gzip stream: %w", err)
		}
		return zr, kind, func() { zr.Close() }, nil
	case CompressionBzip2:
		return bzip2.NewReader(br), kind, noop, nil
	case CompressionXZ:
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, kind, noop, fmt.Errorf("open xz stream: %w", err)
		}
		return xr, kind, noop, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, kind, noop, fmt.Errorf("open zstd stream: %w", err)
		}
		return dec, kind, dec.Close, nil
	default:
		return br, kind, noop, nil
	}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM returns a reader over r without a leading UTF-8 BOM.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}
	return br
}

// countingReader wraps an io.Reader to track bytes read.
type countingReader struct {
	reader io.Reader
	n      int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.n += int64(n)
	return n, err
}

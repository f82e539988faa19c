package compression

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// NewStreamReader wraps r with a streaming decompressor chosen from the
// stream's magic bytes. Input that is neither gzip nor zstd passes through
// unchanged. The returned reader must be closed by the caller; closing it
// does not close r.
func NewStreamReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)

	magic, err := br.Peek(4)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to peek stream header: %w", err)
	}

	switch detectMagic(magic) {
	case TypeGzip:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gz, nil
	case TypeZstd:
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return dec.IOReadCloser(), nil
	default:
		return io.NopCloser(br), nil
	}
}

// detectMagic inspects magic bytes; streams that are neither gzip nor
// zstd report TypeNone so they pass through untouched.
func detectMagic(magic []byte) Type {
	if len(magic) >= 4 && magic[0] == 0x28 && magic[1] == 0xb5 && magic[2] == 0x2f && magic[3] == 0xfd {
		return TypeZstd
	}
	if len(magic) >= 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		return TypeGzip
	}
	return TypeNone
}

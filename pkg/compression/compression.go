// Package compression provides unified compression/decompression utilities.
package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Type represents the compression algorithm used.
type Type uint8

const (
	// TypeGzip uses gzip compression (slower but widely compatible)
	TypeGzip Type = 0
	// TypeZstd uses zstd compression (faster and better compression ratio)
	TypeZstd Type = 1
	// TypeNone represents no compression
	TypeNone Type = 255
)

// Ext returns the conventional file extension for the type, empty for
// uncompressed output.
func (t Type) Ext() string {
	switch t {
	case TypeGzip:
		return ".gz"
	case TypeZstd:
		return ".zst"
	default:
		return ""
	}
}

// ParseType parses a compression type name from configuration. The empty
// string defaults to gzip.
func ParseType(name string) (Type, error) {
	switch name {
	case "", "gzip":
		return TypeGzip, nil
	case "zstd":
		return TypeZstd, nil
	case "none":
		return TypeNone, nil
	default:
		return TypeNone, fmt.Errorf("unknown compression type: %q", name)
	}
}

// Level represents the compression level.
type Level int

const (
	// LevelFastest prioritizes speed over compression ratio
	LevelFastest Level = 1
	// LevelDefault balances speed and compression ratio
	LevelDefault Level = 3
	// LevelBest prioritizes compression ratio over speed
	LevelBest Level = 9
)

// Compressor provides a unified interface for compression operations.
type Compressor interface {
	// Compress compresses the input data
	Compress(data []byte) ([]byte, error)
	// Decompress decompresses the input data
	Decompress(data []byte) ([]byte, error)
	// Type returns the compression type
	Type() Type
	// Name returns the human-readable name of the compressor
	Name() string
}

// GzipCompressor implements Compressor using gzip.
type GzipCompressor struct {
	level int
}

// NewGzipCompressor creates a new gzip compressor.
func NewGzipCompressor(level Level) *GzipCompressor {
	gzipLevel := gzip.DefaultCompression
	switch level {
	case LevelFastest:
		gzipLevel = gzip.BestSpeed
	case LevelBest:
		gzipLevel = gzip.BestCompression
	default:
		gzipLevel = gzip.DefaultCompression
	}
	return &GzipCompressor{level: gzipLevel}
}

// Compress compresses data using gzip.
func (c *GzipCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer, err := gzip.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to write gzip data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress decompresses gzip data.
func (c *GzipCompressor) Decompress(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

// Type returns TypeGzip.
func (c *GzipCompressor) Type() Type {
	return TypeGzip
}

// Name returns "gzip".
func (c *GzipCompressor) Name() string {
	return "gzip"
}

// ZstdCompressor implements Compressor using zstd.
type ZstdCompressor struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	level   zstd.EncoderLevel
}

// NewZstdCompressor creates a new zstd compressor.
// The compressor is reusable and thread-safe for encoding.
func NewZstdCompressor(level Level) (*ZstdCompressor, error) {
	zstdLevel := zstd.SpeedDefault
	switch level {
	case LevelFastest:
		zstdLevel = zstd.SpeedFastest
	case LevelBest:
		zstdLevel = zstd.SpeedBestCompression
	default:
		zstdLevel = zstd.SpeedDefault
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstdLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &ZstdCompressor{
		encoder: encoder,
		decoder: decoder,
		level:   zstdLevel,
	}, nil
}

// Compress compresses data using zstd.
func (c *ZstdCompressor) Compress(data []byte) ([]byte, error) {
	return c.encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// Decompress decompresses zstd data.
func (c *ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	return c.decoder.DecodeAll(data, nil)
}

// Type returns TypeZstd.
func (c *ZstdCompressor) Type() Type {
	return TypeZstd
}

// Name returns "zstd".
func (c *ZstdCompressor) Name() string {
	return "zstd"
}

// Close releases resources used by the compressor.
func (c *ZstdCompressor) Close() {
	if c.encoder != nil {
		c.encoder.Close()
	}
	if c.decoder != nil {
		c.decoder.Close()
	}
}

// NoOpCompressor is a pass-through compressor that does not compress data.
type NoOpCompressor struct{}

// NewNoOpCompressor creates a new no-op compressor.
func NewNoOpCompressor() *NoOpCompressor {
	return &NoOpCompressor{}
}

// Compress returns the data unchanged.
func (c *NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns the data unchanged.
func (c *NoOpCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}

// Type returns TypeNone.
func (c *NoOpCompressor) Type() Type {
	return TypeNone
}

// Name returns "none".
func (c *NoOpCompressor) Name() string {
	return "none"
}

// New creates a compressor by type and level.
func New(t Type, level Level) (Compressor, error) {
	switch t {
	case TypeZstd:
		return NewZstdCompressor(level)
	case TypeGzip:
		return NewGzipCompressor(level), nil
	case TypeNone:
		return NewNoOpCompressor(), nil
	default:
		return nil, fmt.Errorf("unknown compression type: %d", t)
	}
}

// Closeable is an optional interface for compressors that hold resources.
type Closeable interface {
	Close()
}

// Close closes a compressor if it implements Closeable.
func Close(c Compressor) {
	if closer, ok := c.(Closeable); ok {
		closer.Close()
	}
}

// Package writer provides common JSON and compressed JSON writers for
// analysis output.
package writer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hprof-analysis/pkg/compression"
)

// JSONWriter writes data as JSON.
type JSONWriter[T any] struct {
	// Indent specifies the indentation for pretty printing.
	// Empty string means compact output.
	Indent string
}

// NewJSONWriter creates a new JSON writer with compact output.
func NewJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{Indent: ""}
}

// NewPrettyJSONWriter creates a JSON writer with pretty printing.
func NewPrettyJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{Indent: "  "}
}

// Write writes the data as JSON to the writer.
func (w *JSONWriter[T]) Write(data T, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	if w.Indent != "" {
		encoder.SetIndent("", w.Indent)
	}
	return encoder.Encode(data)
}

// WriteToFile writes the data as JSON to a file.
func (w *JSONWriter[T]) WriteToFile(data T, filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return w.Write(data, file)
}

// CompressedJSONWriter writes data as JSON compressed by a
// compression.Compressor. The caller owns the compressor and closes it
// when done.
type CompressedJSONWriter[T any] struct {
	comp compression.Compressor
}

// NewCompressedJSONWriter creates a writer emitting through comp.
func NewCompressedJSONWriter[T any](comp compression.Compressor) *CompressedJSONWriter[T] {
	return &CompressedJSONWriter[T]{comp: comp}
}

// NewGzipWriter creates a compressed JSON writer using gzip at the
// default level.
func NewGzipWriter[T any]() *CompressedJSONWriter[T] {
	return NewCompressedJSONWriter[T](compression.NewGzipCompressor(compression.LevelDefault))
}

// Write writes the data as compressed JSON to the writer.
func (w *CompressedJSONWriter[T]) Write(data T, writer io.Writer) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode data: %w", err)
	}
	compressed, err := w.comp.Compress(jsonData)
	if err != nil {
		return fmt.Errorf("failed to compress data: %w", err)
	}
	if _, err := writer.Write(compressed); err != nil {
		return fmt.Errorf("failed to write compressed data: %w", err)
	}
	return nil
}

// WriteToFile writes the data as compressed JSON to a file.
func (w *CompressedJSONWriter[T]) WriteToFile(data T, filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return w.Write(data, file)
}

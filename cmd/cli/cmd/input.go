package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/hprof-analysis/pkg/compression"
)

// dumpInput is a local heap dump opened for scanning.
type dumpInput struct {
	reader io.ReadCloser
	file   *os.File
}

func (in *dumpInput) Close() error {
	readerErr := in.reader.Close()
	if err := in.file.Close(); err != nil {
		return err
	}
	return readerErr
}

// openInput opens a local dump file, transparently decompressing gzip or
// zstd input.
func openInput(path string) (*dumpInput, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	reader, err := compression.NewStreamReader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}

	return &dumpInput{reader: reader, file: file}, nil
}

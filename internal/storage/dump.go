package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/hprof-analysis/pkg/compression"
)

// DumpKey returns the storage key a heap dump is fetched from.
func DumpKey(dumpUUID string) string {
	return fmt.Sprintf("dumps/%s.hprof", dumpUUID)
}

// ReportKey returns the storage key a scan report is archived to. ext is
// the compression extension, empty for uncompressed reports.
func ReportKey(dumpUUID, ext string) string {
	return fmt.Sprintf("reports/%s.json%s", dumpUUID, ext)
}

// dumpReader closes the decompression layer and the underlying object
// stream together.
type dumpReader struct {
	io.Reader
	stream io.Closer
	object io.Closer
}

func (r *dumpReader) Close() error {
	streamErr := r.stream.Close()
	if err := r.object.Close(); err != nil {
		return err
	}
	return streamErr
}

// OpenDump opens a heap dump by key and transparently decompresses gzip
// or zstd streams. Plain dumps are read as-is.
func OpenDump(ctx context.Context, s Storage, key string) (io.ReadCloser, error) {
	body, err := s.Download(ctx, key)
	if err != nil {
		return nil, err
	}

	stream, err := compression.NewStreamReader(body)
	if err != nil {
		body.Close()
		return nil, fmt.Errorf("failed to open dump %s: %w", key, err)
	}

	return &dumpReader{Reader: stream, stream: stream, object: body}, nil
}

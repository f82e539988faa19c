package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hprof-analysis/pkg/compression"
)

func TestDumpKeys(t *testing.T) {
	assert.Equal(t, "dumps/abc-123.hprof", DumpKey("abc-123"))
	assert.Equal(t, "reports/abc-123.json.gz", ReportKey("abc-123", ".gz"))
	assert.Equal(t, "reports/abc-123.json.zst", ReportKey("abc-123", ".zst"))
	assert.Equal(t, "reports/abc-123.json", ReportKey("abc-123", ""))
}

func TestOpenDump(t *testing.T) {
	content := []byte("JAVA PROFILE 1.0.2\x00 not a real dump, just bytes")

	t.Run("PlainDump", func(t *testing.T) {
		storage, err := NewLocalStorage(t.TempDir())
		require.NoError(t, err)
		require.NoError(t, storage.Upload(context.Background(), "dumps/plain.hprof", bytes.NewReader(content)))

		r, err := OpenDump(context.Background(), storage, "dumps/plain.hprof")
		require.NoError(t, err)
		defer r.Close()

		data, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, content, data)
	})

	t.Run("GzipDump", func(t *testing.T) {
		compressed, err := compression.NewGzipCompressor(compression.LevelDefault).Compress(content)
		require.NoError(t, err)

		storage, err := NewLocalStorage(t.TempDir())
		require.NoError(t, err)
		require.NoError(t, storage.Upload(context.Background(), "dumps/gz.hprof", bytes.NewReader(compressed)))

		r, err := OpenDump(context.Background(), storage, "dumps/gz.hprof")
		require.NoError(t, err)
		defer r.Close()

		data, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, content, data)
	})

	t.Run("MissingDump", func(t *testing.T) {
		storage, err := NewLocalStorage(t.TempDir())
		require.NoError(t, err)

		_, err = OpenDump(context.Background(), storage, "dumps/missing.hprof")
		assert.Error(t, err)
	})
}

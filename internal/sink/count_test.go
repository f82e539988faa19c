package sink

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hprof-analysis/internal/hprof"
)

func TestRecordCounter_Counts(t *testing.T) {
	c := NewRecordCounter()
	c.RecordCounted(hprof.TagString)
	c.RecordCounted(hprof.TagString)
	c.RecordCounted(hprof.TagLoadClass)

	assert.Equal(t, int64(2), c.Count(hprof.TagString))
	assert.Equal(t, int64(1), c.Count(hprof.TagLoadClass))
	assert.Equal(t, int64(0), c.Count(hprof.TagHeapDump))
	assert.Equal(t, int64(3), c.Total())
}

func TestRecordCounter_TableOrder(t *testing.T) {
	c := NewRecordCounter()
	for i := 0; i < 3; i++ {
		c.RecordCounted(hprof.TagLoadClass)
	}
	c.RecordCounted(hprof.TagString)
	c.RecordCounted(hprof.TagHeapDumpSegment)

	var buf bytes.Buffer
	require.NoError(t, c.WriteTable(&buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "LOAD_CLASS")
	// ties broken by tag value, STRING (0x01) before HEAP_DUMP_SEGMENT (0x1C)
	assert.Contains(t, lines[1], "STRING")
	assert.Contains(t, lines[2], "HEAP_DUMP_SEGMENT")
	assert.Contains(t, lines[3], "total")
}

func TestRecordCounter_ErrorNote(t *testing.T) {
	c := NewRecordCounter()
	c.RecordCounted(hprof.TagString)
	c.DecodeError(&hprof.DecodeError{Kind: hprof.KindUnknownTag, Offset: 40})

	var buf bytes.Buffer
	require.NoError(t, c.WriteTable(&buf))
	assert.Contains(t, buf.String(), "1 recoverable decode errors")
}

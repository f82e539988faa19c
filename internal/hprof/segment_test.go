package hprof

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeSegment(t *testing.T, p *payloadWriter) *HeapSegmentDecoder {
	t.Helper()
	registry := NewClassRegistry()
	resolver := NewObjectGraphResolver(NewSymbolTable(), registry)
	d := NewHeapSegmentDecoder(registry, resolver)
	cursor := NewByteCursor(p.bytes(), 0, p.idSize)
	err := d.DecodeSegment(cursor, func(derr *DecodeError) {
		t.Fatalf("unexpected recoverable error: %v", derr)
	})
	require.NoError(t, err)
	return d
}

func TestHeapSegmentDecoder_RootOperands(t *testing.T) {
	p := newPayloadWriter(8)
	p.u1(uint8(HeapTagRootJavaFrame)).id(0x200).u4(7).u4(3)
	p.u1(uint8(HeapTagRootJNILocal)).id(0x201).u4(7).u4(0)
	p.u1(uint8(HeapTagRootThreadObject)).id(0x202).u4(9).u4(5)
	p.u1(uint8(HeapTagRootNativeStack)).id(0x203).u4(7)
	p.u1(uint8(HeapTagRootUnknown)).id(0x204)

	d := decodeSegment(t, p)
	roots := d.Roots()
	require.Len(t, roots, 5)

	frame := roots[0]
	assert.Equal(t, HeapTagRootJavaFrame, frame.Kind)
	assert.Equal(t, Identifier(0x200), frame.ObjectID)
	assert.Equal(t, uint32(7), frame.ThreadID)
	assert.Equal(t, uint32(3), frame.Frame)

	jni := roots[1]
	assert.Equal(t, uint32(7), jni.ThreadID)
	assert.Equal(t, uint32(0), jni.Frame)

	thread := roots[2]
	assert.Equal(t, uint32(9), thread.ThreadID)
	assert.Equal(t, uint32(5), thread.Frame, "stack trace serial kept")

	native := roots[3]
	assert.Equal(t, uint32(7), native.ThreadID)
	assert.Equal(t, uint32(0), native.Frame)

	unknown := roots[4]
	assert.Equal(t, uint32(0), unknown.ThreadID)
	assert.Equal(t, uint32(0), unknown.Frame)
}

func TestHeapSegmentDecoder_RootCounts(t *testing.T) {
	p := newPayloadWriter(8)
	p.u1(uint8(HeapTagRootJavaFrame)).id(0x200).u4(1).u4(0)
	p.u1(uint8(HeapTagRootJavaFrame)).id(0x201).u4(1).u4(1)
	p.u1(uint8(HeapTagRootStickyClass)).id(0x100)

	d := decodeSegment(t, p)
	counts := d.RootCounts()
	assert.Equal(t, 2, counts[HeapTagRootJavaFrame])
	assert.Equal(t, 1, counts[HeapTagRootStickyClass])
}

func TestHeapSegmentDecoder_UnknownSubRecordFatal(t *testing.T) {
	p := newPayloadWriter(8)
	p.u1(0x7F)

	registry := NewClassRegistry()
	resolver := NewObjectGraphResolver(NewSymbolTable(), registry)
	d := NewHeapSegmentDecoder(registry, resolver)
	err := d.DecodeSegment(NewByteCursor(p.bytes(), 0, 8), func(*DecodeError) {})
	require.Error(t, err)
}

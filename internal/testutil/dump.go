// Package testutil builds synthetic heap dumps for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
)

// PayloadBuilder assembles big-endian record payloads.
type PayloadBuilder struct {
	buf    bytes.Buffer
	idSize int
}

// NewPayloadBuilder creates a payload builder for the given identifier width.
func NewPayloadBuilder(idSize int) *PayloadBuilder {
	return &PayloadBuilder{idSize: idSize}
}

// U1 appends one byte.
func (p *PayloadBuilder) U1(v uint8) *PayloadBuilder {
	p.buf.WriteByte(v)
	return p
}

// U2 appends a big-endian uint16.
func (p *PayloadBuilder) U2(v uint16) *PayloadBuilder {
	binary.Write(&p.buf, binary.BigEndian, v)
	return p
}

// U4 appends a big-endian uint32.
func (p *PayloadBuilder) U4(v uint32) *PayloadBuilder {
	binary.Write(&p.buf, binary.BigEndian, v)
	return p
}

// U8 appends a big-endian uint64.
func (p *PayloadBuilder) U8(v uint64) *PayloadBuilder {
	binary.Write(&p.buf, binary.BigEndian, v)
	return p
}

// ID appends an identifier at the builder's width.
func (p *PayloadBuilder) ID(v uint64) *PayloadBuilder {
	if p.idSize == 4 {
		return p.U4(uint32(v))
	}
	return p.U8(v)
}

// Raw appends raw bytes.
func (p *PayloadBuilder) Raw(b []byte) *PayloadBuilder {
	p.buf.Write(b)
	return p
}

// Str appends a string without terminator.
func (p *PayloadBuilder) Str(s string) *PayloadBuilder {
	p.buf.WriteString(s)
	return p
}

// Bytes returns the assembled payload.
func (p *PayloadBuilder) Bytes() []byte {
	return p.buf.Bytes()
}

// DumpBuilder assembles a synthetic HPROF 1.0.2 stream.
type DumpBuilder struct {
	buf    bytes.Buffer
	idSize int
}

// NewDumpBuilder creates a builder and writes the file header.
func NewDumpBuilder(idSize int) *DumpBuilder {
	b := &DumpBuilder{idSize: idSize}
	b.buf.WriteString("JAVA PROFILE 1.0.2")
	b.buf.WriteByte(0)
	binary.Write(&b.buf, binary.BigEndian, uint32(idSize))
	binary.Write(&b.buf, binary.BigEndian, uint64(0)) // timestamp
	return b
}

// IDSize returns the identifier width of the dump.
func (b *DumpBuilder) IDSize() int {
	return b.idSize
}

// Payload returns a payload builder at the dump's identifier width.
func (b *DumpBuilder) Payload() *PayloadBuilder {
	return NewPayloadBuilder(b.idSize)
}

// Record appends a framed top-level record.
func (b *DumpBuilder) Record(tag uint8, payload []byte) *DumpBuilder {
	b.buf.WriteByte(tag)
	binary.Write(&b.buf, binary.BigEndian, uint32(0)) // time delta
	binary.Write(&b.buf, binary.BigEndian, uint32(len(payload)))
	b.buf.Write(payload)
	return b
}

// UTF8 appends a STRING record binding id to s.
func (b *DumpBuilder) UTF8(id uint64, s string) *DumpBuilder {
	return b.Record(0x01, b.Payload().ID(id).Str(s).Bytes())
}

// LoadClass appends a LOAD_CLASS record.
func (b *DumpBuilder) LoadClass(serial uint32, classID, nameID uint64) *DumpBuilder {
	return b.Record(0x02, b.Payload().U4(serial).ID(classID).U4(0).ID(nameID).Bytes())
}

// HeapDumpSegment appends a HEAP_DUMP_SEGMENT record with the given
// sub-record bytes.
func (b *DumpBuilder) HeapDumpSegment(payload []byte) *DumpBuilder {
	return b.Record(0x1C, payload)
}

// HeapDumpEnd appends a HEAP_DUMP_END record.
func (b *DumpBuilder) HeapDumpEnd() *DumpBuilder {
	return b.Record(0x2C, nil)
}

// Bytes returns the assembled dump.
func (b *DumpBuilder) Bytes() []byte {
	return b.buf.Bytes()
}

// SampleDump builds a dump holding one class with a single int field and
// one instance of it. It resolves to exactly one object.
func SampleDump(idSize int) []byte {
	b := NewDumpBuilder(idSize)
	b.UTF8(2, "com/example/Foo")
	b.UTF8(3, "count")
	b.LoadClass(1, 0x100, 2)

	seg := b.Payload()
	// CLASS_DUMP for com.example.Foo with one int field
	seg.U1(0x20).
		ID(0x100).U4(1).ID(0).ID(0).
		ID(0).ID(0).ID(0).ID(0).
		U4(4).
		U2(0). // constant pool
		U2(0). // statics
		U2(1).ID(3).U1(10)
	// INSTANCE_DUMP with count=42
	seg.U1(0x21).
		ID(0x200).U4(1).ID(0x100).
		U4(4).Raw([]byte{0, 0, 0, 42})
	b.HeapDumpSegment(seg.Bytes())
	b.HeapDumpEnd()

	return b.Bytes()
}

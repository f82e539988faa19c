package hprof

import (
	"bytes"
	"encoding/binary"
)

// payloadWriter builds record payloads for tests.
type payloadWriter struct {
	buf    bytes.Buffer
	idSize int
}

func newPayloadWriter(idSize int) *payloadWriter {
	return &payloadWriter{idSize: idSize}
}

func (w *payloadWriter) u1(v uint8) *payloadWriter {
	w.buf.WriteByte(v)
	return w
}

func (w *payloadWriter) u2(v uint16) *payloadWriter {
	binary.Write(&w.buf, binary.BigEndian, v)
	return w
}

func (w *payloadWriter) u4(v uint32) *payloadWriter {
	binary.Write(&w.buf, binary.BigEndian, v)
	return w
}

func (w *payloadWriter) u8(v uint64) *payloadWriter {
	binary.Write(&w.buf, binary.BigEndian, v)
	return w
}

func (w *payloadWriter) id(v uint64) *payloadWriter {
	if w.idSize == 4 {
		return w.u4(uint32(v))
	}
	return w.u8(v)
}

func (w *payloadWriter) raw(b []byte) *payloadWriter {
	w.buf.Write(b)
	return w
}

func (w *payloadWriter) str(s string) *payloadWriter {
	w.buf.WriteString(s)
	return w
}

func (w *payloadWriter) bytes() []byte { return w.buf.Bytes() }

// dumpWriter builds complete synthetic dump files.
type dumpWriter struct {
	buf    bytes.Buffer
	idSize int
}

func newDumpWriter(idSize int) *dumpWriter {
	w := &dumpWriter{idSize: idSize}
	w.buf.WriteString("JAVA PROFILE 1.0.2")
	w.buf.WriteByte(0)
	binary.Write(&w.buf, binary.BigEndian, uint32(idSize))
	binary.Write(&w.buf, binary.BigEndian, uint64(1700000000000))
	return w
}

func (w *dumpWriter) record(tag RecordTag, payload []byte) *dumpWriter {
	w.buf.WriteByte(byte(tag))
	binary.Write(&w.buf, binary.BigEndian, uint32(0)) // time delta
	binary.Write(&w.buf, binary.BigEndian, uint32(len(payload)))
	w.buf.Write(payload)
	return w
}

func (w *dumpWriter) payload() *payloadWriter { return newPayloadWriter(w.idSize) }

func (w *dumpWriter) bytes() []byte { return w.buf.Bytes() }

// utf8Record frames a STRING record binding id to s.
func (w *dumpWriter) utf8Record(id uint64, s string) *dumpWriter {
	return w.record(TagString, w.payload().id(id).str(s).bytes())
}

// loadClassRecord frames a LOAD_CLASS record.
func (w *dumpWriter) loadClassRecord(serial uint32, classID, nameID uint64) *dumpWriter {
	p := w.payload().u4(serial).id(classID).u4(0).id(nameID)
	return w.record(TagLoadClass, p.bytes())
}

// classDumpSub appends a minimal CLASS_DUMP sub-record to p: no constant
// pool, no statics, the given instance fields.
func classDumpSub(p *payloadWriter, classID, superID uint64, instanceSize uint32, fields ...FieldDecl) *payloadWriter {
	p.u1(uint8(HeapTagClassDump)).
		id(classID).
		u4(0). // stack trace serial
		id(superID).
		id(0). // loader
		id(0). // signers
		id(0). // protection domain
		id(0). // reserved
		id(0). // reserved
		u4(instanceSize).
		u2(0). // constant pool
		u2(0)  // static fields
	p.u2(uint16(len(fields)))
	for _, f := range fields {
		p.id(uint64(f.NameID)).u1(uint8(f.Type))
	}
	return p
}

// instanceDumpSub appends an INSTANCE_DUMP sub-record to p.
func instanceDumpSub(p *payloadWriter, objID, classID uint64, blob []byte) *payloadWriter {
	return p.u1(uint8(HeapTagInstanceDump)).
		id(objID).
		u4(0).
		id(classID).
		u4(uint32(len(blob))).
		raw(blob)
}

// objectArrayDumpSub appends an OBJECT_ARRAY_DUMP sub-record to p.
func objectArrayDumpSub(p *payloadWriter, objID, arrayClassID uint64, elements ...uint64) *payloadWriter {
	p.u1(uint8(HeapTagObjectArrayDump)).
		id(objID).
		u4(0).
		u4(uint32(len(elements))).
		id(arrayClassID)
	for _, e := range elements {
		p.id(e)
	}
	return p
}

// intArrayDumpSub appends a PRIMITIVE_ARRAY_DUMP sub-record of int elements
// to p.
func intArrayDumpSub(p *payloadWriter, objID uint64, elements ...uint32) *payloadWriter {
	p.u1(uint8(HeapTagPrimitiveArrayDump)).
		id(objID).
		u4(0).
		u4(uint32(len(elements))).
		u1(uint8(TypeInt))
	for _, e := range elements {
		p.u4(e)
	}
	return p
}

// captureSink records every event for assertions.
type captureSink struct {
	tags    []RecordTag
	objects []*ResolvedObject
	errors  []*DecodeError
}

func (s *captureSink) RecordCounted(tag RecordTag)        { s.tags = append(s.tags, tag) }
func (s *captureSink) ObjectResolved(obj *ResolvedObject) { s.objects = append(s.objects, obj) }
func (s *captureSink) DecodeError(err *DecodeError)       { s.errors = append(s.errors, err) }

func (s *captureSink) errorKinds() []ErrorKind {
	kinds := make([]ErrorKind, 0, len(s.errors))
	for _, e := range s.errors {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

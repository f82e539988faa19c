package hprof

import "time"

// RecordTag identifies a top-level HPROF record.
type RecordTag uint8

const (
	TagString          RecordTag = 0x01
	TagLoadClass       RecordTag = 0x02
	TagUnloadClass     RecordTag = 0x03
	TagStackFrame      RecordTag = 0x04
	TagStackTrace      RecordTag = 0x05
	TagAllocSites      RecordTag = 0x06
	TagHeapSummary     RecordTag = 0x07
	TagStartThread     RecordTag = 0x0A
	TagEndThread       RecordTag = 0x0B
	TagHeapDump        RecordTag = 0x0C
	TagCPUSamples      RecordTag = 0x0D
	TagControlSettings RecordTag = 0x0E
	TagHeapDumpSegment RecordTag = 0x1C
	TagHeapDumpEnd     RecordTag = 0x2C
)

// String returns the conventional name for the tag, or its hex form for
// tags outside the known set.
func (t RecordTag) String() string {
	switch t {
	case TagString:
		return "STRING"
	case TagLoadClass:
		return "LOAD_CLASS"
	case TagUnloadClass:
		return "UNLOAD_CLASS"
	case TagStackFrame:
		return "STACK_FRAME"
	case TagStackTrace:
		return "STACK_TRACE"
	case TagAllocSites:
		return "ALLOC_SITES"
	case TagHeapSummary:
		return "HEAP_SUMMARY"
	case TagStartThread:
		return "START_THREAD"
	case TagEndThread:
		return "END_THREAD"
	case TagHeapDump:
		return "HEAP_DUMP"
	case TagCPUSamples:
		return "CPU_SAMPLES"
	case TagControlSettings:
		return "CONTROL_SETTINGS"
	case TagHeapDumpSegment:
		return "HEAP_DUMP_SEGMENT"
	case TagHeapDumpEnd:
		return "HEAP_DUMP_END"
	default:
		return hexTagName(uint8(t))
	}
}

// Known reports whether the tag is part of the HPROF 1.0.2 record set.
func (t RecordTag) Known() bool {
	switch t {
	case TagString, TagLoadClass, TagUnloadClass, TagStackFrame, TagStackTrace,
		TagAllocSites, TagHeapSummary, TagStartThread, TagEndThread, TagHeapDump,
		TagCPUSamples, TagControlSettings, TagHeapDumpSegment, TagHeapDumpEnd:
		return true
	}
	return false
}

// HeapDumpTag identifies a sub-record within a heap dump segment.
type HeapDumpTag uint8

const (
	HeapTagRootUnknown        HeapDumpTag = 0xFF
	HeapTagRootJNIGlobal      HeapDumpTag = 0x01
	HeapTagRootJNILocal       HeapDumpTag = 0x02
	HeapTagRootJavaFrame      HeapDumpTag = 0x03
	HeapTagRootNativeStack    HeapDumpTag = 0x04
	HeapTagRootStickyClass    HeapDumpTag = 0x05
	HeapTagRootThreadBlock    HeapDumpTag = 0x06
	HeapTagRootMonitorUsed    HeapDumpTag = 0x07
	HeapTagRootThreadObject   HeapDumpTag = 0x08
	HeapTagClassDump          HeapDumpTag = 0x20
	HeapTagInstanceDump       HeapDumpTag = 0x21
	HeapTagObjectArrayDump    HeapDumpTag = 0x22
	HeapTagPrimitiveArrayDump HeapDumpTag = 0x23
)

// BasicType represents a Java field value type on the wire.
type BasicType uint8

const (
	TypeObject  BasicType = 2
	TypeBoolean BasicType = 4
	TypeChar    BasicType = 5
	TypeFloat   BasicType = 6
	TypeDouble  BasicType = 7
	TypeByte    BasicType = 8
	TypeShort   BasicType = 9
	TypeInt     BasicType = 10
	TypeLong    BasicType = 11
)

// BasicTypeSize returns the wire size in bytes for a basic type. Object
// references take the identifier width declared in the file header.
func BasicTypeSize(t BasicType, idSize int) int {
	switch t {
	case TypeObject:
		return idSize
	case TypeBoolean, TypeByte:
		return 1
	case TypeChar, TypeShort:
		return 2
	case TypeFloat, TypeInt:
		return 4
	case TypeDouble, TypeLong:
		return 8
	default:
		return 0
	}
}

// String returns the Java name of the type.
func (t BasicType) String() string {
	switch t {
	case TypeObject:
		return "object"
	case TypeBoolean:
		return "boolean"
	case TypeChar:
		return "char"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypeByte:
		return "byte"
	case TypeShort:
		return "short"
	case TypeInt:
		return "int"
	case TypeLong:
		return "long"
	default:
		return hexTagName(uint8(t))
	}
}

// Identifier is an object, class, or symbol id from the dump. The zero
// value is the canonical null reference.
type Identifier uint64

// IsNull reports whether the identifier is the null reference.
func (id Identifier) IsNull() bool { return id == 0 }

// Header is the HPROF file header.
type Header struct {
	Format    string    // e.g. "JAVA PROFILE 1.0.2"
	IDSize    int       // identifier width, 4 or 8
	Timestamp time.Time // dump creation time
}

// FieldDecl declares one instance field of a class, in declaration order.
type FieldDecl struct {
	NameID Identifier
	Type   BasicType
}

// StaticField is a static field with its value, decoded at class-dump time.
type StaticField struct {
	NameID Identifier
	Type   BasicType
	Value  Value
}

// ClassDef is the registered definition of a class.
type ClassDef struct {
	ClassID      Identifier
	SuperClassID Identifier
	LoaderID     Identifier
	InstanceSize int
	StaticFields []StaticField
	Fields       []FieldDecl // declared fields only, not the superclass chain
}

// GCRoot records one GC root reference from a heap dump segment. Frame is
// the stack frame number for JNI local and Java frame roots, and the
// stack trace serial for thread object roots.
type GCRoot struct {
	Kind     HeapDumpTag
	ObjectID Identifier
	ThreadID uint32
	Frame    uint32
}

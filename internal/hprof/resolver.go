package hprof

import (
	"fmt"
	"math"

	"github.com/hprof-analysis/pkg/collections"
)

// Value is one decoded field value. Kind selects which of the payload
// fields is meaningful; references carry the raw identifier, with zero as
// the canonical null.
type Value struct {
	Kind   BasicType
	Bool   bool
	Char   uint16
	Long   int64 // byte, short, int, long
	Double float64
	Float  float32
	Ref    Identifier
}

// String renders the value the way the text dumper prints it.
func (v Value) String() string {
	switch v.Kind {
	case TypeObject:
		if v.Ref.IsNull() {
			return "null"
		}
		return fmt.Sprintf("0x%x", uint64(v.Ref))
	case TypeBoolean:
		return fmt.Sprintf("%t", v.Bool)
	case TypeChar:
		return fmt.Sprintf("%q", rune(v.Char))
	case TypeFloat:
		return fmt.Sprintf("%v", v.Float)
	case TypeDouble:
		return fmt.Sprintf("%v", v.Double)
	default:
		return fmt.Sprintf("%d", v.Long)
	}
}

// readValue decodes one field value of type t from the cursor.
func readValue(c *ByteCursor, t BasicType) (Value, error) {
	v := Value{Kind: t}
	switch t {
	case TypeObject:
		ref, err := c.ID()
		if err != nil {
			return v, err
		}
		v.Ref = ref
	case TypeBoolean:
		b, err := c.U8()
		if err != nil {
			return v, err
		}
		v.Bool = b != 0
	case TypeByte:
		b, err := c.U8()
		if err != nil {
			return v, err
		}
		v.Long = int64(int8(b))
	case TypeChar:
		u, err := c.U16()
		if err != nil {
			return v, err
		}
		v.Char = u
	case TypeShort:
		u, err := c.U16()
		if err != nil {
			return v, err
		}
		v.Long = int64(int16(u))
	case TypeInt:
		u, err := c.U32()
		if err != nil {
			return v, err
		}
		v.Long = int64(int32(u))
	case TypeFloat:
		u, err := c.U32()
		if err != nil {
			return v, err
		}
		v.Float = math.Float32frombits(u)
	case TypeDouble:
		u, err := c.U64()
		if err != nil {
			return v, err
		}
		v.Double = math.Float64frombits(u)
	case TypeLong:
		u, err := c.U64()
		if err != nil {
			return v, err
		}
		v.Long = int64(u)
	default:
		return v, newDecodeError(KindTruncatedInput, c.Offset(),
			"unknown basic type %d", uint8(t))
	}
	return v, nil
}

// ResolvedField is one decoded instance field.
type ResolvedField struct {
	Name     string
	Type     BasicType
	Value    Value
	RefClass string // class of the referenced object, when known
}

// ResolvedElement is one decoded array element.
type ResolvedElement struct {
	Value    Value
	RefClass string // object arrays: class of the element, when known
}

// ObjectKind discriminates the variants of a resolved object.
type ObjectKind uint8

const (
	ObjectKindInstance ObjectKind = iota
	ObjectKindObjectArray
	ObjectKindPrimitiveArray
)

// String returns the kind name.
func (k ObjectKind) String() string {
	switch k {
	case ObjectKindObjectArray:
		return "object_array"
	case ObjectKindPrimitiveArray:
		return "primitive_array"
	default:
		return "instance"
	}
}

// ResolvedObject is a fully decoded instance or array. Kind selects the
// variant: instances carry Fields in derived-then-super order, arrays
// carry ElementType plus Elements in wire order. Primitive arrays have no
// class object, so their ClassID is zero and ClassName is the rendered
// element type.
type ResolvedObject struct {
	Kind        ObjectKind
	ObjectID    Identifier
	ClassID     Identifier
	ClassName   string
	Fields      []ResolvedField
	ElementType BasicType
	Elements    []ResolvedElement
}

// ResolvedClass is a registered class with its static field values bound
// to symbol names.
type ResolvedClass struct {
	ClassID Identifier
	Name    string
	Statics []ResolvedField
}

// instanceBlobPool recycles the raw field blobs buffered between pass 1
// and group resolution.
var instanceBlobPool = collections.NewSlicePool[byte](4096)

// pendingObject is a pass-1 buffered instance or array dump. Instance
// field blobs are kept verbatim; decoding waits until the segment group
// closes and all class dumps of the group are registered. Array elements
// are self-describing and already decoded, but their emission still waits
// for the group boundary so object-array elements can be typed.
type pendingObject struct {
	kind     ObjectKind
	objectID Identifier
	classID  Identifier
	blob     *[]byte
	offset   int64
	elemType BasicType
	elements []Value
}

// ObjectGraphResolver buffers instances and arrays during pass 1 and
// emits them as resolved objects when a segment group closes. Buffered
// objects live in a flat arena addressed by integer handles; a bitset
// over handles makes resolution idempotent.
type ObjectGraphResolver struct {
	symbols  *SymbolTable
	registry *ClassRegistry
	idSize   int

	arena    []pendingObject
	resolved *collections.Bitset

	// reference typing for annotation of object-valued fields
	instanceClass map[Identifier]Identifier
	arrayClass    map[Identifier]Identifier
	primArrayType map[Identifier]BasicType
}

// NewObjectGraphResolver creates a resolver over the given tables.
func NewObjectGraphResolver(symbols *SymbolTable, registry *ClassRegistry) *ObjectGraphResolver {
	return &ObjectGraphResolver{
		symbols:       symbols,
		registry:      registry,
		idSize:        8,
		resolved:      collections.NewBitset(1024),
		instanceClass: make(map[Identifier]Identifier),
		arrayClass:    make(map[Identifier]Identifier),
		primArrayType: make(map[Identifier]BasicType),
	}
}

// AddInstance buffers an instance dump and returns its arena handle. The
// blob must come from instanceBlobPool; the resolver returns it to the
// pool once the instance is drained.
func (r *ObjectGraphResolver) AddInstance(objectID, classID Identifier, blob *[]byte, offset int64) int {
	handle := len(r.arena)
	r.arena = append(r.arena, pendingObject{
		kind:     ObjectKindInstance,
		objectID: objectID,
		classID:  classID,
		blob:     blob,
		offset:   offset,
	})
	r.instanceClass[objectID] = classID
	return handle
}

// AddObjectArray buffers an object array and returns its arena handle.
// Elements are the eagerly decoded element identifiers in wire order.
func (r *ObjectGraphResolver) AddObjectArray(objectID, arrayClassID Identifier, elements []Value) int {
	handle := len(r.arena)
	r.arena = append(r.arena, pendingObject{
		kind:     ObjectKindObjectArray,
		objectID: objectID,
		classID:  arrayClassID,
		elemType: TypeObject,
		elements: elements,
	})
	r.arrayClass[objectID] = arrayClassID
	return handle
}

// AddPrimitiveArray buffers a primitive array and returns its arena
// handle. Elements are the eagerly decoded element values in wire order.
func (r *ObjectGraphResolver) AddPrimitiveArray(objectID Identifier, elem BasicType, elements []Value) int {
	handle := len(r.arena)
	r.arena = append(r.arena, pendingObject{
		kind:     ObjectKindPrimitiveArray,
		objectID: objectID,
		elemType: elem,
		elements: elements,
	})
	r.primArrayType[objectID] = elem
	return handle
}

// PendingCount returns the number of buffered, not yet resolved objects.
func (r *ObjectGraphResolver) PendingCount() int {
	return len(r.arena) - r.resolved.Count()
}

// ResolveGroup drains the arena: every buffered instance is decoded
// against its class layout, every buffered array gets its elements typed,
// and each is emitted. Handles already drained are skipped, so calling
// ResolveGroup twice is a no-op for the first group's objects.
// Recoverable failures go to report and the object is dropped.
func (r *ObjectGraphResolver) ResolveGroup(emit func(*ResolvedObject), report func(*DecodeError)) {
	for handle := range r.arena {
		if r.resolved.Test(handle) {
			continue
		}
		r.resolved.Set(handle)

		p := &r.arena[handle]
		var obj *ResolvedObject
		var derr *DecodeError
		switch p.kind {
		case ObjectKindObjectArray:
			obj = r.resolveObjectArray(p)
		case ObjectKindPrimitiveArray:
			obj = r.resolvePrimitiveArray(p)
		default:
			obj, derr = r.resolveInstance(p)
			// the blob is not needed again once decoded
			instanceBlobPool.Put(p.blob)
			p.blob = nil
		}
		p.elements = nil
		if derr != nil {
			report(derr)
			continue
		}
		emit(obj)
	}
}

// resolveInstance decodes a single buffered instance.
func (r *ObjectGraphResolver) resolveInstance(p *pendingObject) (*ResolvedObject, *DecodeError) {
	layout, derr := r.registry.FieldLayout(p.classID)
	if derr != nil {
		return nil, derr
	}

	cursor := NewByteCursor(*p.blob, p.offset, r.idSize)
	fields := make([]ResolvedField, 0, len(layout))
	for _, decl := range layout {
		val, err := readValue(cursor, decl.Type)
		if err != nil {
			return nil, newDecodeError(KindFieldLayoutMismatch, cursor.Offset(),
				"object 0x%x (%s): blob too short for field %q",
				uint64(p.objectID), r.symbols.ClassName(p.classID),
				r.symbols.FieldName(decl.NameID))
		}
		f := ResolvedField{
			Name:  r.symbols.FieldName(decl.NameID),
			Type:  decl.Type,
			Value: val,
		}
		if decl.Type == TypeObject && !val.Ref.IsNull() {
			f.RefClass = r.referenceClassName(val.Ref)
		}
		fields = append(fields, f)
	}
	// trailing bytes are VM alignment padding, tolerated

	return &ResolvedObject{
		Kind:      ObjectKindInstance,
		ObjectID:  p.objectID,
		ClassID:   p.classID,
		ClassName: r.symbols.ClassName(p.classID),
		Fields:    fields,
	}, nil
}

// resolveObjectArray types the buffered element identifiers. Elements are
// annotated with the class of their target when it appeared in the dump;
// the null identifier stays unannotated.
func (r *ObjectGraphResolver) resolveObjectArray(p *pendingObject) *ResolvedObject {
	elements := make([]ResolvedElement, 0, len(p.elements))
	for _, val := range p.elements {
		e := ResolvedElement{Value: val}
		if !val.Ref.IsNull() {
			e.RefClass = r.referenceClassName(val.Ref)
		}
		elements = append(elements, e)
	}
	return &ResolvedObject{
		Kind:        ObjectKindObjectArray,
		ObjectID:    p.objectID,
		ClassID:     p.classID,
		ClassName:   r.symbols.ClassName(p.classID),
		ElementType: TypeObject,
		Elements:    elements,
	}
}

// resolvePrimitiveArray wraps the buffered element values.
func (r *ObjectGraphResolver) resolvePrimitiveArray(p *pendingObject) *ResolvedObject {
	elements := make([]ResolvedElement, 0, len(p.elements))
	for _, val := range p.elements {
		elements = append(elements, ResolvedElement{Value: val})
	}
	return &ResolvedObject{
		Kind:        ObjectKindPrimitiveArray,
		ObjectID:    p.objectID,
		ClassName:   PrimitiveArrayTypeName(p.elemType),
		ElementType: p.elemType,
		Elements:    elements,
	}
}

// ResolveClasses binds every registered class definition to its symbol
// names, in registration order. Static field values were decoded at
// class-dump time; object-valued statics get the same reference
// annotation as instance fields.
func (r *ObjectGraphResolver) ResolveClasses() []ResolvedClass {
	classes := make([]ResolvedClass, 0, r.registry.Count())
	r.registry.Classes(func(def *ClassDef) bool {
		rc := ResolvedClass{
			ClassID: def.ClassID,
			Name:    r.symbols.ClassName(def.ClassID),
			Statics: make([]ResolvedField, 0, len(def.StaticFields)),
		}
		for _, sf := range def.StaticFields {
			f := ResolvedField{
				Name:  r.symbols.FieldName(sf.NameID),
				Type:  sf.Type,
				Value: sf.Value,
			}
			if sf.Type == TypeObject && !sf.Value.Ref.IsNull() {
				f.RefClass = r.referenceClassName(sf.Value.Ref)
			}
			rc.Statics = append(rc.Statics, f)
		}
		classes = append(classes, rc)
		return true
	})
	return classes
}

// referenceClassName names the class of a referenced object when the
// target appeared in the dump.
func (r *ObjectGraphResolver) referenceClassName(ref Identifier) string {
	if classID, ok := r.instanceClass[ref]; ok {
		return r.symbols.ClassName(classID)
	}
	if classID, ok := r.arrayClass[ref]; ok {
		return r.symbols.ClassName(classID)
	}
	if elem, ok := r.primArrayType[ref]; ok {
		return PrimitiveArrayTypeName(elem)
	}
	if _, ok := r.registry.Get(ref); ok {
		// reference to a class object
		return "java.lang.Class"
	}
	return ""
}

// SetIDSize sets the identifier width (4 or 8) from the file header. The
// width is uniform across the whole dump.
func (r *ObjectGraphResolver) SetIDSize(size int) {
	r.idSize = size
}

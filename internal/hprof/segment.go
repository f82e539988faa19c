package hprof

// HeapSegmentDecoder walks the sub-records of HEAP_DUMP and
// HEAP_DUMP_SEGMENT payloads. Class dumps are registered immediately (with
// static field values decoded inline); instance dumps and array dumps are
// buffered in the resolver, array elements decoded eagerly since they are
// self-describing; GC roots are collected.
//
// Sub-records carry no length field, so an unknown sub-record tag is fatal
// for the enclosing record: there is no way to resynchronize.
//
// Segment boundaries carry no state: the symbol table, registry, and
// resolver live across every segment of the group until HEAP_DUMP_END.
type HeapSegmentDecoder struct {
	registry *ClassRegistry
	resolver *ObjectGraphResolver

	roots      []GCRoot
	rootCounts map[HeapDumpTag]int
}

// NewHeapSegmentDecoder creates a decoder feeding the given registry and
// resolver.
func NewHeapSegmentDecoder(registry *ClassRegistry, resolver *ObjectGraphResolver) *HeapSegmentDecoder {
	return &HeapSegmentDecoder{
		registry:   registry,
		resolver:   resolver,
		rootCounts: make(map[HeapDumpTag]int),
	}
}

// Roots returns the GC roots collected so far.
func (d *HeapSegmentDecoder) Roots() []GCRoot { return d.roots }

// RootCounts returns per-kind GC root counts.
func (d *HeapSegmentDecoder) RootCounts() map[HeapDumpTag]int { return d.rootCounts }

// DecodeSegment consumes one segment payload to exhaustion. Recoverable
// failures go to report; the returned error is fatal.
func (d *HeapSegmentDecoder) DecodeSegment(payload *ByteCursor, report func(*DecodeError)) error {
	for payload.Remaining() > 0 {
		tagByte, err := payload.U8()
		if err != nil {
			return err
		}
		// some VMs pad segments with zero bytes
		if tagByte == 0x00 {
			continue
		}
		if err := d.decodeSubRecord(HeapDumpTag(tagByte), payload, report); err != nil {
			return err
		}
	}
	return payload.Close()
}

func (d *HeapSegmentDecoder) decodeSubRecord(tag HeapDumpTag, c *ByteCursor, report func(*DecodeError)) error {
	switch tag {
	case HeapTagRootUnknown, HeapTagRootStickyClass, HeapTagRootMonitorUsed:
		return d.decodeRoot(tag, c, 0)
	case HeapTagRootJNIGlobal:
		// object id + JNI global ref id
		objID, err := c.ID()
		if err != nil {
			return err
		}
		if _, err := c.ID(); err != nil {
			return err
		}
		d.addRoot(GCRoot{Kind: tag, ObjectID: objID})
		return nil
	case HeapTagRootNativeStack, HeapTagRootThreadBlock:
		return d.decodeRoot(tag, c, 1)
	case HeapTagRootJNILocal, HeapTagRootJavaFrame, HeapTagRootThreadObject:
		return d.decodeRoot(tag, c, 2)
	case HeapTagClassDump:
		return d.decodeClassDump(c, report)
	case HeapTagInstanceDump:
		return d.decodeInstanceDump(c)
	case HeapTagObjectArrayDump:
		return d.decodeObjectArrayDump(c)
	case HeapTagPrimitiveArrayDump:
		return d.decodePrimitiveArrayDump(c)
	default:
		return newDecodeError(KindTruncatedInput, c.Offset()-1,
			"unknown heap dump sub-record tag 0x%02X, cannot resynchronize", uint8(tag))
	}
}

// decodeRoot handles the root kinds whose operands are an object id
// followed by u4Count uint32 values: the thread serial, then the frame
// number (or stack trace serial for thread object roots).
func (d *HeapSegmentDecoder) decodeRoot(tag HeapDumpTag, c *ByteCursor, u4Count int) error {
	objID, err := c.ID()
	if err != nil {
		return err
	}
	root := GCRoot{Kind: tag, ObjectID: objID}
	for i := 0; i < u4Count; i++ {
		v, err := c.U32()
		if err != nil {
			return err
		}
		switch i {
		case 0:
			root.ThreadID = v
		case 1:
			root.Frame = v
		}
	}
	d.addRoot(root)
	return nil
}

func (d *HeapSegmentDecoder) addRoot(root GCRoot) {
	d.roots = append(d.roots, root)
	d.rootCounts[root.Kind]++
}

// decodeClassDump registers a class definition. Constant pool entries are
// consumed (their width depends on the entry type) but not retained;
// static field values are decoded and kept.
func (d *HeapSegmentDecoder) decodeClassDump(c *ByteCursor, report func(*DecodeError)) error {
	classID, err := c.ID()
	if err != nil {
		return err
	}
	if _, err := c.U32(); err != nil { // stack trace serial
		return err
	}
	superID, err := c.ID()
	if err != nil {
		return err
	}
	loaderID, err := c.ID()
	if err != nil {
		return err
	}
	// signers, protection domain, two reserved ids
	for i := 0; i < 4; i++ {
		if _, err := c.ID(); err != nil {
			return err
		}
	}
	instanceSize, err := c.U32()
	if err != nil {
		return err
	}

	cpCount, err := c.U16()
	if err != nil {
		return err
	}
	for i := 0; i < int(cpCount); i++ {
		if _, err := c.U16(); err != nil { // cp index
			return err
		}
		t, err := c.U8()
		if err != nil {
			return err
		}
		if _, err := readValue(c, BasicType(t)); err != nil {
			return err
		}
	}

	staticCount, err := c.U16()
	if err != nil {
		return err
	}
	statics := make([]StaticField, 0, staticCount)
	for i := 0; i < int(staticCount); i++ {
		nameID, err := c.ID()
		if err != nil {
			return err
		}
		t, err := c.U8()
		if err != nil {
			return err
		}
		val, err := readValue(c, BasicType(t))
		if err != nil {
			return err
		}
		statics = append(statics, StaticField{NameID: nameID, Type: BasicType(t), Value: val})
	}

	fieldCount, err := c.U16()
	if err != nil {
		return err
	}
	fields := make([]FieldDecl, 0, fieldCount)
	for i := 0; i < int(fieldCount); i++ {
		nameID, err := c.ID()
		if err != nil {
			return err
		}
		t, err := c.U8()
		if err != nil {
			return err
		}
		fields = append(fields, FieldDecl{NameID: nameID, Type: BasicType(t)})
	}

	def := &ClassDef{
		ClassID:      classID,
		SuperClassID: superID,
		LoaderID:     loaderID,
		InstanceSize: int(instanceSize),
		StaticFields: statics,
		Fields:       fields,
	}
	if derr := d.registry.Register(def); derr != nil {
		report(derr)
	}
	return nil
}

// decodeInstanceDump buffers the instance for pass-2 resolution. The raw
// field blob is copied out of the payload into a pooled buffer so the
// record buffer can be released.
func (d *HeapSegmentDecoder) decodeInstanceDump(c *ByteCursor) error {
	objID, err := c.ID()
	if err != nil {
		return err
	}
	if _, err := c.U32(); err != nil { // stack trace serial
		return err
	}
	classID, err := c.ID()
	if err != nil {
		return err
	}
	dataSize, err := c.U32()
	if err != nil {
		return err
	}
	blobOffset := c.Offset()
	raw, err := c.Bytes(int(dataSize))
	if err != nil {
		return err
	}
	blob := instanceBlobPool.Get()
	*blob = append(*blob, raw...)

	d.resolver.AddInstance(objID, classID, blob, blobOffset)
	return nil
}

func (d *HeapSegmentDecoder) decodeObjectArrayDump(c *ByteCursor) error {
	objID, err := c.ID()
	if err != nil {
		return err
	}
	if _, err := c.U32(); err != nil { // stack trace serial
		return err
	}
	count, err := c.U32()
	if err != nil {
		return err
	}
	arrayClassID, err := c.ID()
	if err != nil {
		return err
	}
	elements := make([]Value, 0, count)
	for i := 0; i < int(count); i++ {
		ref, err := c.ID()
		if err != nil {
			return err
		}
		elements = append(elements, Value{Kind: TypeObject, Ref: ref})
	}

	d.resolver.AddObjectArray(objID, arrayClassID, elements)
	return nil
}

func (d *HeapSegmentDecoder) decodePrimitiveArrayDump(c *ByteCursor) error {
	objID, err := c.ID()
	if err != nil {
		return err
	}
	if _, err := c.U32(); err != nil { // stack trace serial
		return err
	}
	count, err := c.U32()
	if err != nil {
		return err
	}
	elemByte, err := c.U8()
	if err != nil {
		return err
	}
	elem := BasicType(elemByte)
	if BasicTypeSize(elem, c.IDSize()) == 0 {
		return newDecodeError(KindTruncatedInput, c.Offset()-1,
			"primitive array 0x%x has unknown element type %d", uint64(objID), elemByte)
	}
	elements := make([]Value, 0, count)
	for i := 0; i < int(count); i++ {
		v, err := readValue(c, elem)
		if err != nil {
			return err
		}
		elements = append(elements, v)
	}

	d.resolver.AddPrimitiveArray(objID, elem, elements)
	return nil
}

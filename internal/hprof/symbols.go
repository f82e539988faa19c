package hprof

import (
	"strings"
	"unicode/utf8"
)

// Display fallbacks for ids that never appeared in the stream.
const (
	MissingSymbolName = "(missing utf8)"
	MissingClassName  = "(class not found)"
)

// loadedClass is one LOAD_CLASS binding.
type loadedClass struct {
	classID Identifier
	nameID  Identifier
}

// SymbolTable holds the UTF-8 string table and the LOAD_CLASS bindings.
// Lookups tolerate ids that are not (yet) known; the stream carries no
// ordering guarantee between a symbol and its first use.
type SymbolTable struct {
	strings       map[Identifier]string
	classBySerial map[uint32]loadedClass
	classNames    map[Identifier]Identifier // class object id -> name symbol id
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		strings:       make(map[Identifier]string),
		classBySerial: make(map[uint32]loadedClass),
		classNames:    make(map[Identifier]Identifier),
	}
}

// AddString decodes a STRING record payload: id followed by the UTF-8
// bytes filling the rest of the payload. Invalid UTF-8 is recoverable; the
// entry is kept with replacement characters so later lookups still hit.
func (t *SymbolTable) AddString(payload *ByteCursor) (*DecodeError, error) {
	id, err := payload.ID()
	if err != nil {
		return nil, err
	}
	raw, err := payload.Bytes(payload.Remaining())
	if err != nil {
		return nil, err
	}

	if !utf8.Valid(raw) {
		t.strings[id] = strings.ToValidUTF8(string(raw), string(utf8.RuneError))
		return newDecodeError(KindInvalidSymbol, payload.Offset(),
			"symbol 0x%x is not valid UTF-8", uint64(id)), nil
	}
	t.strings[id] = string(raw)
	return nil, nil
}

// AddLoadClass decodes a LOAD_CLASS record payload: class serial, class
// object id, stack trace serial, class name symbol id.
func (t *SymbolTable) AddLoadClass(payload *ByteCursor) error {
	serial, err := payload.U32()
	if err != nil {
		return err
	}
	classID, err := payload.ID()
	if err != nil {
		return err
	}
	if _, err := payload.U32(); err != nil { // stack trace serial
		return err
	}
	nameID, err := payload.ID()
	if err != nil {
		return err
	}

	t.classBySerial[serial] = loadedClass{classID: classID, nameID: nameID}
	t.classNames[classID] = nameID
	return nil
}

// RemoveClassSerial drops an UNLOAD_CLASS serial binding. The class object
// id mapping stays: heap records may still reference the class.
func (t *SymbolTable) RemoveClassSerial(payload *ByteCursor) error {
	serial, err := payload.U32()
	if err != nil {
		return err
	}
	delete(t.classBySerial, serial)
	return nil
}

// String returns the symbol for id.
func (t *SymbolTable) String(id Identifier) (string, bool) {
	s, ok := t.strings[id]
	return s, ok
}

// ClassBySerial returns the class object id bound to a class serial.
func (t *SymbolTable) ClassBySerial(serial uint32) (Identifier, bool) {
	c, ok := t.classBySerial[serial]
	return c.classID, ok
}

// ClassName returns the normalized class name for a class object id,
// falling back to MissingClassName when the class was never loaded and to
// MissingSymbolName when its name symbol is absent.
func (t *SymbolTable) ClassName(classID Identifier) string {
	nameID, ok := t.classNames[classID]
	if !ok {
		return MissingClassName
	}
	raw, ok := t.strings[nameID]
	if !ok {
		return MissingSymbolName
	}
	return NormalizeClassName(raw)
}

// FieldName returns the symbol for a field name id, with fallback.
func (t *SymbolTable) FieldName(nameID Identifier) string {
	s, ok := t.strings[nameID]
	if !ok {
		return MissingSymbolName
	}
	return s
}

// StringCount returns the number of interned symbols.
func (t *SymbolTable) StringCount() int { return len(t.strings) }

// ClassCount returns the number of loaded classes.
func (t *SymbolTable) ClassCount() int { return len(t.classNames) }

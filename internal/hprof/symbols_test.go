package hprof

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringPayload(t *testing.T, idSize int, id uint64, raw []byte) *ByteCursor {
	t.Helper()
	p := newPayloadWriter(idSize).id(id).raw(raw)
	return NewByteCursor(p.bytes(), 0, idSize)
}

func TestSymbolTable_AddString(t *testing.T) {
	table := NewSymbolTable()

	derr, err := table.AddString(stringPayload(t, 8, 1, []byte("java/lang/String")))
	require.NoError(t, err)
	require.Nil(t, derr)

	s, ok := table.String(1)
	require.True(t, ok)
	assert.Equal(t, "java/lang/String", s)
	assert.Equal(t, 1, table.StringCount())
}

func TestSymbolTable_InvalidUTF8IsRecoverable(t *testing.T) {
	table := NewSymbolTable()

	derr, err := table.AddString(stringPayload(t, 8, 7, []byte{0xFF, 0xFE, 'a'}))
	require.NoError(t, err)
	require.NotNil(t, derr)
	assert.Equal(t, KindInvalidSymbol, derr.Kind)
	assert.False(t, derr.Kind.Fatal())

	// the entry is still stored so later lookups resolve
	s, ok := table.String(7)
	require.True(t, ok)
	assert.Contains(t, s, "a")
}

func TestSymbolTable_LoadClass(t *testing.T) {
	table := NewSymbolTable()

	derr, err := table.AddString(stringPayload(t, 8, 2, []byte("com/example/Foo")))
	require.NoError(t, err)
	require.Nil(t, derr)

	p := newPayloadWriter(8).u4(1).id(0x100).u4(0).id(2)
	require.NoError(t, table.AddLoadClass(NewByteCursor(p.bytes(), 0, 8)))

	classID, ok := table.ClassBySerial(1)
	require.True(t, ok)
	assert.Equal(t, Identifier(0x100), classID)
	assert.Equal(t, "com.example.Foo", table.ClassName(0x100))
	assert.Equal(t, 1, table.ClassCount())
}

func TestSymbolTable_UnloadClass(t *testing.T) {
	table := NewSymbolTable()

	p := newPayloadWriter(8).u4(5).id(0x100).u4(0).id(2)
	require.NoError(t, table.AddLoadClass(NewByteCursor(p.bytes(), 0, 8)))

	unload := newPayloadWriter(8).u4(5)
	require.NoError(t, table.RemoveClassSerial(NewByteCursor(unload.bytes(), 0, 8)))

	_, ok := table.ClassBySerial(5)
	assert.False(t, ok)
	// the class object id binding survives unload
	assert.NotEqual(t, MissingClassName, table.ClassName(0x100))
}

func TestSymbolTable_MissingLookups(t *testing.T) {
	table := NewSymbolTable()

	_, ok := table.String(99)
	assert.False(t, ok)
	assert.Equal(t, MissingClassName, table.ClassName(99))
	assert.Equal(t, MissingSymbolName, table.FieldName(99))
}

func TestSymbolTable_ClassNameMissingSymbol(t *testing.T) {
	table := NewSymbolTable()

	// class loaded but its name symbol never appeared
	p := newPayloadWriter(8).u4(1).id(0x100).u4(0).id(42)
	require.NoError(t, table.AddLoadClass(NewByteCursor(p.bytes(), 0, 8)))

	assert.Equal(t, MissingSymbolName, table.ClassName(0x100))
}

package hprof

import "encoding/binary"

// ByteCursor is a bounds-checked big-endian reader over an in-memory span
// of the dump. Every record payload is decoded through one; Slice carves
// out payload-scoped child cursors that share the underlying buffer.
//
// Offsets are absolute file offsets so decode errors point at the real
// position in the dump, not a position relative to the record.
type ByteCursor struct {
	buf    []byte
	pos    int
	base   int64 // absolute file offset of buf[0]
	idSize int
}

// NewByteCursor wraps buf, reporting offsets relative to base.
func NewByteCursor(buf []byte, base int64, idSize int) *ByteCursor {
	return &ByteCursor{buf: buf, base: base, idSize: idSize}
}

// Offset returns the absolute file offset of the next byte to read.
func (c *ByteCursor) Offset() int64 { return c.base + int64(c.pos) }

// Remaining returns the number of unread bytes.
func (c *ByteCursor) Remaining() int { return len(c.buf) - c.pos }

// Len returns the total span length.
func (c *ByteCursor) Len() int { return len(c.buf) }

// IDSize returns the identifier width the cursor decodes with.
func (c *ByteCursor) IDSize() int { return c.idSize }

func (c *ByteCursor) need(n int) *DecodeError {
	if c.Remaining() < n {
		return newDecodeError(KindTruncatedInput, c.Offset(),
			"need %d bytes, %d remain", n, c.Remaining())
	}
	return nil
}

// U8 reads one byte.
func (c *ByteCursor) U8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.buf[c.pos]
	c.pos++
	return v, nil
}

// U16 reads a big-endian uint16.
func (c *ByteCursor) U16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(c.buf[c.pos:])
	c.pos += 2
	return v, nil
}

// U32 reads a big-endian uint32.
func (c *ByteCursor) U32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

// U64 reads a big-endian uint64.
func (c *ByteCursor) U64() (uint64, error) {
	if err := c.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(c.buf[c.pos:])
	c.pos += 8
	return v, nil
}

// ID reads an identifier at the width declared in the file header.
func (c *ByteCursor) ID() (Identifier, error) {
	if c.idSize == 4 {
		v, err := c.U32()
		return Identifier(v), err
	}
	v, err := c.U64()
	return Identifier(v), err
}

// Bytes reads the next n bytes. The returned slice aliases the underlying
// buffer and must not be written to.
func (c *ByteCursor) Bytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	v := c.buf[c.pos : c.pos+n]
	c.pos += n
	return v, nil
}

// Skip advances past n bytes.
func (c *ByteCursor) Skip(n int) error {
	if err := c.need(n); err != nil {
		return err
	}
	c.pos += n
	return nil
}

// Slice carves out a child cursor scoped to exactly the next n bytes and
// advances this cursor past them.
func (c *ByteCursor) Slice(n int) (*ByteCursor, error) {
	base := c.Offset()
	buf, err := c.Bytes(n)
	if err != nil {
		return nil, err
	}
	return NewByteCursor(buf, base, c.idSize), nil
}

// Close verifies the span was fully consumed. A payload cursor with bytes
// left over means the decoder and the record length disagree.
func (c *ByteCursor) Close() error {
	if rem := c.Remaining(); rem != 0 {
		return newDecodeError(KindUnconsumedPayload, c.Offset(),
			"%d bytes left in payload", rem)
	}
	return nil
}

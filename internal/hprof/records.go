package hprof

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	formatPrefix = "JAVA PROFILE"

	// tag + time delta + length
	recordHeaderSize = 9
)

// Record is one framed top-level record. Payload is scoped to exactly the
// declared length.
type Record struct {
	Tag       RecordTag
	TimeDelta uint32
	Length    uint32
	Payload   *ByteCursor
}

// RecordStream reads the file header and then yields records lazily.
type RecordStream struct {
	r       *bufio.Reader
	byteBuf []byte
	header  *Header
	offset  int64
}

// NewRecordStream creates a stream over r. ReadHeader must be called
// before Next.
func NewRecordStream(r io.Reader) *RecordStream {
	return &RecordStream{
		r:       bufio.NewReaderSize(r, 64*1024),
		byteBuf: make([]byte, 8),
	}
}

// Offset returns the absolute position of the next unread byte.
func (s *RecordStream) Offset() int64 { return s.offset }

// Header returns the parsed file header, or nil before ReadHeader.
func (s *RecordStream) Header() *Header { return s.header }

// ReadHeader parses the HPROF file header: a null-terminated format
// string, a u4 identifier size, and a u8 millisecond timestamp.
func (s *RecordStream) ReadHeader() (*Header, error) {
	format, err := s.readNullTerminatedString()
	if err != nil {
		return nil, fmt.Errorf("failed to read format string: %w", s.truncated(err, "file header"))
	}
	if !strings.HasPrefix(format, formatPrefix) {
		return nil, fmt.Errorf("not an HPROF file: format string %q", format)
	}

	idSize, err := s.readUint32()
	if err != nil {
		return nil, fmt.Errorf("failed to read identifier size: %w", s.truncated(err, "file header"))
	}
	if idSize != 4 && idSize != 8 {
		return nil, fmt.Errorf("unsupported identifier size %d (want 4 or 8)", idSize)
	}

	timestamp, err := s.readUint64()
	if err != nil {
		return nil, fmt.Errorf("failed to read timestamp: %w", s.truncated(err, "file header"))
	}

	s.header = &Header{
		Format:    format,
		IDSize:    int(idSize),
		Timestamp: time.UnixMilli(int64(timestamp)),
	}
	return s.header, nil
}

// Next returns the next record, with its payload materialized behind a
// payload-scoped cursor. It returns io.EOF at a clean record boundary and
// a fatal truncation error if the input ends mid-record.
func (s *RecordStream) Next() (*Record, error) {
	if s.header == nil {
		return nil, errors.New("record stream: header not read")
	}

	tagByte, err := s.r.ReadByte()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, s.truncated(err, "record tag")
	}
	s.offset++
	tag := RecordTag(tagByte)

	timeDelta, err := s.readUint32()
	if err != nil {
		return nil, s.truncated(err, "record time delta")
	}
	length, err := s.readUint32()
	if err != nil {
		return nil, s.truncated(err, "record length")
	}

	payloadBase := s.offset
	payload := make([]byte, length)
	if _, err := io.ReadFull(s.r, payload); err != nil {
		return nil, s.truncated(err, fmt.Sprintf("%s payload (%d bytes declared)", tag, length))
	}
	s.offset += int64(length)

	return &Record{
		Tag:       tag,
		TimeDelta: timeDelta,
		Length:    length,
		Payload:   NewByteCursor(payload, payloadBase, s.header.IDSize),
	}, nil
}

func (s *RecordStream) readUint32() (uint32, error) {
	if _, err := io.ReadFull(s.r, s.byteBuf[:4]); err != nil {
		return 0, err
	}
	s.offset += 4
	return binary.BigEndian.Uint32(s.byteBuf[:4]), nil
}

func (s *RecordStream) readUint64() (uint64, error) {
	if _, err := io.ReadFull(s.r, s.byteBuf[:8]); err != nil {
		return 0, err
	}
	s.offset += 8
	return binary.BigEndian.Uint64(s.byteBuf[:8]), nil
}

func (s *RecordStream) readNullTerminatedString() (string, error) {
	var result []byte
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			return "", err
		}
		s.offset++
		if b == 0 {
			break
		}
		result = append(result, b)
	}
	return string(result), nil
}

// truncated maps an io error at the current position to a fatal decode
// error. io.EOF inside a structure is truncation, not a clean end.
func (s *RecordStream) truncated(err error, context string) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return &DecodeError{Kind: KindTruncatedInput, Offset: s.offset, Context: context, Err: io.ErrUnexpectedEOF}
	}
	return err
}

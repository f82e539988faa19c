package hprof

import "fmt"

// ErrorKind classifies a decode failure.
type ErrorKind int

const (
	// KindTruncatedInput means the input ended inside a structure that
	// declared more bytes. Fatal.
	KindTruncatedInput ErrorKind = iota
	// KindUnconsumedPayload means a record decoder returned with payload
	// bytes left over, so the decoder and the file disagree about the
	// record layout. Fatal.
	KindUnconsumedPayload
	// KindUnknownTag is a top-level record tag outside the known set. The
	// record is skipped by its declared length.
	KindUnknownTag
	// KindInvalidSymbol is a UTF-8 record whose payload is not valid UTF-8.
	KindInvalidSymbol
	// KindDuplicateClassDef is a second CLASS_DUMP for an id already
	// registered. The first definition wins.
	KindDuplicateClassDef
	// KindDanglingSuperclass is a class whose superclass id never received
	// a definition.
	KindDanglingSuperclass
	// KindFieldLayoutMismatch is an instance blob shorter than the field
	// layout of its class requires.
	KindFieldLayoutMismatch
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindTruncatedInput:
		return "truncated_input"
	case KindUnconsumedPayload:
		return "unconsumed_payload"
	case KindUnknownTag:
		return "unknown_tag"
	case KindInvalidSymbol:
		return "invalid_symbol"
	case KindDuplicateClassDef:
		return "duplicate_class_def"
	case KindDanglingSuperclass:
		return "dangling_superclass"
	case KindFieldLayoutMismatch:
		return "field_layout_mismatch"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Fatal reports whether errors of this kind abort the scan. Recoverable
// kinds are reported to the sink and decoding continues.
func (k ErrorKind) Fatal() bool {
	return k == KindTruncatedInput || k == KindUnconsumedPayload
}

// DecodeError describes a failure while decoding the dump. Offset is the
// absolute byte position the failure was detected at, when known.
type DecodeError struct {
	Kind    ErrorKind
	Offset  int64
	Context string
	Err     error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("%s at offset %d", e.Kind, e.Offset)
	if e.Context != "" {
		msg += ": " + e.Context
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the wrapped cause, if any.
func (e *DecodeError) Unwrap() error { return e.Err }

// Is matches against another DecodeError by kind, so callers can test with
// errors.Is(err, &DecodeError{Kind: KindTruncatedInput}).
func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*DecodeError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newDecodeError(kind ErrorKind, offset int64, format string, args ...interface{}) *DecodeError {
	return &DecodeError{
		Kind:    kind,
		Offset:  offset,
		Context: fmt.Sprintf(format, args...),
	}
}

// ErrorSummary counts recoverable decode errors by kind over a scan.
type ErrorSummary struct {
	Counts map[ErrorKind]int `json:"counts"`
	Total  int               `json:"total"`
}

// NewErrorSummary returns an empty summary.
func NewErrorSummary() *ErrorSummary {
	return &ErrorSummary{Counts: make(map[ErrorKind]int)}
}

// Add records one error.
func (s *ErrorSummary) Add(err *DecodeError) {
	s.Counts[err.Kind]++
	s.Total++
}

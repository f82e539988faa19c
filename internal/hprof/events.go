package hprof

// Sink receives decoded output as it is produced. Implementations choose
// which capabilities to act on; the scanner never depends on what a sink
// does with an event.
type Sink interface {
	// RecordCounted is raised once per top-level record, known or not.
	RecordCounted(tag RecordTag)

	// ObjectResolved is raised once per instance decoded in pass 2.
	ObjectResolved(obj *ResolvedObject)

	// DecodeError is raised for every recoverable decode failure.
	// Fatal failures abort the scan and are returned, not raised.
	DecodeError(err *DecodeError)
}

// MultiSink fans events out to several sinks in order.
type MultiSink []Sink

// RecordCounted implements Sink.
func (m MultiSink) RecordCounted(tag RecordTag) {
	for _, s := range m {
		s.RecordCounted(tag)
	}
}

// ObjectResolved implements Sink.
func (m MultiSink) ObjectResolved(obj *ResolvedObject) {
	for _, s := range m {
		s.ObjectResolved(obj)
	}
}

// DecodeError implements Sink.
func (m MultiSink) DecodeError(err *DecodeError) {
	for _, s := range m {
		s.DecodeError(err)
	}
}

// NopSink discards all events. Useful as a default and in tests.
type NopSink struct{}

func (NopSink) RecordCounted(RecordTag) {}

func (NopSink) ObjectResolved(*ResolvedObject) {}

func (NopSink) DecodeError(*DecodeError) {}

// Package sink implements the output sinks fed by the heap dump scanner:
// a text dumper, a record-count aggregator, and a columnar emitter that
// persists the object graph through the repository layer.
package sink

// Flusher is implemented by sinks that buffer output. Callers must flush
// after the scan completes.
type Flusher interface {
	Flush() error
}

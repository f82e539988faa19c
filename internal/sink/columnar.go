package sink

import (
	"context"

	"github.com/hprof-analysis/internal/hprof"
	"github.com/hprof-analysis/internal/repository"
)

// defaultBatchSize is how many objects are buffered before a flush to the
// repository.
const defaultBatchSize = 1000

// ColumnarEmitter converts resolved objects into relational rows and
// flushes them in batches through the repository layer.
//
// The sink interface carries no error returns, so the first flush failure
// is remembered, later events are dropped, and the error surfaces from
// Flush.
type ColumnarEmitter struct {
	ctx       context.Context
	repo      repository.ObjectRepository
	dumpUUID  string
	batchSize int

	objects []*repository.HeapObjectModel
	fields  []*repository.HeapFieldModel
	written int64
	errors  *hprof.ErrorSummary
	failed  error
}

// NewColumnarEmitter creates an emitter writing rows for dumpUUID.
func NewColumnarEmitter(ctx context.Context, repo repository.ObjectRepository, dumpUUID string, batchSize int) *ColumnarEmitter {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &ColumnarEmitter{
		ctx:       ctx,
		repo:      repo,
		dumpUUID:  dumpUUID,
		batchSize: batchSize,
		errors:    hprof.NewErrorSummary(),
	}
}

// RecordCounted implements hprof.Sink.
func (e *ColumnarEmitter) RecordCounted(hprof.RecordTag) {}

// ObjectResolved implements hprof.Sink.
func (e *ColumnarEmitter) ObjectResolved(obj *hprof.ResolvedObject) {
	if e.failed != nil {
		return
	}

	row, fieldRows := repository.NewObjectRows(e.dumpUUID, obj)
	e.objects = append(e.objects, row)
	e.fields = append(e.fields, fieldRows...)

	if len(e.objects) >= e.batchSize {
		e.flushBatch()
	}
}

// DecodeError implements hprof.Sink.
func (e *ColumnarEmitter) DecodeError(err *hprof.DecodeError) {
	e.errors.Add(err)
}

// Written returns the number of objects persisted so far.
func (e *ColumnarEmitter) Written() int64 { return e.written }

// Errors returns the recoverable error summary observed during the scan.
func (e *ColumnarEmitter) Errors() *hprof.ErrorSummary { return e.errors }

// Flush persists any buffered rows and returns the first failure seen.
func (e *ColumnarEmitter) Flush() error {
	if e.failed == nil && len(e.objects) > 0 {
		e.flushBatch()
	}
	return e.failed
}

func (e *ColumnarEmitter) flushBatch() {
	if err := e.repo.SaveObjects(e.ctx, e.objects, e.fields); err != nil {
		e.failed = err
		return
	}
	e.written += int64(len(e.objects))
	e.objects = e.objects[:0]
	e.fields = e.fields[:0]
}

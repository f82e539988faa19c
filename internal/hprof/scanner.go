package hprof

import (
	"context"
	"fmt"
	"io"

	"github.com/hprof-analysis/pkg/utils"
)

// ScannerOptions configures a scan.
type ScannerOptions struct {
	// Logger receives progress and debug output. Defaults to NullLogger.
	Logger utils.Logger

	// ProgressInterval is how many records pass between progress log
	// lines. Zero disables progress logging.
	ProgressInterval int64
}

// DefaultScannerOptions returns the default configuration.
func DefaultScannerOptions() *ScannerOptions {
	return &ScannerOptions{
		Logger:           &utils.NullLogger{},
		ProgressInterval: 0,
	}
}

// ScanReport summarizes one scan. It accompanies partial output when
// recoverable errors occurred.
type ScanReport struct {
	Header            *Header             `json:"header"`
	RecordCounts      map[RecordTag]int64 `json:"record_counts"`
	TotalRecords      int64               `json:"total_records"`
	ObjectsResolved   int64               `json:"objects_resolved"`
	ClassesRegistered int                 `json:"classes_registered"`
	StringsInterned   int                 `json:"strings_interned"`
	GCRoots           int                 `json:"gc_roots"`
	SegmentGroups     int                 `json:"segment_groups"`
	Errors            *ErrorSummary       `json:"errors"`
}

// Scanner drives the full pipeline: record stream, symbol table, class
// registry, segment decoding, and two-pass object resolution. Events go to
// the sink as they are produced.
//
// A Scanner is single-use and not safe for concurrent use; run one scanner
// per dump. Concurrent scans of different dumps are independent.
type Scanner struct {
	opts     *ScannerOptions
	sink     Sink
	symbols  *SymbolTable
	registry *ClassRegistry
	resolver *ObjectGraphResolver
	segments *HeapSegmentDecoder
	report   *ScanReport

	groupOpen bool
}

// NewScanner creates a scanner emitting to sink.
func NewScanner(sink Sink, opts *ScannerOptions) *Scanner {
	if opts == nil {
		opts = DefaultScannerOptions()
	}
	if opts.Logger == nil {
		opts.Logger = &utils.NullLogger{}
	}
	if sink == nil {
		sink = NopSink{}
	}

	symbols := NewSymbolTable()
	registry := NewClassRegistry()
	resolver := NewObjectGraphResolver(symbols, registry)

	return &Scanner{
		opts:     opts,
		sink:     sink,
		symbols:  symbols,
		registry: registry,
		resolver: resolver,
		segments: NewHeapSegmentDecoder(registry, resolver),
		report: &ScanReport{
			RecordCounts: make(map[RecordTag]int64),
			Errors:       NewErrorSummary(),
		},
	}
}

// Symbols exposes the symbol table, populated as the scan progresses.
func (s *Scanner) Symbols() *SymbolTable { return s.symbols }

// Registry exposes the class registry.
func (s *Scanner) Registry() *ClassRegistry { return s.registry }

// ResolvedClasses returns every registered class with its static fields
// resolved against the symbol table, in registration order. Call after
// Scan so the symbol table is fully populated.
func (s *Scanner) ResolvedClasses() []ResolvedClass { return s.resolver.ResolveClasses() }

// Scan decodes the dump from r until EOF or a fatal error. The returned
// report is valid (partial) even when err is non-nil. Cancellation of ctx
// is honored between records.
func (s *Scanner) Scan(ctx context.Context, r io.Reader) (*ScanReport, error) {
	stream := NewRecordStream(r)

	header, err := stream.ReadHeader()
	if err != nil {
		return s.report, err
	}
	s.report.Header = header
	s.resolver.SetIDSize(header.IDSize)
	s.opts.Logger.Debug("header: format=%s idSize=%d timestamp=%s",
		header.Format, header.IDSize, header.Timestamp)

	for {
		select {
		case <-ctx.Done():
			return s.report, ctx.Err()
		default:
		}

		rec, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return s.report, fmt.Errorf("failed to read record: %w", err)
		}

		s.report.RecordCounts[rec.Tag]++
		s.report.TotalRecords++
		s.sink.RecordCounted(rec.Tag)

		if err := s.processRecord(rec); err != nil {
			return s.report, fmt.Errorf("%s record: %w", rec.Tag, err)
		}

		if n := s.opts.ProgressInterval; n > 0 && s.report.TotalRecords%n == 0 {
			s.opts.Logger.Info("processed %d records (%d objects pending)",
				s.report.TotalRecords, s.resolver.PendingCount())
		}
	}

	// some VMs never write HEAP_DUMP_END; EOF closes the open group
	if s.groupOpen || s.resolver.PendingCount() > 0 {
		s.closeGroup()
	}

	s.report.ClassesRegistered = s.registry.Count()
	s.report.StringsInterned = s.symbols.StringCount()
	s.report.GCRoots = len(s.segments.Roots())
	return s.report, nil
}

func (s *Scanner) processRecord(rec *Record) error {
	switch rec.Tag {
	case TagString:
		derr, err := s.symbols.AddString(rec.Payload)
		if err != nil {
			return err
		}
		if derr != nil {
			s.recoverable(derr)
		}
		return rec.Payload.Close()

	case TagLoadClass:
		if err := s.symbols.AddLoadClass(rec.Payload); err != nil {
			return err
		}
		return rec.Payload.Close()

	case TagUnloadClass:
		if err := s.symbols.RemoveClassSerial(rec.Payload); err != nil {
			return err
		}
		return rec.Payload.Close()

	case TagHeapDump:
		// a bare HEAP_DUMP is a complete segment group by itself
		if err := s.segments.DecodeSegment(rec.Payload, s.recoverable); err != nil {
			return err
		}
		s.closeGroup()
		return nil

	case TagHeapDumpSegment:
		s.groupOpen = true
		return s.segments.DecodeSegment(rec.Payload, s.recoverable)

	case TagHeapDumpEnd:
		s.closeGroup()
		return rec.Payload.Skip(rec.Payload.Remaining())

	case TagStackFrame, TagStackTrace, TagAllocSites, TagHeapSummary,
		TagStartThread, TagEndThread, TagCPUSamples, TagControlSettings:
		// counted but not decoded
		return rec.Payload.Skip(rec.Payload.Remaining())

	default:
		s.recoverable(newDecodeError(KindUnknownTag, rec.Payload.Offset(),
			"tag %s, skipping %d bytes", rec.Tag, rec.Length))
		return rec.Payload.Skip(rec.Payload.Remaining())
	}
}

// closeGroup ends the current segment group: every instance buffered since
// the previous boundary is resolved against the registry.
func (s *Scanner) closeGroup() {
	pending := s.resolver.PendingCount()
	s.resolver.ResolveGroup(func(obj *ResolvedObject) {
		s.report.ObjectsResolved++
		s.sink.ObjectResolved(obj)
	}, s.recoverable)

	s.groupOpen = false
	s.report.SegmentGroups++
	s.opts.Logger.Debug("segment group closed: %d instances drained", pending)
}

func (s *Scanner) recoverable(derr *DecodeError) {
	s.report.Errors.Add(derr)
	s.sink.DecodeError(derr)
	s.opts.Logger.Debug("recoverable decode error: %v", derr)
}

package sink

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/hprof-analysis/internal/hprof"
	"github.com/hprof-analysis/pkg/filter"
)

// TextDumper streams every resolved object to a writer, one block per
// object: the class name and object id, then one indented line per field.
type TextDumper struct {
	w       *bufio.Writer
	filter  *filter.ClassFilter
	objects int64
	errors  *hprof.ErrorSummary
}

// NewTextDumper creates a text dumper. A nil filter dumps every class.
func NewTextDumper(w io.Writer, f *filter.ClassFilter) *TextDumper {
	return &TextDumper{
		w:      bufio.NewWriter(w),
		filter: f,
		errors: hprof.NewErrorSummary(),
	}
}

// RecordCounted implements hprof.Sink.
func (d *TextDumper) RecordCounted(hprof.RecordTag) {}

// ObjectResolved implements hprof.Sink.
func (d *TextDumper) ObjectResolved(obj *hprof.ResolvedObject) {
	if d.filter != nil && !d.filter.Matches(obj.ClassName) {
		return
	}
	d.objects++

	switch obj.Kind {
	case hprof.ObjectKindObjectArray:
		d.writeObjectArray(obj)
	case hprof.ObjectKindPrimitiveArray:
		d.writePrimitiveArray(obj)
	default:
		d.writeInstance(obj)
	}
}

func (d *TextDumper) writeInstance(obj *hprof.ResolvedObject) {
	fmt.Fprintf(d.w, "%s#0x%x\n", obj.ClassName, uint64(obj.ObjectID))
	for _, f := range obj.Fields {
		if f.Type == hprof.TypeObject && f.RefClass != "" {
			fmt.Fprintf(d.w, "  %s = %s (%s)\n", f.Name, f.Value.String(), f.RefClass)
			continue
		}
		fmt.Fprintf(d.w, "  %s = %s\n", f.Name, f.Value.String())
	}
}

// writeObjectArray prints one indented line per element so reference
// annotations stay readable on large arrays.
func (d *TextDumper) writeObjectArray(obj *hprof.ResolvedObject) {
	fmt.Fprintf(d.w, "%s#0x%x = [\n", obj.ClassName, uint64(obj.ObjectID))
	for _, e := range obj.Elements {
		if e.RefClass != "" {
			fmt.Fprintf(d.w, "  %s (%s)\n", e.Value.String(), e.RefClass)
			continue
		}
		fmt.Fprintf(d.w, "  %s\n", e.Value.String())
	}
	fmt.Fprintf(d.w, "]\n")
}

// writePrimitiveArray prints the elements on one line.
func (d *TextDumper) writePrimitiveArray(obj *hprof.ResolvedObject) {
	fmt.Fprintf(d.w, "%s#0x%x = [", obj.ClassName, uint64(obj.ObjectID))
	for i, e := range obj.Elements {
		if i > 0 {
			d.w.WriteString(", ")
		}
		d.w.WriteString(e.Value.String())
	}
	fmt.Fprintf(d.w, "]\n")
}

// WriteClass prints a class with its static field values. Classes are not
// sink events; the caller feeds them after the scan, when the symbol
// table is complete.
func (d *TextDumper) WriteClass(rc *hprof.ResolvedClass) {
	if d.filter != nil && !d.filter.Matches(rc.Name) {
		return
	}

	fmt.Fprintf(d.w, "class %s#0x%x\n", rc.Name, uint64(rc.ClassID))
	for _, f := range rc.Statics {
		if f.Type == hprof.TypeObject && f.RefClass != "" {
			fmt.Fprintf(d.w, "  static %s = %s (%s)\n", f.Name, f.Value.String(), f.RefClass)
			continue
		}
		fmt.Fprintf(d.w, "  static %s = %s\n", f.Name, f.Value.String())
	}
}

// DecodeError implements hprof.Sink.
func (d *TextDumper) DecodeError(err *hprof.DecodeError) {
	d.errors.Add(err)
}

// ObjectCount returns the number of objects written.
func (d *TextDumper) ObjectCount() int64 { return d.objects }

// Flush writes the recoverable error summary, if any, and flushes the
// underlying writer.
func (d *TextDumper) Flush() error {
	if d.errors.Total > 0 {
		fmt.Fprintf(d.w, "---\n%d recoverable decode errors\n", d.errors.Total)
		for _, kind := range sortedKinds(d.errors) {
			fmt.Fprintf(d.w, "  %s: %d\n", kind, d.errors.Counts[kind])
		}
	}
	return d.w.Flush()
}

func sortedKinds(s *hprof.ErrorSummary) []hprof.ErrorKind {
	kinds := make([]hprof.ErrorKind, 0, len(s.Counts))
	for k := range s.Counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

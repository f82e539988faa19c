package sink

import (
	"fmt"
	"io"
	"sort"

	"github.com/hprof-analysis/internal/hprof"
)

// RecordCounter aggregates per-tag record counts.
type RecordCounter struct {
	counts map[hprof.RecordTag]int64
	errors *hprof.ErrorSummary
}

// NewRecordCounter returns an empty counter.
func NewRecordCounter() *RecordCounter {
	return &RecordCounter{
		counts: make(map[hprof.RecordTag]int64),
		errors: hprof.NewErrorSummary(),
	}
}

// RecordCounted implements hprof.Sink.
func (c *RecordCounter) RecordCounted(tag hprof.RecordTag) {
	c.counts[tag]++
}

// ObjectResolved implements hprof.Sink.
func (c *RecordCounter) ObjectResolved(*hprof.ResolvedObject) {}

// DecodeError implements hprof.Sink.
func (c *RecordCounter) DecodeError(err *hprof.DecodeError) {
	c.errors.Add(err)
}

// Count returns the count for one tag.
func (c *RecordCounter) Count(tag hprof.RecordTag) int64 {
	return c.counts[tag]
}

// Total returns the total number of records seen.
func (c *RecordCounter) Total() int64 {
	var total int64
	for _, n := range c.counts {
		total += n
	}
	return total
}

// WriteTable renders the counts sorted descending, ties broken by tag
// value. Unknown tags appear under their hex form.
func (c *RecordCounter) WriteTable(w io.Writer) error {
	type row struct {
		tag   hprof.RecordTag
		count int64
	}
	rows := make([]row, 0, len(c.counts))
	for tag, count := range c.counts {
		rows = append(rows, row{tag: tag, count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].tag < rows[j].tag
	})

	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%10d  %s\n", r.count, r.tag); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "%10d  total\n", c.Total()); err != nil {
		return err
	}

	if c.errors.Total > 0 {
		if _, err := fmt.Fprintf(w, "\n%d recoverable decode errors\n", c.errors.Total); err != nil {
			return err
		}
	}
	return nil
}

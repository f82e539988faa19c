// Package repository provides database persistence for exported heap
// object graphs and scan reports.
package repository

import "context"

// ObjectRepository defines the interface for heap object persistence.
type ObjectRepository interface {
	// SaveObjects persists a batch of objects with their field rows.
	SaveObjects(ctx context.Context, objects []*HeapObjectModel, fields []*HeapFieldModel) error

	// CountObjects returns the number of objects stored for a dump.
	CountObjects(ctx context.Context, dumpUUID string) (int64, error)

	// TopClasses returns the classes with the most instances in a dump.
	TopClasses(ctx context.Context, dumpUUID string, limit int) ([]*ClassCount, error)
}

// ReportRepository defines the interface for scan report persistence.
type ReportRepository interface {
	// SaveReport persists the summary of one scan.
	SaveReport(ctx context.Context, report *ScanReportModel) error

	// GetReport retrieves the report for a dump.
	GetReport(ctx context.Context, dumpUUID string) (*ScanReportModel, error)
}

// ClassCount is one row of the per-class instance count aggregation.
type ClassCount struct {
	ClassName string `json:"class_name"`
	Count     int64  `json:"count"`
}

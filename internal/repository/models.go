package repository

import (
	"fmt"
	"time"

	"github.com/hprof-analysis/internal/hprof"
)

// HeapObjectModel is one exported heap object: an instance or an array.
type HeapObjectModel struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	DumpUUID   string    `gorm:"column:dump_uuid;size:64;index:idx_objects_dump"`
	ObjectID   uint64    `gorm:"column:object_id;index:idx_objects_oid"`
	Kind       string    `gorm:"column:kind;size:16"`
	ClassID    uint64    `gorm:"column:class_id"`
	ClassName  string    `gorm:"column:class_name;size:512;index:idx_objects_class"`
	FieldCount int       `gorm:"column:field_count"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name for GORM.
func (HeapObjectModel) TableName() string {
	return "heap_objects"
}

// HeapFieldModel is one decoded field of an exported instance.
type HeapFieldModel struct {
	ID       uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	DumpUUID string `gorm:"column:dump_uuid;size:64;index:idx_fields_dump"`
	ObjectID uint64 `gorm:"column:object_id;index:idx_fields_oid"`
	Name     string `gorm:"column:name;size:256"`
	TypeName string `gorm:"column:type_name;size:32"`
	Value    string `gorm:"column:value;size:64"`
	RefID    uint64 `gorm:"column:ref_id"`
	RefClass string `gorm:"column:ref_class;size:512"`
}

// TableName returns the table name for GORM.
func (HeapFieldModel) TableName() string {
	return "heap_object_fields"
}

// ScanReportModel is the persisted summary of one scan.
type ScanReportModel struct {
	ID                uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	DumpUUID          string    `gorm:"column:dump_uuid;size:64;uniqueIndex:idx_reports_dump"`
	Format            string    `gorm:"column:format;size:64"`
	IDSize            int       `gorm:"column:id_size"`
	TotalRecords      int64     `gorm:"column:total_records"`
	ObjectsResolved   int64     `gorm:"column:objects_resolved"`
	ClassesRegistered int       `gorm:"column:classes_registered"`
	StringsInterned   int       `gorm:"column:strings_interned"`
	GCRoots           int       `gorm:"column:gc_roots"`
	SegmentGroups     int       `gorm:"column:segment_groups"`
	ErrorCount        int       `gorm:"column:error_count"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name for GORM.
func (ScanReportModel) TableName() string {
	return "heap_scan_reports"
}

// NewObjectRows converts a resolved object into its relational rows.
// Instance fields become one row each under the field name; array elements
// become one row each under their index, rendered as "[i]".
func NewObjectRows(dumpUUID string, obj *hprof.ResolvedObject) (*HeapObjectModel, []*HeapFieldModel) {
	row := &HeapObjectModel{
		DumpUUID:  dumpUUID,
		ObjectID:  uint64(obj.ObjectID),
		Kind:      obj.Kind.String(),
		ClassID:   uint64(obj.ClassID),
		ClassName: obj.ClassName,
	}

	if obj.Kind == hprof.ObjectKindInstance {
		row.FieldCount = len(obj.Fields)
		fields := make([]*HeapFieldModel, 0, len(obj.Fields))
		for _, f := range obj.Fields {
			fm := &HeapFieldModel{
				DumpUUID: dumpUUID,
				ObjectID: uint64(obj.ObjectID),
				Name:     f.Name,
				TypeName: f.Type.String(),
				Value:    f.Value.String(),
				RefClass: f.RefClass,
			}
			if f.Type == hprof.TypeObject {
				fm.RefID = uint64(f.Value.Ref)
			}
			fields = append(fields, fm)
		}
		return row, fields
	}

	row.FieldCount = len(obj.Elements)
	fields := make([]*HeapFieldModel, 0, len(obj.Elements))
	for i, e := range obj.Elements {
		fm := &HeapFieldModel{
			DumpUUID: dumpUUID,
			ObjectID: uint64(obj.ObjectID),
			Name:     fmt.Sprintf("[%d]", i),
			TypeName: obj.ElementType.String(),
			Value:    e.Value.String(),
			RefClass: e.RefClass,
		}
		if obj.ElementType == hprof.TypeObject {
			fm.RefID = uint64(e.Value.Ref)
		}
		fields = append(fields, fm)
	}
	return row, fields
}

// NewReportRow converts a scan report into its persisted form.
func NewReportRow(dumpUUID string, report *hprof.ScanReport) *ScanReportModel {
	row := &ScanReportModel{
		DumpUUID:          dumpUUID,
		TotalRecords:      report.TotalRecords,
		ObjectsResolved:   report.ObjectsResolved,
		ClassesRegistered: report.ClassesRegistered,
		StringsInterned:   report.StringsInterned,
		GCRoots:           report.GCRoots,
		SegmentGroups:     report.SegmentGroups,
	}
	if report.Header != nil {
		row.Format = report.Header.Format
		row.IDSize = report.Header.IDSize
	}
	if report.Errors != nil {
		row.ErrorCount = report.Errors.Total
	}
	return row
}

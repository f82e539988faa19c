package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// exportBatchSize is how many rows go into one INSERT.
const exportBatchSize = 500

// GormObjectRepository implements ObjectRepository using GORM.
type GormObjectRepository struct {
	db *gorm.DB
}

// NewGormObjectRepository creates a new GORM-based object repository.
func NewGormObjectRepository(db *gorm.DB) *GormObjectRepository {
	return &GormObjectRepository{db: db}
}

// SaveObjects persists a batch of objects and their field rows.
func (r *GormObjectRepository) SaveObjects(ctx context.Context, objects []*HeapObjectModel, fields []*HeapFieldModel) error {
	if len(objects) == 0 && len(fields) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(objects) > 0 {
			if err := tx.CreateInBatches(objects, exportBatchSize).Error; err != nil {
				return fmt.Errorf("failed to save objects: %w", err)
			}
		}
		if len(fields) > 0 {
			if err := tx.CreateInBatches(fields, exportBatchSize).Error; err != nil {
				return fmt.Errorf("failed to save object fields: %w", err)
			}
		}
		return nil
	})
}

// CountObjects returns the number of stored objects for a dump.
func (r *GormObjectRepository) CountObjects(ctx context.Context, dumpUUID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&HeapObjectModel{}).
		Where("dump_uuid = ?", dumpUUID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count objects: %w", err)
	}
	return count, nil
}

// TopClasses returns the classes with the most instances in a dump.
func (r *GormObjectRepository) TopClasses(ctx context.Context, dumpUUID string, limit int) ([]*ClassCount, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows []*ClassCount
	err := r.db.WithContext(ctx).
		Model(&HeapObjectModel{}).
		Select("class_name, COUNT(*) as count").
		Where("dump_uuid = ?", dumpUUID).
		Group("class_name").
		Order("count DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate classes: %w", err)
	}
	return rows, nil
}

// GormReportRepository implements ReportRepository using GORM.
type GormReportRepository struct {
	db *gorm.DB
}

// NewGormReportRepository creates a new GORM-based report repository.
func NewGormReportRepository(db *gorm.DB) *GormReportRepository {
	return &GormReportRepository{db: db}
}

// SaveReport persists the summary of one scan.
func (r *GormReportRepository) SaveReport(ctx context.Context, report *ScanReportModel) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return fmt.Errorf("failed to save scan report: %w", err)
	}
	return nil
}

// GetReport retrieves the report for a dump.
func (r *GormReportRepository) GetReport(ctx context.Context, dumpUUID string) (*ScanReportModel, error) {
	var report ScanReportModel
	err := r.db.WithContext(ctx).
		Where("dump_uuid = ?", dumpUUID).
		First(&report).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load scan report: %w", err)
	}
	return &report, nil
}

// Package mock provides mock implementations for testing.
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hprof-analysis/internal/repository"
)

// MockObjectRepository is a mock implementation of the ObjectRepository interface.
type MockObjectRepository struct {
	mock.Mock
}

// SaveObjects mocks the SaveObjects method.
func (m *MockObjectRepository) SaveObjects(ctx context.Context, objects []*repository.HeapObjectModel, fields []*repository.HeapFieldModel) error {
	args := m.Called(ctx, objects, fields)
	return args.Error(0)
}

// CountObjects mocks the CountObjects method.
func (m *MockObjectRepository) CountObjects(ctx context.Context, dumpUUID string) (int64, error) {
	args := m.Called(ctx, dumpUUID)
	return args.Get(0).(int64), args.Error(1)
}

// TopClasses mocks the TopClasses method.
func (m *MockObjectRepository) TopClasses(ctx context.Context, dumpUUID string, limit int) ([]*repository.ClassCount, error) {
	args := m.Called(ctx, dumpUUID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.ClassCount), args.Error(1)
}

// ExpectSaveObjects sets up an expectation for any SaveObjects call.
func (m *MockObjectRepository) ExpectSaveObjects(err error) *mock.Call {
	return m.On("SaveObjects", mock.Anything, mock.Anything, mock.Anything).Return(err)
}

// ExpectCountObjects sets up an expectation for CountObjects.
func (m *MockObjectRepository) ExpectCountObjects(dumpUUID string, count int64, err error) *mock.Call {
	return m.On("CountObjects", mock.Anything, dumpUUID).Return(count, err)
}

// ExpectTopClasses sets up an expectation for TopClasses.
func (m *MockObjectRepository) ExpectTopClasses(dumpUUID string, counts []*repository.ClassCount, err error) *mock.Call {
	return m.On("TopClasses", mock.Anything, dumpUUID, mock.Anything).Return(counts, err)
}

// MockReportRepository is a mock implementation of the ReportRepository interface.
type MockReportRepository struct {
	mock.Mock
}

// SaveReport mocks the SaveReport method.
func (m *MockReportRepository) SaveReport(ctx context.Context, report *repository.ScanReportModel) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

// GetReport mocks the GetReport method.
func (m *MockReportRepository) GetReport(ctx context.Context, dumpUUID string) (*repository.ScanReportModel, error) {
	args := m.Called(ctx, dumpUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ScanReportModel), args.Error(1)
}

// ExpectSaveReport sets up an expectation for any SaveReport call.
func (m *MockReportRepository) ExpectSaveReport(err error) *mock.Call {
	return m.On("SaveReport", mock.Anything, mock.Anything).Return(err)
}

// ExpectGetReport sets up an expectation for GetReport.
func (m *MockReportRepository) ExpectGetReport(dumpUUID string, report *repository.ScanReportModel, err error) *mock.Call {
	return m.On("GetReport", mock.Anything, dumpUUID).Return(report, err)
}

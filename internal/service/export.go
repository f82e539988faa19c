// Package service wires storage, scanning and persistence into the dump
// export workflow.
package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hprof-analysis/internal/hprof"
	"github.com/hprof-analysis/internal/repository"
	"github.com/hprof-analysis/internal/sink"
	"github.com/hprof-analysis/internal/storage"
	"github.com/hprof-analysis/pkg/compression"
	"github.com/hprof-analysis/pkg/config"
	"github.com/hprof-analysis/pkg/parallel"
	"github.com/hprof-analysis/pkg/utils"
	"github.com/hprof-analysis/pkg/writer"
)

// ExportService exports heap dumps from object storage into the database.
type ExportService struct {
	config  *config.Config
	logger  utils.Logger
	db      *repository.Repositories
	storage storage.Storage
}

// ExportResult summarizes one exported dump.
type ExportResult struct {
	DumpUUID string            `json:"dump_uuid"`
	Objects  int64             `json:"objects"`
	Report   *hprof.ScanReport `json:"report"`
}

// ExportOutcome pairs a dump with its export result or failure.
type ExportOutcome struct {
	DumpUUID string
	Result   *ExportResult
	Err      error
}

// New creates a new ExportService instance.
func New(cfg *config.Config, logger utils.Logger) (*ExportService, error) {
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, os.Stderr)
	}

	return &ExportService{
		config: cfg,
		logger: logger,
	}, nil
}

// Initialize initializes all service components.
func (s *ExportService) Initialize(ctx context.Context) error {
	s.logger.Info("Initializing export service...")

	if err := s.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := s.initStorage(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	s.logger.Info("Export service initialized")
	return nil
}

// initDatabase initializes the database connection and repositories.
func (s *ExportService) initDatabase() error {
	s.logger.Info("Connecting to database (%s)...", s.config.Database.Type)

	dbConfig := &repository.DBConfig{
		Type:     s.config.Database.Type,
		Path:     s.config.Database.Path,
		Host:     s.config.Database.Host,
		Port:     s.config.Database.Port,
		Database: s.config.Database.Database,
		User:     s.config.Database.User,
		Password: s.config.Database.Password,
		MaxConns: s.config.Database.MaxConns,
	}

	gormDB, err := repository.NewGormDB(dbConfig)
	if err != nil {
		return err
	}

	if err := repository.Migrate(gormDB); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	s.db = repository.NewRepositories(gormDB, s.config.Database.Type)
	s.logger.Info("Database connection established")

	return nil
}

// initStorage initializes the object storage.
func (s *ExportService) initStorage() error {
	s.logger.Info("Initializing storage (%s)...", s.config.Storage.Type)

	store, err := storage.NewStorage(&s.config.Storage)
	if err != nil {
		return err
	}

	s.storage = store
	s.logger.Info("Storage initialized")

	return nil
}

// ExportDump fetches one dump, scans it, and persists the object graph and
// scan report. The report is also archived back to storage as compressed
// JSON.
func (s *ExportService) ExportDump(ctx context.Context, dumpUUID string) (*ExportResult, error) {
	ctx, span := otel.Tracer("hprof-exporter").Start(ctx, "export_dump")
	span.SetAttributes(attribute.String("dump.uuid", dumpUUID))
	defer span.End()

	key := storage.DumpKey(dumpUUID)
	s.logger.Info("Exporting dump %s from %s", dumpUUID, key)

	reader, err := storage.OpenDump(ctx, s.storage, key)
	if err != nil {
		return nil, fmt.Errorf("failed to open dump %s: %w", dumpUUID, err)
	}
	defer reader.Close()

	emitter := sink.NewColumnarEmitter(ctx, s.db.Objects, dumpUUID, s.config.Decode.BatchSize)
	scanner := hprof.NewScanner(emitter, &hprof.ScannerOptions{
		Logger:           s.logger,
		ProgressInterval: s.config.Decode.ProgressInterval,
	})

	report, err := scanner.Scan(ctx, reader)
	if err != nil {
		return nil, fmt.Errorf("scan of dump %s failed: %w", dumpUUID, err)
	}

	if err := emitter.Flush(); err != nil {
		return nil, fmt.Errorf("failed to persist objects for dump %s: %w", dumpUUID, err)
	}

	if err := s.db.Reports.SaveReport(ctx, repository.NewReportRow(dumpUUID, report)); err != nil {
		return nil, fmt.Errorf("failed to save report for dump %s: %w", dumpUUID, err)
	}

	if err := s.archiveReport(ctx, dumpUUID, report); err != nil {
		// the database is the source of truth; archival failure is logged only
		s.logger.Error("Failed to archive report for dump %s: %v", dumpUUID, err)
	}

	s.logger.Info("Exported dump %s: %d objects, %d recoverable errors",
		dumpUUID, emitter.Written(), report.Errors.Total)

	return &ExportResult{
		DumpUUID: dumpUUID,
		Objects:  emitter.Written(),
		Report:   report,
	}, nil
}

// ExportDumps exports several dumps in parallel. Each dump gets its own
// scanner; the worker count comes from configuration.
func (s *ExportService) ExportDumps(ctx context.Context, dumpUUIDs []string) []ExportOutcome {
	poolConfig := parallel.DefaultPoolConfig().WithWorkers(s.config.Decode.MaxWorkers)
	pool := parallel.NewWorkerPool[string, *ExportResult](poolConfig)

	tracker := parallel.NewProgressTracker(int64(len(dumpUUIDs)), func(done, total int64) {
		s.logger.Info("Export progress: %d/%d dumps", done, total)
	}, 5*time.Second)
	tracker.Start(ctx)
	defer tracker.Stop()

	results := pool.ExecuteFunc(ctx, dumpUUIDs, func(ctx context.Context, dumpUUID string) (*ExportResult, error) {
		defer tracker.Increment()
		return s.ExportDump(ctx, dumpUUID)
	})

	outcomes := make([]ExportOutcome, len(results))
	for i, r := range results {
		outcomes[i] = ExportOutcome{
			DumpUUID: r.Input,
			Result:   r.Result,
			Err:      r.Error,
		}
	}
	return outcomes
}

// archiveReport uploads the scan report as compressed JSON next to the
// dump. The algorithm comes from storage.report_compression; the key
// extension follows it so archived reports are self-describing.
func (s *ExportService) archiveReport(ctx context.Context, dumpUUID string, report *hprof.ScanReport) error {
	compType, err := compression.ParseType(s.config.Storage.ReportCompression)
	if err != nil {
		return err
	}
	comp, err := compression.New(compType, compression.LevelDefault)
	if err != nil {
		return err
	}
	defer compression.Close(comp)

	var buf bytes.Buffer
	w := writer.NewCompressedJSONWriter[*hprof.ScanReport](comp)
	if err := w.Write(report, &buf); err != nil {
		return err
	}
	return s.storage.Upload(ctx, storage.ReportKey(dumpUUID, compType.Ext()), &buf)
}

// Repositories exposes the repository layer once initialized.
func (s *ExportService) Repositories() *repository.Repositories {
	return s.db
}

// HealthCheck performs a health check on the service.
func (s *ExportService) HealthCheck(ctx context.Context) error {
	if s.db != nil {
		if err := s.db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database health check failed: %w", err)
		}
	}
	return nil
}

// Close releases the database connection.
func (s *ExportService) Close() error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	return nil
}

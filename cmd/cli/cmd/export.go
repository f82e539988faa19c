package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hprof-analysis/internal/service"
	apperrors "github.com/hprof-analysis/pkg/errors"
	"github.com/hprof-analysis/pkg/telemetry"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <dump-uuid>...",
	Short: "Export heap dumps from storage into the database",
	Long: `Export fetches heap dumps from the configured object storage, scans
them, and persists the resolved object graph and a scan report into the
configured database. Several dumps are exported in parallel, one
scanner per dump.

Dumps are read from <storage>/dumps/<uuid>.hprof; the scan report is
archived back to <storage>/reports/<uuid>.json.gz.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	binName := BinName()
	exportCmd.Example = `  # Export one dump using the default config lookup
  ` + binName + ` export dump-uuid-1

  # Export several dumps with an explicit config
  ` + binName + ` export --config ./configs/config.yaml dump-uuid-1 dump-uuid-2`
}

func runExport(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	cfg, err := loadConfig()
	if err != nil {
		return apperrors.Wrap(apperrors.CodeConfigError, "failed to load config", err)
	}

	svc, err := service.New(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Init(ctx)
	if err != nil {
		log.Warn("failed to initialize telemetry: %v", err)
	} else {
		defer shutdown(context.Background())
	}

	if err := svc.Initialize(ctx); err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "failed to initialize export service", err)
	}
	defer svc.Close()

	outcomes := svc.ExportDumps(ctx, args)

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			log.Error("export of %s failed: %v", o.DumpUUID, o.Err)
			continue
		}
		log.Info("exported %s: %d objects, %d recoverable errors",
			o.DumpUUID, o.Result.Objects, o.Result.Report.Errors.Total)
	}

	if failed > 0 {
		return apperrors.New(apperrors.CodeDecodeError,
			"some dumps failed to export, see log for details")
	}
	return nil
}

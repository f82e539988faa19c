package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hprof-analysis/internal/hprof"
	"github.com/hprof-analysis/internal/sink"
)

// countCmd represents the count command
var countCmd = &cobra.Command{
	Use:   "count <file>",
	Short: "Count records per tag",
	Long: `Count decodes a heap dump and prints a table of record counts per
top-level tag, sorted by count. Unknown tags are listed under their hex
form and counted like any other record.`,
	Args: cobra.ExactArgs(1),
	RunE: runCount,
}

func init() {
	rootCmd.AddCommand(countCmd)

	binName := BinName()
	countCmd.Example = `  # Count records of a plain dump
  ` + binName + ` count ./heap.hprof

  # Compressed dumps work the same way
  ` + binName + ` count ./heap.hprof.gz`
}

func runCount(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	in, err := openInput(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	counter := sink.NewRecordCounter()
	scanner := hprof.NewScanner(counter, scannerOptions(log))

	report, err := scanner.Scan(context.Background(), in.reader)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if report.Header != nil {
		log.Debug("format %s, id size %d", report.Header.Format, report.Header.IDSize)
	}

	return counter.WriteTable(os.Stdout)
}

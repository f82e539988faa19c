package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hprof-analysis/pkg/config"
	"github.com/hprof-analysis/pkg/utils"
)

var (
	// Global flags
	verbose    bool
	configPath string
	logger     utils.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "hprof-analysis",
	Short: "A JVM heap dump analysis tool",
	Long: `hprof-analysis is a CLI tool for decoding JVM heap dumps in HPROF
binary format.

It streams top-level records, reconstructs class layouts and resolves
instance fields against them, and can dump the object graph as text,
count records per tag, or export the graph into a relational database.
Gzip and zstd compressed dumps are decompressed transparently.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Setup logger based on verbose flag
		logLevel := utils.LevelInfo
		if verbose {
			logLevel = utils.LevelDebug
		}
		logger = utils.NewDefaultLogger(logLevel, os.Stderr)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path")

	// Set dynamic example using actual binary name
	binName := BinName()
	rootCmd.Example = `  # Dump every object of a heap dump as text
  ` + binName + ` dump ./heap.hprof

  # Dump only application classes, skipping the JDK
  ` + binName + ` dump ./heap.hprof --skip-jdk

  # Count records per tag
  ` + binName + ` count ./heap.hprof.gz

  # Export dumps from storage into the database
  ` + binName + ` export --config ./configs/config.yaml dump-uuid-1 dump-uuid-2`
}

// GetLogger returns the configured logger
func GetLogger() utils.Logger {
	return logger
}

// BinName returns the base name of the current executable
func BinName() string {
	return filepath.Base(os.Args[0])
}

// loadConfig loads the configuration from the --config flag or defaults.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

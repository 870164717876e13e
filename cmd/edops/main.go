// Package main implements edops, the operational CLI for the GitHub-backed
// editorial workflow. Each subcommand replaces one of the original standalone
// maintenance scripts: claim, check-timeouts, check-active, cleanup, and
// validate-images.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"edops/internal/config"
	"edops/internal/metadata"
	"edops/internal/review"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "edops",
	Short: "Operational tools for the editorial submission workflow",
	Long: `edops maintains the JSON metadata store behind the editorial workflow:
submissions partitioned by year-month, per-user records, and the username
index. It claims review slots, releases timed-out claims, checks for active
submissions, deletes submissions (including their PR and branch), and
validates the images referenced by a manuscript.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// newEngine wires the review engine over the configured metadata tree.
func newEngine() *review.Engine {
	return review.NewEngine(metadata.NewFileStore(cfg.Metadata.Dir), logger)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "edops.yaml", "Path to config file")

	rootCmd.AddCommand(claimCmd)
	rootCmd.AddCommand(checkTimeoutsCmd)
	rootCmd.AddCommand(checkActiveCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(validateImagesCmd)
}

func main() {
	// Local .env supplies GITHUB_TOKEN during development; absence is fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("✗ Error: "+err.Error()))
		os.Exit(1)
	}
}

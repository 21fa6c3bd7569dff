package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/catlens/internal/config"
	"github.com/KaramelBytes/catlens/internal/logging"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	logFormat string

	// Loaded configuration and the logger for the running command
	cfg    *cfgpkg.Global
	logger = logging.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "catlens",
	Short: "CatLens: per-category profiling and priority reordering of CSV tables",
	Long: `CatLens profiles a tabular dataset one category at a time (summary
statistics, correlations, z-score outliers and plots) and reorders a second
dataset by a configurable category priority table.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.catlens/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log encoding: console | json (overrides config)")
}

func setup(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	format := cfg.LogFormat
	if cmd.Flags().Changed("log-format") {
		format = logFormat
	}
	l, err := logging.New(debug, format)
	if err != nil {
		return err
	}
	logger = l.With(zap.String("run_id", uuid.NewString()), zap.String("command", cmd.Name()))
	return nil
}

// loadConfig reads the configuration. An explicit --config must load; the
// default file is optional and a broken one falls back to the defaults.
func loadConfig() error {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		if cfgFile != "" {
			return err
		}
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Default()
	}
	cfg = c
	return nil
}

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/heartrate-fan/internal/config"
	"github.com/oshokin/heartrate-fan/internal/service/servotest"
	"github.com/oshokin/heartrate-fan/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// dryRun replaces the hardware with logging stubs.
	dryRun bool

	// rootCmd represents the base command for the interactive bench test.
	rootCmd = &cobra.Command{
		Use:   "fan-servo-test",
		Short: "Exercise the fan servo and display interactively.",
		Long: `Interactive bench utility for the heart rate fan hardware.

Moves the servo to raw positions or to the position a given heart rate maps to,
and can sweep the whole heart-rate band. The display mirrors the reading each
position corresponds to, so wiring and calibration can be checked end to end
without the ring.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			testOptions := &servotest.Options{
				ConfigPath: configPath,
				DryRun:     dryRun,
			}

			return servotest.Run(ctx, testOptions)
		},
	}
)

// Execute runs the fan-servo-test CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "log hardware commands instead of executing them")
}

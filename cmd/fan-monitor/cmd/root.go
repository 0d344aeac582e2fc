package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/heartrate-fan/internal/config"
	"github.com/oshokin/heartrate-fan/internal/logger"
	"github.com/oshokin/heartrate-fan/internal/service/monitor"
	"github.com/oshokin/heartrate-fan/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// logLevel sets the logging verbosity.
	logLevel string
	// dryRun replaces the hardware with logging stubs.
	dryRun bool

	// rootCmd represents the base command for running the fan monitor.
	rootCmd = &cobra.Command{
		Use:   "fan-monitor [device-address]",
		Short: "Drive a fan from heart rate readings.",
		Long: `Background service that polls a Colmi R02 smart ring for heart rate readings
and drives an SG90 servo controlling the fan speed, with status on a TM1637 display.

The ring is polled through the external colmi_r02_client command under a bounded
timeout. Readings map linearly from the configured heart-rate band onto the servo
range; small fluctuations stay inside a dead-band so the servo does not jitter.
Consecutive polling failures escalate into a Bluetooth adapter power-cycle.
Device address can be provided as argument or loaded from configuration file.

Runs until interrupted; the servo is always parked and released on exit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			// Use device address argument if provided, otherwise rely on config.
			var deviceAddress string
			if len(args) > 0 {
				deviceAddress = args[0]
			}

			monitorOptions := &monitor.Options{
				ConfigPath:    configPath,
				DeviceAddress: deviceAddress,
				DryRun:        dryRun,
			}

			return monitor.Run(ctx, monitorOptions)
		},
	}
)

// Execute runs the fan-monitor CLI and exits with non-zero status on error.
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
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "info", "logging level (debug, info, warn, error)")

	// Hidden dry-run flag for debugging without a Raspberry Pi.
	rootCmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "log hardware commands instead of executing them")

	err := rootCmd.Flags().MarkHidden("dry-run")
	if err != nil {
		panic(err)
	}
}

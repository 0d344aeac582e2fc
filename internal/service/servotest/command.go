package servotest

import (
	"context"
	"fmt"
	"os"

	"github.com/oshokin/heartrate-fan/internal/config"
	"github.com/oshokin/heartrate-fan/internal/hardware"
	"github.com/oshokin/heartrate-fan/internal/logger"
)

// Options controls the bench utility.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// DryRun replaces the hardware with logging stubs.
	DryRun bool
}

// Run executes an interactive bench session on stdin/stdout.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "fan-servo-test")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	actuator, display, cleanup, err := openHardware(ctx, cfg, opts.DryRun)
	if err != nil {
		return err
	}
	defer cleanup()

	return newSession(cfg, actuator, display, os.Stdin, os.Stdout).run(ctx)
}

// openHardware acquires the servo and display, or logging stubs in dry-run
// mode. A failed display leaves the session servo-only.
func openHardware(ctx context.Context, cfg *config.Config, dryRun bool) (Actuator, Display, func(), error) {
	if dryRun {
		stub := &loggedHardware{ctx: ctx}

		return stub, stub, func() {}, nil
	}

	pi, err := hardware.Open()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open hardware: %w", err)
	}

	cleanup := func() {
		if closeErr := pi.Close(); closeErr != nil {
			logger.ErrorKV(ctx, "Failed to close hardware handle", "error", closeErr)
		}
	}

	actuator := hardware.NewServo(pi, cfg.ServoPin)

	var display Display

	d, err := hardware.NewDisplay(pi, cfg.DisplayCLKPin, cfg.DisplayDIOPin, hardware.DefaultBrightness)
	if err != nil {
		logger.WarnKV(ctx, "Display initialization failed", "error", err)
	} else {
		display = d
	}

	return actuator, display, cleanup, nil
}

// loggedHardware stands in for both peripherals in dry-run mode.
type loggedHardware struct {
	ctx context.Context
}

func (h *loggedHardware) Set(position float64) error {
	logger.InfoKV(h.ctx, "Dry run: servo move", "position", position)

	return nil
}

func (h *loggedHardware) Rest() error {
	logger.Info(h.ctx, "Dry run: servo to rest position")

	return nil
}

func (h *loggedHardware) Release() error {
	logger.Info(h.ctx, "Dry run: servo released")

	return nil
}

func (h *loggedHardware) Show(token string) error {
	logger.InfoKV(h.ctx, "Dry run: display", "token", token)

	return nil
}

package monitor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/heartrate-fan/internal/bluetooth"
	"github.com/oshokin/heartrate-fan/internal/config"
	"github.com/oshokin/heartrate-fan/internal/hardware"
	"github.com/oshokin/heartrate-fan/internal/logger"
	"github.com/oshokin/heartrate-fan/internal/sensor"
)

// Options controls the fan-monitor process and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// DeviceAddress provides an optional ring address override.
	DeviceAddress string
	// DryRun replaces the hardware with logging stubs for debugging
	// without a Raspberry Pi.
	DryRun bool
}

// errAlreadyRunning indicates another monitor owns the hardware.
var errAlreadyRunning = errors.New("the fan monitor is already running")

// Run starts the monitoring loop and blocks until the context is canceled.
// Loads configuration first, then claims the hardware exclusively.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "fan-monitor")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	// Determine ring address: command line argument overrides config.
	if opts.DeviceAddress != "" {
		cfg.DeviceAddress = opts.DeviceAddress
		if err = config.Validate(cfg); err != nil {
			return err
		}
	}

	// The servo and display are exclusively owned for the process
	// lifetime, so a second monitor instance must not start.
	if err = ensureSingleInstance(); err != nil {
		return err
	}

	source := sensor.NewClient(cfg)
	resetter := bluetooth.NewAdapterResetter(cfg.AdapterName)

	actuator, display, cleanup, err := openHardware(ctx, cfg, opts.DryRun)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.InfoKV(ctx, "Monitoring heart rate",
		"device_address", cfg.DeviceAddress,
		"interval", cfg.UpdateInterval.String(),
		"dry_run", opts.DryRun)

	controller := NewController(cfg, source, actuator, display, resetter)

	return controller.Run(ctx)
}

// openHardware acquires the servo and display, or logging stubs in dry-run
// mode. A failed display is logged and left nil; the monitor runs without it.
func openHardware(ctx context.Context, cfg *config.Config, dryRun bool) (Actuator, Display, func(), error) {
	if dryRun {
		return &loggedActuator{ctx: ctx}, &loggedDisplay{ctx: ctx}, func() {}, nil
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
		// The display is optional; the monitor degrades to servo-only.
		logger.WarnKV(ctx, "Display initialization failed", "error", err)
	} else {
		display = d
	}

	return actuator, display, cleanup, nil
}

// ensureSingleInstance refuses to start when another process with this
// executable name is already running.
func ensureSingleInstance() error {
	executable := filepath.Base(os.Args[0])

	processList, err := ps.Processes()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() == executable {
			return errAlreadyRunning
		}
	}

	return nil
}

// loggedActuator stands in for the servo in dry-run mode.
type loggedActuator struct {
	ctx context.Context
}

func (a *loggedActuator) Set(position float64) error {
	logger.InfoKV(a.ctx, "Dry run: servo move", "position", position)

	return nil
}

func (a *loggedActuator) Rest() error {
	logger.Info(a.ctx, "Dry run: servo to rest position")

	return nil
}

func (a *loggedActuator) Release() error {
	logger.Info(a.ctx, "Dry run: servo released")

	return nil
}

// loggedDisplay stands in for the TM1637 in dry-run mode.
type loggedDisplay struct {
	ctx context.Context
}

func (d *loggedDisplay) Show(token string) error {
	logger.InfoKV(d.ctx, "Dry run: display", "token", token)

	return nil
}

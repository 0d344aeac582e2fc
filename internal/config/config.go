package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds hardware wiring and monitoring parameters for the fan binaries.
type Config struct {
	// DeviceAddress is the Bluetooth MAC address of the heart-rate ring.
	DeviceAddress string `yaml:"device_address"`
	// AdapterName is the Bluetooth adapter to power-cycle on escalation.
	AdapterName string `yaml:"adapter_name"`
	// SensorCommand is the external client executable used to poll readings.
	SensorCommand string `yaml:"sensor_command"`
	// ServoPin is the BCM number of the servo signal pin (PWM0 capable).
	ServoPin uint8 `yaml:"servo_pin"`
	// DisplayCLKPin is the BCM number of the TM1637 clock pin.
	DisplayCLKPin uint8 `yaml:"display_clk_pin"`
	// DisplayDIOPin is the BCM number of the TM1637 data pin.
	DisplayDIOPin uint8 `yaml:"display_dio_pin"`
	// UpdateInterval is the pause between successful polling cycles.
	UpdateInterval time.Duration `yaml:"update_interval"`
	// PollTimeout bounds a single sensor client invocation.
	PollTimeout time.Duration `yaml:"poll_timeout"`
	// FailureThreshold is the consecutive-failure count that triggers
	// a Bluetooth adapter reset.
	FailureThreshold int `yaml:"failure_threshold"`
	// MinHeartRate is the lower bound of the mapped heart-rate band, BPM.
	MinHeartRate float64 `yaml:"min_heart_rate"`
	// MaxHeartRate is the upper bound of the mapped heart-rate band, BPM.
	MaxHeartRate float64 `yaml:"max_heart_rate"`
	// DeadBand is the minimum servo position delta that triggers a move.
	DeadBand float64 `yaml:"dead_band"`
}

const (
	// DefaultConfigFilename is the default filename for fan settings.
	DefaultConfigFilename = "heartrate-fan-settings.yaml"

	// DefaultAdapterName is the Bluetooth adapter reset by escalation.
	DefaultAdapterName = "hci0"

	// DefaultSensorCommand is the external heart-rate client executable.
	DefaultSensorCommand = "colmi_r02_client"

	// DefaultServoPin is BCM 18, the PWM0 pin on the 40-pin header.
	DefaultServoPin uint8 = 18

	// DefaultDisplayCLKPin is BCM 17.
	DefaultDisplayCLKPin uint8 = 17

	// DefaultDisplayDIOPin is BCM 27.
	DefaultDisplayDIOPin uint8 = 27

	// DefaultUpdateInterval is the pause between successful cycles.
	DefaultUpdateInterval = 90 * time.Second

	// DefaultPollTimeout bounds one sensor client invocation.
	DefaultPollTimeout = 60 * time.Second

	// DefaultFailureThreshold triggers an adapter reset on the second
	// consecutive failure.
	DefaultFailureThreshold = 2

	// DefaultMinHeartRate maps to the servo's lowest position.
	DefaultMinHeartRate = 80

	// DefaultMaxHeartRate maps to the servo's highest position.
	DefaultMaxHeartRate = 150

	// DefaultDeadBand suppresses servo moves smaller than this delta.
	DefaultDeadBand = 0.1

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// maxBCMPin is the highest usable BCM pin number on the 40-pin header.
	maxBCMPin = 27
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errDeviceAddressRequired is returned when the ring address is missing.
	errDeviceAddressRequired = errors.New("device address must be provided")
	// errHeartRateBandInvalid is returned when the band is empty or reversed.
	errHeartRateBandInvalid = errors.New("min heart rate must be below max heart rate")
	// errDeadBandNegative is returned when the dead-band is below zero.
	errDeadBandNegative = errors.New("dead band must not be negative")
	// errPinsNotDistinct is returned when two roles share one pin.
	errPinsNotDistinct = errors.New("servo and display pins must be distinct")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills defaults.
//
//nolint:cyclop // Field-by-field validation reads best as a flat sequence.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.DeviceAddress == "" {
		return errDeviceAddressRequired
	}

	if _, err := net.ParseMAC(cfg.DeviceAddress); err != nil {
		return fmt.Errorf("invalid device address: %w", err)
	}

	if cfg.AdapterName == "" {
		cfg.AdapterName = DefaultAdapterName
	}

	if cfg.SensorCommand == "" {
		cfg.SensorCommand = DefaultSensorCommand
	}

	if cfg.ServoPin == 0 {
		cfg.ServoPin = DefaultServoPin
	}

	if cfg.DisplayCLKPin == 0 {
		cfg.DisplayCLKPin = DefaultDisplayCLKPin
	}

	if cfg.DisplayDIOPin == 0 {
		cfg.DisplayDIOPin = DefaultDisplayDIOPin
	}

	if err := validatePins(cfg); err != nil {
		return err
	}

	if cfg.UpdateInterval <= 0 {
		cfg.UpdateInterval = DefaultUpdateInterval
	}

	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = DefaultPollTimeout
	}

	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultFailureThreshold
	}

	if cfg.MinHeartRate == 0 {
		cfg.MinHeartRate = DefaultMinHeartRate
	}

	if cfg.MaxHeartRate == 0 {
		cfg.MaxHeartRate = DefaultMaxHeartRate
	}

	if cfg.MinHeartRate >= cfg.MaxHeartRate {
		return errHeartRateBandInvalid
	}

	if cfg.DeadBand < 0 {
		return errDeadBandNegative
	}

	if cfg.DeadBand == 0 {
		cfg.DeadBand = DefaultDeadBand
	}

	return nil
}

// validatePins checks pin numbers are on the header and do not collide.
func validatePins(cfg *Config) error {
	pins := []uint8{cfg.ServoPin, cfg.DisplayCLKPin, cfg.DisplayDIOPin}

	seen := make(map[uint8]struct{}, len(pins))

	for _, pin := range pins {
		if pin > maxBCMPin {
			return fmt.Errorf("pin %d is outside the BCM header range", pin)
		}

		if _, ok := seen[pin]; ok {
			return errPinsNotDistinct
		}

		seen[pin] = struct{}{}
	}

	return nil
}

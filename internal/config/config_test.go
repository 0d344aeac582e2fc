package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields and format validations for Config.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing address.
	cfg := new(Config)

	err := Validate(cfg)
	require.Error(t, err)

	// Bad address.
	cfg = &Config{
		DeviceAddress: "not-a-mac",
	}

	err = Validate(cfg)
	require.Error(t, err)

	// Reversed heart-rate band.
	cfg = &Config{
		DeviceAddress: "5B:62:EE:DA:AD:40",
		MinHeartRate:  150,
		MaxHeartRate:  80,
	}

	err = Validate(cfg)
	require.Error(t, err)

	// Colliding pins.
	cfg = &Config{
		DeviceAddress: "5B:62:EE:DA:AD:40",
		ServoPin:      17,
		DisplayCLKPin: 17,
	}

	err = Validate(cfg)
	require.Error(t, err)
}

// TestValidate_Defaults ensures every omitted field receives its default.
func TestValidate_Defaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		DeviceAddress: "5B:62:EE:DA:AD:40",
	}

	require.NoError(t, Validate(cfg))

	require.Equal(t, DefaultAdapterName, cfg.AdapterName)
	require.Equal(t, DefaultSensorCommand, cfg.SensorCommand)
	require.Equal(t, DefaultServoPin, cfg.ServoPin)
	require.Equal(t, DefaultDisplayCLKPin, cfg.DisplayCLKPin)
	require.Equal(t, DefaultDisplayDIOPin, cfg.DisplayDIOPin)
	require.Equal(t, DefaultUpdateInterval, cfg.UpdateInterval)
	require.Equal(t, DefaultPollTimeout, cfg.PollTimeout)
	require.Equal(t, DefaultFailureThreshold, cfg.FailureThreshold)
	require.InEpsilon(t, float64(DefaultMinHeartRate), cfg.MinHeartRate, 1e-9)
	require.InEpsilon(t, float64(DefaultMaxHeartRate), cfg.MaxHeartRate, 1e-9)
	require.InEpsilon(t, DefaultDeadBand, cfg.DeadBand, 1e-9)
}

// TestValidate_PartialHeartRateBand ensures a half-specified band gets the
// other bound defaulted instead of silently collapsing to zero.
func TestValidate_PartialHeartRateBand(t *testing.T) {
	t.Parallel()

	// Only the upper bound set.
	cfg := &Config{
		DeviceAddress: "5B:62:EE:DA:AD:40",
		MaxHeartRate:  150,
	}

	require.NoError(t, Validate(cfg))
	require.InEpsilon(t, float64(DefaultMinHeartRate), cfg.MinHeartRate, 1e-9)

	// Only the lower bound set.
	cfg = &Config{
		DeviceAddress: "5B:62:EE:DA:AD:40",
		MinHeartRate:  90,
	}

	require.NoError(t, Validate(cfg))
	require.InEpsilon(t, float64(DefaultMaxHeartRate), cfg.MaxHeartRate, 1e-9)

	// A lower bound above the defaulted upper bound is rejected.
	cfg = &Config{
		DeviceAddress: "5B:62:EE:DA:AD:40",
		MinHeartRate:  160,
	}

	require.Error(t, Validate(cfg))
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	cfg := &Config{
		DeviceAddress:  "5B:62:EE:DA:AD:40",
		AdapterName:    "hci1",
		UpdateInterval: 30 * time.Second,
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.DeviceAddress, loaded.DeviceAddress)
	require.Equal(t, "hci1", loaded.AdapterName)
	require.Equal(t, 30*time.Second, loaded.UpdateInterval)

	// Defaults filled on load.
	require.Equal(t, DefaultSensorCommand, loaded.SensorCommand)
}

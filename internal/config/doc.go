// Package config defines hardware wiring and monitoring settings used by the
// fan binaries and provides helpers to load, validate and save them in YAML
// format.
//
// The Config type holds the ring's Bluetooth address, GPIO pin assignments
// and the timing/threshold knobs of the monitor loop. Validate fills
// defaults for every omitted field, so a minimal settings file only needs
// the device address.
package config

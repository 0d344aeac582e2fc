package sensor

import (
	"fmt"
	"strings"
)

// Reason identifies the recoverable condition behind a failed poll.
// All reasons are handled identically by the monitor loop; they exist so the
// logs tell an unreachable ring apart from a sick adapter.
type Reason int

const (
	// ReasonUnknown covers non-zero exits and unparseable output.
	ReasonUnknown Reason = iota
	// ReasonDeviceNotFound means the ring was not discovered.
	ReasonDeviceNotFound
	// ReasonConnectionLost means the Bluetooth connection dropped mid-read.
	ReasonConnectionLost
	// ReasonReadTimeout means the client gave up waiting for the ring.
	ReasonReadTimeout
	// ReasonTimeout means the client invocation exceeded its own deadline.
	ReasonTimeout
)

// String returns a short log-friendly name for the reason.
func (r Reason) String() string {
	switch r {
	case ReasonDeviceNotFound:
		return "device not found"
	case ReasonConnectionLost:
		return "connection lost"
	case ReasonReadTimeout:
		return "read timeout"
	case ReasonTimeout:
		return "invocation timeout"
	case ReasonUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// ClassifiedError reports a failed poll together with its recoverable reason.
type ClassifiedError struct {
	// Reason is the recoverable condition category.
	Reason Reason
	// Detail carries the client's stderr or the underlying error text.
	Detail string
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("poll failed: %s", e.Reason)
	}

	return fmt.Sprintf("poll failed: %s: %s", e.Reason, e.Detail)
}

// Error signatures printed by the Python Bluetooth client on stderr.
const (
	markerDeviceNotFound = "BleakDeviceNotFoundError"
	markerConnectionLost = "BleakError: Not connected"
	markerReadTimeout    = "TimeoutError"
)

// classify maps the client's stderr onto a recoverable reason.
func classify(stderr string) *ClassifiedError {
	detail := strings.TrimSpace(stderr)

	reason := ReasonUnknown

	switch {
	case strings.Contains(stderr, markerDeviceNotFound):
		reason = ReasonDeviceNotFound
	case strings.Contains(stderr, markerConnectionLost):
		reason = ReasonConnectionLost
	case strings.Contains(stderr, markerReadTimeout):
		reason = ReasonReadTimeout
	}

	return &ClassifiedError{
		Reason: reason,
		Detail: detail,
	}
}

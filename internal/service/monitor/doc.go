// Package monitor contains the fan controller's core loop: it polls the
// ring for a heart-rate reading, maps it onto a servo position, reflects
// status on the display and escalates persistent transport failures into a
// Bluetooth adapter reset.
//
// All loop state (failure counter, connection state, current position) is
// owned by a single Controller and mutated on one goroutine. The loop never
// terminates because of a single cycle's error; only context cancellation
// stops it, after which the servo is parked and released on every exit path.
package monitor

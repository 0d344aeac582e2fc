// Package heartrate holds the pure domain logic of the fan controller: the
// linear heart-rate to servo-position mapping with its algebraic inverse,
// and the formatting of readings into fixed-width display tokens.
//
// Nothing here performs I/O; all hardware effects live in the drivers and
// the monitor service.
package heartrate

// Package servotest implements the interactive bench utility for the fan
// hardware. An operator drives the servo to raw positions or heart-rate
// equivalents, or sweeps the whole band, while the display mirrors the
// reading each position corresponds to.
//
// The session reads commands from an io.Reader and reports to an
// io.Writer, so tests can script a whole run.
package servotest

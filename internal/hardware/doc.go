// Package hardware drives the fan controller's peripherals on a Raspberry
// Pi: the SG90 servo over hardware PWM and the TM1637 4-digit display over
// two bit-banged GPIO lines.
//
// Both drivers work against the narrow Pi interface instead of the concrete
// govattu handle, so tests run against a recording fake and the monitor
// can swap the whole layer out in dry-run mode.
package hardware

// Package bluetooth power-cycles the Bluetooth adapter to recover from
// persistent connectivity failures.
//
// The reset brings the adapter down and up through hciconfig with a settle
// delay after each step. Errors never escape as panics; the monitor loop
// only observes whether the reset worked.
package bluetooth

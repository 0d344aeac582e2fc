package hardware

import (
	"errors"
	"time"

	"github.com/hjkoskel/govattu"
)

// TM1637 command bytes.
const (
	cmdWriteData      = 0x40 // Write data with address auto-increment.
	cmdSetAddress     = 0xC0 // Start writing at the first digit.
	cmdDisplayControl = 0x88 // Display on; low bits carry brightness.
)

const (
	// DefaultBrightness matches the original controller setup (0..7 scale).
	DefaultBrightness uint8 = 3

	// displayWidth is the number of digits on the module.
	displayWidth = 4

	// maxBrightness is the highest TM1637 brightness level.
	maxBrightness uint8 = 7

	// bitDelay paces the bit-banged two-wire protocol. The TM1637 tolerates
	// clocks far below its 250 kHz limit.
	bitDelay = 5 * time.Microsecond
)

var (
	// errTokenWidth is returned when a token does not fill the display.
	errTokenWidth = errors.New("display token must be exactly 4 characters")
	// errBrightnessRange is returned for brightness levels above 7.
	errBrightnessRange = errors.New("brightness must be within 0..7")
)

// segments maps the characters used by the status tokens onto 7-segment
// patterns (bit 0 = segment A ... bit 6 = segment G). Unknown characters
// render blank.
var segments = map[byte]byte{
	' ': 0x00,
	'-': 0x40,
	'0': 0x3F,
	'1': 0x06,
	'2': 0x5B,
	'3': 0x4F,
	'4': 0x66,
	'5': 0x6D,
	'6': 0x7D,
	'7': 0x07,
	'8': 0x7F,
	'9': 0x6F,
	'A': 0x77,
	'B': 0x7C,
	'D': 0x5E,
	'E': 0x79,
	'H': 0x76,
	'I': 0x30,
	'L': 0x38,
	'N': 0x54,
	'O': 0x5C,
	'R': 0x50,
	'S': 0x6D,
	'T': 0x78,
}

// Display drives a TM1637 4-digit module over two GPIO lines.
type Display struct {
	// pi is the shared register handle.
	pi Pi
	// clk and dio are the BCM numbers of the clock and data pins.
	clk uint8
	dio uint8
	// brightness is the TM1637 brightness level, 0..7.
	brightness uint8
}

// NewDisplay configures the pins and returns a driver at the given brightness.
func NewDisplay(pi Pi, clk, dio uint8, brightness uint8) (*Display, error) {
	if brightness > maxBrightness {
		return nil, errBrightnessRange
	}

	pi.PinMode(clk, govattu.ALToutput)
	pi.PinMode(dio, govattu.ALToutput)

	// Idle state for the two-wire bus is both lines high.
	pi.PinSet(clk)
	pi.PinSet(dio)

	return &Display{
		pi:         pi,
		clk:        clk,
		dio:        dio,
		brightness: brightness,
	}, nil
}

// Show renders a fixed-width 4-character token.
func (d *Display) Show(token string) error {
	if len(token) != displayWidth {
		return errTokenWidth
	}

	var digits [displayWidth]byte
	for i := 0; i < displayWidth; i++ {
		digits[i] = segments[token[i]]
	}

	d.start()
	d.writeByte(cmdWriteData)
	d.stop()

	d.start()
	d.writeByte(cmdSetAddress)

	for _, digit := range digits {
		d.writeByte(digit)
	}

	d.stop()

	d.start()
	d.writeByte(cmdDisplayControl | d.brightness)
	d.stop()

	return nil
}

// Close blanks the display. The shared register handle stays open.
func (d *Display) Close() error {
	return d.Show("    ")
}

// start issues the two-wire start condition: DIO falls while CLK is high.
func (d *Display) start() {
	d.pi.PinSet(d.clk)
	d.pi.PinSet(d.dio)
	d.wait()
	d.pi.PinClear(d.dio)
	d.wait()
}

// stop issues the two-wire stop condition: DIO rises while CLK is high.
func (d *Display) stop() {
	d.pi.PinClear(d.clk)
	d.pi.PinClear(d.dio)
	d.wait()
	d.pi.PinSet(d.clk)
	d.wait()
	d.pi.PinSet(d.dio)
	d.wait()
}

// writeByte shifts one byte out LSB first and clocks the ack slot.
// The module's ack is not read back; the lines are write-only here.
func (d *Display) writeByte(value byte) {
	for bit := 0; bit < 8; bit++ {
		d.pi.PinClear(d.clk)

		if value&(1<<bit) != 0 {
			d.pi.PinSet(d.dio)
		} else {
			d.pi.PinClear(d.dio)
		}

		d.wait()
		d.pi.PinSet(d.clk)
		d.wait()
	}

	// Ack slot: release DIO for one clock cycle.
	d.pi.PinClear(d.clk)
	d.pi.PinSet(d.dio)
	d.wait()
	d.pi.PinSet(d.clk)
	d.wait()
	d.pi.PinClear(d.clk)
}

// wait paces the protocol.
func (d *Display) wait() {
	time.Sleep(bitDelay)
}

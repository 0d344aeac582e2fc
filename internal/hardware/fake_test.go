package hardware

import (
	"github.com/hjkoskel/govattu"
)

// fakePi records register operations for assertions. Its two-wire decoder
// reconstructs the bytes a TM1637 would latch from the pin transitions.
type fakePi struct {
	// modes records PinMode calls by pin.
	modes map[uint8]govattu.AltSetting
	// pwmClock, pwmRange and pulses record PWM configuration and commands.
	pwmClock uint32
	pwmRange uint32
	pulses   []uint32
	// closed marks the handle as released.
	closed bool

	// levels tracks current pin output levels.
	levels map[uint8]bool
	// clk and dio select the pins the two-wire decoder listens on.
	clk, dio uint8
	// bytes holds fully clocked 8-bit groups (ack bit stripped).
	bytes []byte
	// current accumulates bits of the in-flight group, LSB first.
	current uint16
	bits    int
}

func newFakePi() *fakePi {
	return &fakePi{
		modes:  make(map[uint8]govattu.AltSetting),
		levels: make(map[uint8]bool),
	}
}

// watchBus enables the two-wire decoder on the given pins.
func (f *fakePi) watchBus(clk, dio uint8) {
	f.clk = clk
	f.dio = dio
}

func (f *fakePi) PinMode(pin uint8, mode govattu.AltSetting) {
	f.modes[pin] = mode
}

func (f *fakePi) PinSet(pin uint8) {
	f.setLevel(pin, true)
}

func (f *fakePi) PinClear(pin uint8) {
	f.setLevel(pin, false)
}

func (f *fakePi) PwmSetMode(bool, bool, bool, bool) {}

func (f *fakePi) PwmSetClock(div uint32) {
	f.pwmClock = div
}

func (f *fakePi) Pwm0SetRange(r uint32) {
	f.pwmRange = r
}

func (f *fakePi) Pwm0Set(v uint32) {
	f.pulses = append(f.pulses, v)
}

func (f *fakePi) Close() error {
	f.closed = true

	return nil
}

// setLevel applies a level change and feeds the two-wire decoder.
func (f *fakePi) setLevel(pin uint8, high bool) {
	if f.clk == f.dio {
		// Decoder not armed.
		f.levels[pin] = high

		return
	}

	previous := f.levels[pin]
	f.levels[pin] = high

	if previous == high {
		return
	}

	switch pin {
	case f.dio:
		// DIO edges while CLK is high are start/stop conditions.
		if f.levels[f.clk] {
			f.current = 0
			f.bits = 0
		}
	case f.clk:
		if !high {
			return
		}

		// Sample DIO on the CLK rising edge; every ninth bit is the ack slot.
		if f.bits < 8 && f.levels[f.dio] {
			f.current |= 1 << f.bits
		}

		f.bits++
		if f.bits == 9 {
			f.bytes = append(f.bytes, byte(f.current))
			f.current = 0
			f.bits = 0
		}
	}
}

package hardware

import (
	"fmt"

	"github.com/hjkoskel/govattu"
)

// Pi is the subset of the govattu register interface the drivers need.
type Pi interface {
	// PinMode selects a pin function (input, output or an ALT mode).
	PinMode(pin uint8, mode govattu.AltSetting)
	// PinSet drives a pin high.
	PinSet(pin uint8)
	// PinClear drives a pin low.
	PinClear(pin uint8)
	// PwmSetMode enables and configures the PWM channels.
	PwmSetMode(en0, ms0, en1, ms1 bool)
	// PwmSetClock sets the PWM clock divisor.
	PwmSetClock(div uint32)
	// Pwm0SetRange sets the PWM0 frame length in clock ticks.
	Pwm0SetRange(r uint32)
	// Pwm0Set sets the PWM0 pulse width in clock ticks.
	Pwm0Set(v uint32)
	// Close releases the memory-mapped register access.
	Close() error
}

// Open memory-maps the Raspberry Pi peripheral registers.
// The returned handle is shared by all drivers and must be closed exactly
// once, after every driver released its pins.
func Open() (Pi, error) {
	hw, err := govattu.Open()
	if err != nil {
		return nil, fmt.Errorf("open gpio registers: %w", err)
	}

	return hw, nil
}

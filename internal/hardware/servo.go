package hardware

import (
	"errors"
	"math"

	"github.com/hjkoskel/govattu"

	"github.com/oshokin/heartrate-fan/internal/domain/heartrate"
)

// PWM timing for the SG90 on PWM0: a 19.2 MHz base clock divided by 19
// gives roughly 1 us per tick, so a 20000-tick frame is the servo's 20 ms
// period and the 500..2500 tick pulse spans the 0.5-2.5 ms control range.
const (
	pwmClockDivisor = 19
	pwmFrameTicks   = 20000
	minPulseTicks   = 500
	maxPulseTicks   = 2500
)

// errPositionOutOfRange is returned for positions outside [-1, 1] or NaN.
var errPositionOutOfRange = errors.New("position must be within [-1, 1]")

// Servo drives an SG90 on the hardware PWM0 channel.
type Servo struct {
	// pi is the shared register handle.
	pi Pi
	// pin is the BCM number of the signal pin.
	pin uint8
}

// NewServo configures the pin for PWM0 and parks the servo at rest.
func NewServo(pi Pi, pin uint8) *Servo {
	pi.PinMode(pin, govattu.ALT5) // ALT5 routes PWM0 to the pin.
	pi.PwmSetMode(true, true, false, false)
	pi.PwmSetClock(pwmClockDivisor)
	pi.Pwm0SetRange(pwmFrameTicks)

	s := &Servo{
		pi:  pi,
		pin: pin,
	}

	_ = s.Rest()

	return s
}

// Set commands the servo to a normalized position in [-1, 1].
func (s *Servo) Set(position float64) error {
	if math.IsNaN(position) || position < heartrate.MinPosition || position > heartrate.MaxPosition {
		return errPositionOutOfRange
	}

	s.pi.Pwm0Set(PulseTicks(position))

	return nil
}

// Rest parks the servo at the bottom of its range.
func (s *Servo) Rest() error {
	return s.Set(heartrate.MinPosition)
}

// Release stops the pulse train so the servo no longer holds torque.
// The shared register handle stays open; its owner closes it.
func (s *Servo) Release() error {
	s.pi.Pwm0Set(0)

	return nil
}

// PulseTicks converts a normalized position into a PWM0 pulse width.
// Exported for the manual servo test, which reports pulse widths to the
// operator.
func PulseTicks(position float64) uint32 {
	normalized := (position - heartrate.MinPosition) / (heartrate.MaxPosition - heartrate.MinPosition)
	ticks := minPulseTicks + normalized*(maxPulseTicks-minPulseTicks)

	return uint32(math.Round(ticks))
}

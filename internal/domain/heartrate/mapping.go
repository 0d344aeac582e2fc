package heartrate

import (
	"errors"
	"math"
)

const (
	// MinPosition is the servo command for the bottom of the heart-rate band.
	MinPosition = -1.0
	// MaxPosition is the servo command for the top of the heart-rate band.
	MaxPosition = 1.0
)

// errNotANumber is returned when a NaN sneaks into a conversion.
var errNotANumber = errors.New("value is not a number")

// Mapper converts heart-rate readings into normalized servo positions.
// The conversion is linear over the [MinRate, MaxRate] band; readings outside
// the band saturate at the nearest position instead of failing.
type Mapper struct {
	// MinRate is the heart rate mapped to MinPosition, BPM.
	MinRate float64
	// MaxRate is the heart rate mapped to MaxPosition, BPM.
	MaxRate float64
}

// NewMapper creates a mapper over the provided heart-rate band.
func NewMapper(minRate, maxRate float64) *Mapper {
	return &Mapper{
		MinRate: minRate,
		MaxRate: maxRate,
	}
}

// Position converts a heart rate into a servo position in [MinPosition, MaxPosition].
// The rate is clamped to the band before normalization, so the result is
// monotone in the rate and exact at the band edges.
func (m *Mapper) Position(rate float64) (float64, error) {
	if math.IsNaN(rate) {
		return 0, errNotANumber
	}

	clamped := math.Min(m.MaxRate, math.Max(m.MinRate, rate))
	normalized := (clamped - m.MinRate) / (m.MaxRate - m.MinRate)

	return MinPosition + normalized*(MaxPosition-MinPosition), nil
}

// Rate is the exact algebraic inverse of Position over [MinPosition, MaxPosition].
// It is used by the manual servo test to show which heart rate a position
// corresponds to; the monitor loop never needs it.
func (m *Mapper) Rate(position float64) (float64, error) {
	if math.IsNaN(position) {
		return 0, errNotANumber
	}

	normalized := (position - MinPosition) / (MaxPosition - MinPosition)

	return m.MinRate + normalized*(m.MaxRate-m.MinRate), nil
}

package heartrate

import "fmt"

// Display tokens are fixed-width 4-character strings rendered on the
// TM1637. Lifecycle tokens mark milestones; DisplayToken picks the right
// token for a reading.
const (
	// TokenNoReading is shown before the first reading arrives.
	TokenNoReading = "----"
	// TokenNotAvailable is shown when the ring could not be reached.
	TokenNotAvailable = " NA "
	// TokenHigh is shown for readings that do not fit in three digits.
	TokenHigh = " HI "
	// TokenReset is shown while the Bluetooth adapter is power-cycled.
	TokenReset = " BT "
	// TokenInit is shown once the display is up at startup.
	TokenInit = "INIT"
	// TokenTest greets the operator of the manual servo test.
	TokenTest = "TEST"
	// TokenDone marks the end of a manual test session.
	TokenDone = "DONE"
	// TokenFarewell is shown when the monitor shuts down.
	TokenFarewell = "L8TR"
	// TokenBlank clears the display.
	TokenBlank = "    "
)

// highReadingLimit is the first heart rate that no longer fits in three digits.
const highReadingLimit = 1000

// DisplayToken formats a heart-rate reading as a display token.
// A disconnected cycle always yields TokenNotAvailable; a zero reading means
// nothing has been measured yet.
func DisplayToken(rate float64, connected bool) string {
	if !connected {
		return TokenNotAvailable
	}

	if rate <= 0 {
		return TokenNoReading
	}

	if rate >= highReadingLimit {
		return TokenHigh
	}

	bpm := int(rate)
	if bpm < 100 {
		return fmt.Sprintf(" %-2d ", bpm)
	}

	return fmt.Sprintf("%d ", bpm)
}

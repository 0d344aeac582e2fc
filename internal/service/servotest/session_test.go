package servotest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/heartrate-fan/internal/config"
)

// fakeActuator records servo commands.
type fakeActuator struct {
	positions []float64
	releases  int
}

func (a *fakeActuator) Set(position float64) error {
	a.positions = append(a.positions, position)

	return nil
}

func (a *fakeActuator) Rest() error {
	return nil
}

func (a *fakeActuator) Release() error {
	a.releases++

	return nil
}

// fakeDisplay records tokens.
type fakeDisplay struct {
	tokens []string
}

func (d *fakeDisplay) Show(token string) error {
	d.tokens = append(d.tokens, token)

	return nil
}

// runScript executes a scripted session and returns the fakes and output.
func runScript(t *testing.T, script string) (*fakeActuator, *fakeDisplay, string) {
	t.Helper()

	cfg := &config.Config{
		DeviceAddress: "5B:62:EE:DA:AD:40",
	}
	require.NoError(t, config.Validate(cfg))

	actuator := &fakeActuator{}
	display := &fakeDisplay{}

	var out strings.Builder

	s := newSession(cfg, actuator, display, strings.NewReader(script), &out)
	s.sleep = func(context.Context, time.Duration) error { return nil }

	require.NoError(t, s.run(context.Background()))

	return actuator, display, out.String()
}

// TestSession_PositionCommand moves the servo and reports the equivalent rate.
func TestSession_PositionCommand(t *testing.T) {
	t.Parallel()

	actuator, display, out := runScript(t, "0.0\nq\n")

	// The manual move plus the teardown centering.
	require.Equal(t, []float64{0, 0}, actuator.positions)
	require.Equal(t, 1, actuator.releases)

	// Position 0 corresponds to the band midpoint.
	require.Contains(t, out, "115.0 BPM")
	require.Contains(t, out, "1.5ms")
	require.Contains(t, display.tokens, "115 ")
}

// TestSession_HeartRateCommand validates the band and maps the rate.
func TestSession_HeartRateCommand(t *testing.T) {
	t.Parallel()

	actuator, display, out := runScript(t, "h 80\nh 300\nq\n")

	// Only the valid rate moves the servo (plus teardown centering).
	require.Equal(t, []float64{-1, 0}, actuator.positions)
	require.Contains(t, out, "must be between 80 and 150")
	require.Contains(t, display.tokens, " 80 ")
}

// TestSession_SweepWalksTheBand drives every step of the sweep.
func TestSession_SweepWalksTheBand(t *testing.T) {
	t.Parallel()

	actuator, _, _ := runScript(t, "r\nq\n")

	// 80..150 BPM in steps of 5, then teardown centering.
	require.Len(t, actuator.positions, 16)
	require.InDelta(t, -1.0, actuator.positions[0], 1e-9)
	require.InDelta(t, 1.0, actuator.positions[14], 1e-9)
}

// TestSession_RejectsOutOfRangePosition keeps the servo untouched.
func TestSession_RejectsOutOfRangePosition(t *testing.T) {
	t.Parallel()

	actuator, _, out := runScript(t, "1.5\nnonsense\nq\n")

	// Only the teardown centering.
	require.Equal(t, []float64{0}, actuator.positions)
	require.Contains(t, out, "Position must be between")
	require.Contains(t, out, "Invalid input")
}

// TestSession_EndsOnEOF treats a closed input as a clean quit.
func TestSession_EndsOnEOF(t *testing.T) {
	t.Parallel()

	actuator, display, _ := runScript(t, "")

	require.Equal(t, 1, actuator.releases)
	require.Equal(t, []string{"----", "TEST", "DONE", "    "}, display.tokens)
}

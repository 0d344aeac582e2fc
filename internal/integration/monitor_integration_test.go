package integration

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/heartrate-fan/internal/bluetooth"
	"github.com/oshokin/heartrate-fan/internal/sensor"
	"github.com/oshokin/heartrate-fan/internal/service/monitor"
)

// recordingActuator implements monitor.Actuator for end-to-end runs.
type recordingActuator struct {
	positions []float64
	rests     int
	releases  int
}

func (a *recordingActuator) Set(position float64) error {
	a.positions = append(a.positions, position)

	return nil
}

func (a *recordingActuator) Rest() error {
	a.rests++

	return nil
}

func (a *recordingActuator) Release() error {
	a.releases++

	return nil
}

// recordingDisplay implements monitor.Display for end-to-end runs.
type recordingDisplay struct {
	tokens []string
}

func (d *recordingDisplay) Show(token string) error {
	d.tokens = append(d.tokens, token)

	return nil
}

// TestMonitor_RecoversFromStubFailure runs the full loop against a stub
// client whose first invocation fails and later ones succeed.
func TestMonitor_RecoversFromStubFailure(t *testing.T) {
	t.Parallel()

	marker := filepath.Join(t.TempDir(), "seen")
	stub := writeStubClient(t, `if [ -f "`+marker+`" ]; then
  echo "[84, 86, 88]"
else
  touch "`+marker+`"
  echo "TimeoutError: read timed out" 1>&2
  exit 1
fi
`)

	cfg := newStubConfig(t, stub)
	client := sensor.NewClient(cfg)

	var adapterCommands atomic.Int32

	resetter := bluetooth.NewAdapterResetter(cfg.AdapterName,
		bluetooth.WithSettleDelay(0),
		bluetooth.WithCommandFunc(func(context.Context, ...string) error {
			adapterCommands.Add(1)
			return nil
		}),
	)

	actuator := &recordingActuator{}
	display := &recordingDisplay{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Instant sleeps; stop the loop after a handful of cycles.
	var sleeps atomic.Int32

	controller := monitor.NewController(cfg, client, actuator, display, resetter,
		monitor.WithSleepFunc(func(context.Context, time.Duration) error {
			if sleeps.Add(1) >= 6 {
				cancel()
			}
			return nil
		}),
	)

	require.NoError(t, controller.Run(ctx))

	// One failed cycle, then a reading of 88 BPM moved the servo.
	require.NotEmpty(t, actuator.positions)
	require.InDelta(t, -1.0+(88.0-80.0)/70.0*2.0, actuator.positions[0], 1e-9)

	// Startup parks, shutdown parks and releases.
	require.GreaterOrEqual(t, actuator.rests, 2)
	require.Equal(t, 1, actuator.releases)

	// Only the startup reset ran: a single failure stays below the threshold.
	require.Equal(t, int32(2), adapterCommands.Load())

	// The failed cycle surfaced on the display before the reading did.
	require.Contains(t, display.tokens, " NA ")
	require.Contains(t, display.tokens, " 88 ")
	require.Equal(t, "    ", display.tokens[len(display.tokens)-1])
}

package sensor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/heartrate-fan/internal/config"
)

// errExit simulates a non-zero client exit.
var errExit = errors.New("exit status 1")

// scriptedRunner returns canned output instead of spawning a process.
type scriptedRunner struct {
	// stdout is returned as the command's standard output.
	stdout string
	// stderr is returned as the command's standard error.
	stderr string
	// err is returned as the command's execution error.
	err error

	// name and args record the last invocation for assertions.
	name string
	args []string
}

// Run implements Runner with the scripted result.
func (r *scriptedRunner) Run(_ context.Context, name string, args ...string) (string, string, error) {
	r.name = name
	r.args = args

	return r.stdout, r.stderr, r.err
}

// newTestClient builds a client over a scripted runner.
func newTestClient(t *testing.T, runner Runner) *Client {
	t.Helper()

	cfg := &config.Config{
		DeviceAddress: "5B:62:EE:DA:AD:40",
	}
	require.NoError(t, config.Validate(cfg))

	return NewClient(cfg, WithRunner(runner))
}

// TestPoll_TakesNewestBatchedReading verifies last-value-wins batching.
func TestPoll_TakesNewestBatchedReading(t *testing.T) {
	t.Parallel()

	runner := &scriptedRunner{
		stdout: "connecting to ring\n[72, 75, 78]\ndone\n",
	}

	reading, err := newTestClient(t, runner).Poll(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 78.0, reading, 1e-9)

	// The device address and read mode are passed to the client.
	require.Equal(t, config.DefaultSensorCommand, runner.name)
	require.Equal(t, []string{"--address=5B:62:EE:DA:AD:40", "get-real-time-heart-rate"}, runner.args)
}

// TestPoll_LastArrayLineWins verifies the newest batch is preferred.
func TestPoll_LastArrayLineWins(t *testing.T) {
	t.Parallel()

	runner := &scriptedRunner{
		stdout: "[60, 61]\n[72, 75, 78]\n",
	}

	reading, err := newTestClient(t, runner).Poll(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 78.0, reading, 1e-9)
}

// TestPoll_ClassifiesKnownFailures maps stderr signatures onto reasons.
func TestPoll_ClassifiesKnownFailures(t *testing.T) {
	t.Parallel()

	cases := map[string]Reason{
		"bleak.exc.BleakDeviceNotFoundError: device not found": ReasonDeviceNotFound,
		"BleakError: Not connected":                            ReasonConnectionLost,
		"TimeoutError: read timed out":                         ReasonReadTimeout,
		"segmentation fault":                                   ReasonUnknown,
	}

	for stderr, want := range cases {
		runner := &scriptedRunner{
			stderr: stderr,
			err:    errExit,
		}

		_, err := newTestClient(t, runner).Poll(context.Background())

		var classified *ClassifiedError
		require.ErrorAs(t, err, &classified)
		require.Equal(t, want, classified.Reason)
		require.NotEmpty(t, classified.Detail)
	}
}

// TestPoll_NoReadingLineIsFailure ensures a clean exit without data fails.
func TestPoll_NoReadingLineIsFailure(t *testing.T) {
	t.Parallel()

	runner := &scriptedRunner{
		stdout: "connected, no samples yet\n",
	}

	_, err := newTestClient(t, runner).Poll(context.Background())

	var classified *ClassifiedError
	require.ErrorAs(t, err, &classified)
	require.Equal(t, ReasonUnknown, classified.Reason)
}

// TestPoll_DeadlineBecomesTimeoutReason classifies the invocation deadline.
func TestPoll_DeadlineBecomesTimeoutReason(t *testing.T) {
	t.Parallel()

	runner := &scriptedRunner{
		err: context.DeadlineExceeded,
	}

	_, err := newTestClient(t, runner).Poll(context.Background())

	var classified *ClassifiedError
	require.ErrorAs(t, err, &classified)
	require.Equal(t, ReasonTimeout, classified.Reason)
}

// TestLatestReading_IgnoresMalformedLines covers parsing edge cases.
func TestLatestReading_IgnoresMalformedLines(t *testing.T) {
	t.Parallel()

	// Empty arrays and non-JSON bracket lines are skipped.
	reading, ok := latestReading("[]\n[not json]\n[64]\n")
	require.True(t, ok)
	require.InDelta(t, 64.0, reading, 1e-9)

	// Negative readings are rejected.
	_, ok = latestReading("[-5]\n")
	require.False(t, ok)

	// No bracket lines at all.
	_, ok = latestReading("hello\n")
	require.False(t, ok)
}

// TestReasonString gives each reason a stable log name.
func TestReasonString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "device not found", ReasonDeviceNotFound.String())
	require.Equal(t, "invocation timeout", ReasonTimeout.String())
	require.Equal(t, "unknown", Reason(42).String())
}

// TestNewClient_UsesConfiguredTimeout wires the poll timeout from settings.
func TestNewClient_UsesConfiguredTimeout(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		DeviceAddress: "5B:62:EE:DA:AD:40",
		PollTimeout:   time.Second,
	}
	require.NoError(t, config.Validate(cfg))

	c := NewClient(cfg)
	require.Equal(t, time.Second, c.timeout)
}

package sensor

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/oshokin/heartrate-fan/internal/config"
)

// readModeArgument selects the client's real-time heart-rate mode.
const readModeArgument = "get-real-time-heart-rate"

// Source produces one heart-rate reading per call.
// A failed poll returns a *ClassifiedError describing the recoverable reason.
type Source interface {
	Poll(ctx context.Context) (float64, error)
}

// Client polls the ring by invoking the external Bluetooth client once.
type Client struct {
	// command is the client executable name or path.
	command string
	// address is the ring's Bluetooth MAC address.
	address string
	// timeout bounds a single invocation.
	timeout time.Duration
	// runner executes the command.
	runner Runner
}

// Option configures client behaviour.
type Option func(*Client)

// WithRunner replaces the subprocess runner, primarily for tests.
func WithRunner(r Runner) Option {
	return func(c *Client) {
		if r != nil {
			c.runner = r
		}
	}
}

// NewClient creates a sensor client for the configured ring.
func NewClient(cfg *config.Config, opts ...Option) *Client {
	client := &Client{
		command: cfg.SensorCommand,
		address: cfg.DeviceAddress,
		timeout: cfg.PollTimeout,
		runner:  execRunner{},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Poll invokes the client once and returns the newest reading.
// The invocation is bounded by the configured timeout; exceeding it is a
// recoverable failure, not a program fault.
func (c *Client) Poll(ctx context.Context) (float64, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stdout, stderr, err := c.runner.Run(callCtx, c.command, "--address="+c.address, readModeArgument)
	if errors.Is(err, context.DeadlineExceeded) {
		return 0, &ClassifiedError{
			Reason: ReasonTimeout,
			Detail: "client did not finish within " + c.timeout.String(),
		}
	}

	if err == nil {
		if reading, ok := latestReading(stdout); ok {
			return reading, nil
		}
	}

	return 0, classify(stderr)
}

// latestReading extracts the current reading from the client's stdout.
// The client may batch several samples per invocation, printed as a JSON
// array per line; the last value of the last such line wins.
func latestReading(stdout string) (float64, bool) {
	var (
		reading float64
		found   bool
	)

	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]") {
			continue
		}

		var values []float64
		if err := json.Unmarshal([]byte(line), &values); err != nil {
			continue
		}

		if len(values) == 0 {
			continue
		}

		candidate := values[len(values)-1]
		if candidate < 0 {
			continue
		}

		reading = candidate
		found = true
	}

	return reading, found
}

package monitor

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/oshokin/heartrate-fan/internal/bluetooth"
	"github.com/oshokin/heartrate-fan/internal/config"
	"github.com/oshokin/heartrate-fan/internal/domain/heartrate"
	"github.com/oshokin/heartrate-fan/internal/logger"
	"github.com/oshokin/heartrate-fan/internal/sensor"
)

// Backoff and settle delays of the monitor loop.
const (
	// retryBackoff is the pause after an isolated transient failure.
	retryBackoff = 3 * time.Second
	// resetBackoff is the pause after an adapter reset attempt.
	resetBackoff = 5 * time.Second
	// bannerDelay keeps startup and farewell tokens readable.
	bannerDelay = time.Second
)

// Actuator is the servo as the loop sees it: a bounded position, a rest
// position and a release of the holding torque.
type Actuator interface {
	Set(position float64) error
	Rest() error
	Release() error
}

// Display renders 4-character status tokens. It may fail without
// consequence for the loop.
type Display interface {
	Show(token string) error
}

// sleepFunc pauses between cycles; tests replace it to run instantly.
type sleepFunc func(ctx context.Context, d time.Duration) error

// Controller runs the monitoring loop. All fields are owned by the loop
// goroutine; nothing here is safe for concurrent use.
type Controller struct {
	source   sensor.Source
	actuator Actuator
	display  Display
	resetter bluetooth.Resetter
	mapper   *heartrate.Mapper
	sleep    sleepFunc

	// updateInterval is the pause after a successful cycle.
	updateInterval time.Duration
	// failureThreshold triggers the adapter reset escalation.
	failureThreshold int
	// deadBand suppresses servo moves smaller than this position delta.
	deadBand float64

	// failures counts consecutive failed polls.
	failures int
	// connected reflects whether the last cycle obtained a reading.
	connected bool
	// currentPosition is the last position commanded to the servo.
	currentPosition float64
	// displayOK turns false permanently after the first display failure.
	displayOK bool
	// stopped guards the shutdown sequence against repeated invocation.
	stopped bool
}

// ControllerOption configures controller behaviour.
type ControllerOption func(*Controller)

// WithSleepFunc replaces the inter-cycle sleep, primarily for tests.
func WithSleepFunc(sleep sleepFunc) ControllerOption {
	return func(c *Controller) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// NewController assembles the loop around its collaborators.
// A nil display disables status rendering without affecting the loop.
func NewController(
	cfg *config.Config,
	source sensor.Source,
	actuator Actuator,
	display Display,
	resetter bluetooth.Resetter,
	opts ...ControllerOption,
) *Controller {
	c := &Controller{
		source:           source,
		actuator:         actuator,
		display:          display,
		resetter:         resetter,
		mapper:           heartrate.NewMapper(cfg.MinHeartRate, cfg.MaxHeartRate),
		sleep:            waitFor,
		updateInterval:   cfg.UpdateInterval,
		failureThreshold: cfg.FailureThreshold,
		deadBand:         cfg.DeadBand,
		currentPosition:  heartrate.MinPosition,
		displayOK:        display != nil,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Run executes the monitoring loop until the context is canceled, then
// performs the shutdown sequence. It never returns a cycle's error.
func (c *Controller) Run(ctx context.Context) error {
	c.startup(ctx)
	defer c.Shutdown(ctx)

	for ctx.Err() == nil {
		c.runCycle(ctx)
	}

	return nil
}

// startup parks the servo, greets the operator and resets the adapter so
// the first poll starts from a known-good transport.
func (c *Controller) startup(ctx context.Context) {
	if err := c.actuator.Rest(); err != nil {
		logger.ErrorKV(ctx, "Failed to park servo at startup", "error", err)
	}

	c.currentPosition = heartrate.MinPosition

	c.show(ctx, heartrate.TokenNoReading)
	_ = c.sleep(ctx, bannerDelay)
	c.show(ctx, heartrate.TokenInit)

	c.resetAdapter(ctx)

	logger.Info(ctx, "Heart rate monitoring started")
}

// runCycle performs one poll-classify-apply round. A panic inside the
// cycle is a whole-cycle failure: logged, followed by the long backoff and
// not counted toward escalation.
func (c *Controller) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorKV(ctx, "Cycle failed unexpectedly", "panic", r)
			_ = c.sleep(ctx, c.updateInterval)
		}
	}()

	reading, err := c.source.Poll(ctx)
	if ctx.Err() != nil {
		return
	}

	if err != nil {
		c.handleFailure(ctx, err)

		return
	}

	c.applyReading(ctx, reading)
}

// applyReading maps a reading onto the servo and display.
func (c *Controller) applyReading(ctx context.Context, reading float64) {
	position, err := c.mapper.Position(reading)
	if err != nil {
		// A reading the mapper rejects is a whole-cycle failure, not a
		// transport one: long backoff, counter untouched.
		logger.ErrorKV(ctx, "Rejected reading", "reading", reading, "error", err)
		_ = c.sleep(ctx, c.updateInterval)

		return
	}

	c.failures = 0
	c.connected = true

	// Small fluctuations stay inside the dead-band so the servo does not
	// jitter on every heartbeat.
	if math.Abs(position-c.currentPosition) > c.deadBand {
		if err := c.actuator.Set(position); err != nil {
			logger.ErrorKV(ctx, "Failed to move servo", "position", position, "error", err)
		} else {
			c.currentPosition = position
			logger.InfoKV(ctx, "Fan speed updated", "heart_rate", reading, "position", position)
		}
	}

	logger.InfoKV(ctx, "Heart rate", "bpm", reading)
	c.show(ctx, heartrate.DisplayToken(reading, true))

	_ = c.sleep(ctx, c.updateInterval)
}

// handleFailure counts a failed poll and escalates to an adapter reset
// once the threshold is reached.
func (c *Controller) handleFailure(ctx context.Context, err error) {
	c.failures++
	c.connected = false

	var classified *sensor.ClassifiedError
	if errors.As(err, &classified) {
		logger.WarnKV(ctx, "No heart rate data received",
			"reason", classified.Reason.String(),
			"detail", classified.Detail,
			"consecutive_failures", c.failures)
	} else {
		logger.WarnKV(ctx, "No heart rate data received",
			"error", err,
			"consecutive_failures", c.failures)
	}

	c.show(ctx, heartrate.TokenNotAvailable)

	if c.failures >= c.failureThreshold {
		if c.resetAdapter(ctx) {
			c.failures = 0
		}

		_ = c.sleep(ctx, resetBackoff)

		return
	}

	_ = c.sleep(ctx, retryBackoff)
}

// resetAdapter power-cycles the Bluetooth adapter and reports success.
// The in-progress token is shown before the attempt.
func (c *Controller) resetAdapter(ctx context.Context) bool {
	logger.Info(ctx, "Resetting Bluetooth adapter")
	c.show(ctx, heartrate.TokenReset)

	if err := c.resetter.Reset(ctx); err != nil {
		logger.ErrorKV(ctx, "Failed to reset Bluetooth adapter", "error", err)

		return false
	}

	logger.Info(ctx, "Bluetooth adapter reset complete")

	return true
}

// Shutdown parks and releases the servo and clears the display.
// It is idempotent; repeated calls are no-ops.
func (c *Controller) Shutdown(ctx context.Context) {
	if c.stopped {
		return
	}

	c.stopped = true

	if err := c.actuator.Rest(); err != nil {
		logger.ErrorKV(ctx, "Failed to park servo at shutdown", "error", err)
	}

	c.currentPosition = heartrate.MinPosition

	c.show(ctx, heartrate.TokenFarewell)

	// The loop context is already canceled at this point, so the farewell
	// pause runs on a fresh context.
	_ = c.sleep(context.WithoutCancel(ctx), bannerDelay)

	c.show(ctx, heartrate.TokenBlank)

	if err := c.actuator.Release(); err != nil {
		logger.ErrorKV(ctx, "Failed to release servo", "error", err)
	}

	logger.Info(ctx, "Heart rate monitoring stopped")
}

// show renders a token, disabling the display for the rest of the run on
// the first failure. Display trouble is never fatal.
func (c *Controller) show(ctx context.Context, token string) {
	if !c.displayOK {
		return
	}

	if err := c.display.Show(token); err != nil {
		logger.WarnKV(ctx, "Display update failed, display disabled", "error", err)
		c.displayOK = false
	}
}

// waitFor sleeps for the given duration unless the context ends first.
func waitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

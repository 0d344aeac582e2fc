package bluetooth

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// DefaultSettleDelay gives the adapter time to finish each state change.
const DefaultSettleDelay = 2 * time.Second

// Resetter recovers the transport by power-cycling the adapter.
type Resetter interface {
	Reset(ctx context.Context) error
}

// commandFunc executes one privileged adapter command.
type commandFunc func(ctx context.Context, args ...string) error

// AdapterResetter resets a Bluetooth adapter through hciconfig.
// The commands run under sudo because hciconfig needs CAP_NET_ADMIN.
type AdapterResetter struct {
	// adapter is the hci device name, e.g. "hci0".
	adapter string
	// settle is the pause after each adapter state change.
	settle time.Duration
	// run executes one adapter command.
	run commandFunc
}

// Option configures resetter behaviour.
type Option func(*AdapterResetter)

// WithSettleDelay overrides the pause after each adapter state change.
func WithSettleDelay(d time.Duration) Option {
	return func(r *AdapterResetter) {
		if d >= 0 {
			r.settle = d
		}
	}
}

// WithCommandFunc replaces the privileged command executor, primarily for tests.
func WithCommandFunc(run commandFunc) Option {
	return func(r *AdapterResetter) {
		if run != nil {
			r.run = run
		}
	}
}

// NewAdapterResetter creates a resetter for the named adapter.
func NewAdapterResetter(adapter string, opts ...Option) *AdapterResetter {
	resetter := &AdapterResetter{
		adapter: adapter,
		settle:  DefaultSettleDelay,
		run:     runHciconfig,
	}

	for _, opt := range opts {
		opt(resetter)
	}

	return resetter
}

// Reset brings the adapter down and back up with settle delays.
// Cancellation aborts the sequence between steps.
func (r *AdapterResetter) Reset(ctx context.Context) error {
	steps := []string{"down", "up"}

	for _, step := range steps {
		if err := r.run(ctx, r.adapter, step); err != nil {
			return fmt.Errorf("adapter %s %s: %w", r.adapter, step, err)
		}

		if err := settle(ctx, r.settle); err != nil {
			return err
		}
	}

	return nil
}

// runHciconfig executes one hciconfig command under sudo.
func runHciconfig(ctx context.Context, args ...string) error {
	cmdArgs := append([]string{"hciconfig"}, args...)

	return exec.CommandContext(ctx, "sudo", cmdArgs...).Run()
}

// settle waits for the given duration unless the context is canceled first.
func settle(ctx context.Context, d time.Duration) error {
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

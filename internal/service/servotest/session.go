package servotest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/oshokin/heartrate-fan/internal/config"
	"github.com/oshokin/heartrate-fan/internal/domain/heartrate"
	"github.com/oshokin/heartrate-fan/internal/hardware"
	"github.com/oshokin/heartrate-fan/internal/logger"
)

const (
	// sweepStep is the heart-rate increment of the sweep command, BPM.
	sweepStep = 5
	// sweepPause is the dwell time per sweep position.
	sweepPause = time.Second
	// movePause lets the servo settle after a manual command.
	movePause = 2 * time.Second
	// bannerDelay keeps the greeting tokens readable.
	bannerDelay = time.Second
)

// Actuator is the servo as the bench session sees it.
type Actuator interface {
	Set(position float64) error
	Rest() error
	Release() error
}

// Display renders 4-character status tokens.
type Display interface {
	Show(token string) error
}

// sleepFunc pauses between steps; tests replace it to run instantly.
type sleepFunc func(ctx context.Context, d time.Duration) error

// session holds the bench state for one interactive run.
type session struct {
	mapper   *heartrate.Mapper
	actuator Actuator
	display  Display
	in       io.Reader
	out      io.Writer
	sleep    sleepFunc

	// minRate and maxRate bound the sweep and the h command.
	minRate float64
	maxRate float64
	// displayOK turns false permanently after the first display failure.
	displayOK bool
}

// newSession assembles a bench session over the provided collaborators.
func newSession(cfg *config.Config, actuator Actuator, display Display, in io.Reader, out io.Writer) *session {
	return &session{
		mapper:    heartrate.NewMapper(cfg.MinHeartRate, cfg.MaxHeartRate),
		actuator:  actuator,
		display:   display,
		in:        in,
		out:       out,
		sleep:     waitFor,
		minRate:   cfg.MinHeartRate,
		maxRate:   cfg.MaxHeartRate,
		displayOK: display != nil,
	}
}

// run greets the operator, processes commands until q or EOF, then parks
// the hardware.
func (s *session) run(ctx context.Context) error {
	s.show(ctx, heartrate.TokenNoReading)
	_ = s.sleep(ctx, bannerDelay)
	s.show(ctx, heartrate.TokenTest)

	s.banner()

	scanner := bufio.NewScanner(s.in)

	for ctx.Err() == nil {
		fmt.Fprint(s.out, "Enter command: ")

		if !scanner.Scan() {
			break
		}

		quit, err := s.process(ctx, scanner.Text())
		if err != nil {
			return err
		}

		if quit {
			break
		}
	}

	fmt.Fprintln(s.out, "Test completed!")
	s.teardown(ctx)

	return scanner.Err()
}

// process executes one command line and reports whether the session ends.
func (s *session) process(ctx context.Context, line string) (bool, error) {
	input := strings.ToLower(strings.TrimSpace(line))

	switch {
	case input == "":
		return false, nil
	case input == "q":
		return true, nil
	case input == "r":
		return false, s.sweep(ctx)
	case strings.HasPrefix(input, "h "):
		s.moveToRate(ctx, strings.TrimSpace(input[2:]))

		return false, nil
	default:
		s.moveToPosition(ctx, input)

		return false, nil
	}
}

// sweep walks the heart-rate band from bottom to top.
func (s *session) sweep(ctx context.Context) error {
	fmt.Fprintln(s.out, "Running through heart rate range...")

	for rate := s.minRate; rate <= s.maxRate; rate += sweepStep {
		position, err := s.mapper.Position(rate)
		if err != nil {
			return err
		}

		if err = s.actuator.Set(position); err != nil {
			return err
		}

		s.report(rate, position)
		s.show(ctx, heartrate.DisplayToken(rate, true))

		if err = s.sleep(ctx, sweepPause); err != nil {
			return nil
		}
	}

	return nil
}

// moveToRate drives the servo to the position of the given heart rate.
func (s *session) moveToRate(ctx context.Context, arg string) {
	rate, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		fmt.Fprintln(s.out, "Invalid heart rate. Use format 'h 95'")

		return
	}

	if rate < s.minRate || rate > s.maxRate {
		fmt.Fprintf(s.out, "Heart rate must be between %.0f and %.0f BPM\n", s.minRate, s.maxRate)

		return
	}

	position, err := s.mapper.Position(rate)
	if err != nil {
		fmt.Fprintln(s.out, "Invalid heart rate:", err)

		return
	}

	if err = s.actuator.Set(position); err != nil {
		fmt.Fprintln(s.out, "Servo move failed:", err)

		return
	}

	s.report(rate, position)
	s.show(ctx, heartrate.DisplayToken(rate, true))
	_ = s.sleep(ctx, movePause)
}

// moveToPosition drives the servo to a raw normalized position.
func (s *session) moveToPosition(ctx context.Context, arg string) {
	position, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		fmt.Fprintln(s.out, "Invalid input. Enter a position, 'h <heart-rate>', 'r' or 'q'")

		return
	}

	if position < heartrate.MinPosition || position > heartrate.MaxPosition {
		fmt.Fprintf(s.out, "Position must be between %.1f and %.1f\n",
			float64(heartrate.MinPosition), float64(heartrate.MaxPosition))

		return
	}

	if err = s.actuator.Set(position); err != nil {
		fmt.Fprintln(s.out, "Servo move failed:", err)

		return
	}

	rate, err := s.mapper.Rate(position)
	if err != nil {
		fmt.Fprintln(s.out, "Invalid position:", err)

		return
	}

	s.report(rate, position)
	s.show(ctx, heartrate.DisplayToken(rate, true))
	_ = s.sleep(ctx, movePause)
}

// report prints the rate/position correspondence with the pulse width.
func (s *session) report(rate, position float64) {
	pulseMs := float64(hardware.PulseTicks(position)) / 1000

	fmt.Fprintf(s.out, "Heart rate: %.1f BPM -> Servo: %.2f (pulse: %.1fms)\n", rate, position, pulseMs)
}

// banner prints the command reference.
func (s *session) banner() {
	fmt.Fprintln(s.out, "Servo test - heart rate fan controller")
	fmt.Fprintf(s.out, "Heart rate band: %.0f - %.0f BPM, position range: %.1f to %.1f\n",
		s.minRate, s.maxRate, float64(heartrate.MinPosition), float64(heartrate.MaxPosition))
	fmt.Fprintln(s.out, "Commands:")
	fmt.Fprintln(s.out, "  <position>        move servo to a position in [-1.0, 1.0]")
	fmt.Fprintln(s.out, "  h <heart-rate>    move servo to a heart rate's position")
	fmt.Fprintln(s.out, "  r                 sweep through the heart rate band")
	fmt.Fprintln(s.out, "  q                 quit")
}

// teardown centers and releases the servo and says goodbye on the display.
func (s *session) teardown(ctx context.Context) {
	if err := s.actuator.Set(0); err != nil {
		logger.ErrorKV(ctx, "Failed to center servo", "error", err)
	}

	_ = s.sleep(ctx, bannerDelay)

	s.show(ctx, heartrate.TokenDone)
	_ = s.sleep(ctx, bannerDelay)
	s.show(ctx, heartrate.TokenBlank)

	if err := s.actuator.Release(); err != nil {
		logger.ErrorKV(ctx, "Failed to release servo", "error", err)
	}
}

// show renders a token, disabling the display after the first failure.
func (s *session) show(ctx context.Context, token string) {
	if !s.displayOK {
		return
	}

	if err := s.display.Show(token); err != nil {
		logger.WarnKV(ctx, "Display update failed, display disabled", "error", err)
		s.displayOK = false
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

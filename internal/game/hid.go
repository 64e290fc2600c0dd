package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/hectorgimenez/afkbot/internal/action/step"
	"github.com/hectorgimenez/afkbot/internal/utils"
	"go.uber.org/multierr"
)

var ErrInputDispatch = errors.New("input dispatch failed")

// InputSink synthesizes the raw input events. Implementations must be safe to call from the main loop and
// the health monitor.
type InputSink interface {
	MoveMouse(x, y int, duration time.Duration) error
	MouseToggle(btn step.MouseButton, down bool) error
	KeyToggle(key string, down bool) error
	ScreenSize() (width, height int)
}

// Reloader is implemented by sinks that can refresh the game page.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Relauncher is implemented by sinks that can start the game again after it was closed.
type Relauncher interface {
	Relaunch(ctx context.Context) error
}

const (
	pointerJitter = 5

	keyPressMinTime = 100 * time.Millisecond
	keyPressMaxTime = 500 * time.Millisecond
	clickMinTime    = 10 * time.Millisecond
	clickMaxTime    = 100 * time.Millisecond
	moveMinTime     = 100 * time.Millisecond
	moveMaxTime     = 300 * time.Millisecond
	settleMinTime   = 100 * time.Millisecond
	settleMaxTime   = 300 * time.Millisecond
)

// HID is the actuator: every position gets a small random offset and every press or click a random dwell,
// so repeated instructions never produce the exact same input signature.
type HID struct {
	sink   InputSink
	logger *slog.Logger
	sleep  utils.SleepFunc
}

type HIDOption func(*HID)

func WithSleep(fn utils.SleepFunc) HIDOption {
	return func(h *HID) {
		h.sleep = fn
	}
}

func NewHID(sink InputSink, logger *slog.Logger, opts ...HIDOption) *HID {
	h := &HID{
		sink:   sink,
		logger: logger,
		sleep:  utils.ContextSleep,
	}
	for _, opt := range opts {
		opt(h)
	}

	return h
}

func (hid *HID) Sink() InputSink {
	return hid.sink
}

func (hid *HID) ScreenSize() (int, int) {
	return hid.sink.ScreenSize()
}

// RunPattern executes the steps in order. A failing step is logged and the rest of the pattern still runs,
// the returned error joins every step failure.
func (hid *HID) RunPattern(p step.Pattern) error {
	var errs error
	for i, s := range p {
		var err error
		switch st := s.(type) {
		case step.KeyPress:
			err = hid.PressKey(st.Key, st.Hold)
			hid.wait(st.PostDelay)
		case step.Click:
			err = hid.Click(st.Button, st.X, st.Y)
			hid.wait(utils.RandomDuration(settleMinTime, settleMaxTime))
		case step.Wait:
			hid.wait(st.Duration)
		default:
			err = fmt.Errorf("unsupported step %T", s)
		}

		if err != nil {
			hid.logger.Warn("Pattern step failed",
				slog.Int("index", i),
				slog.String("step", s.String()),
				slog.Any("error", err))
			errs = multierr.Append(errs, fmt.Errorf("step %d (%s): %w", i, s, err))
		}
	}

	return errs
}

func (hid *HID) wait(d time.Duration) {
	hid.sleep(context.Background(), d)
}

func jitter(v int) int {
	return v + rand.Intn(2*pointerJitter+1) - pointerJitter
}

func dispatchErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrInputDispatch, op, err)
}

package game

import (
	"log/slog"
	"time"

	"github.com/hectorgimenez/afkbot/internal/action/step"
	"github.com/hectorgimenez/afkbot/internal/utils"
	"go.uber.org/multierr"
)

// MovePointer moves the mouse close to (x, y), each axis is offset by up to pointerJitter pixels.
// A zero duration picks a random one.
func (hid *HID) MovePointer(x, y int, duration time.Duration) error {
	if duration <= 0 {
		duration = utils.RandomDuration(moveMinTime, moveMaxTime)
	}
	tx, ty := jitter(x), jitter(y)

	if err := hid.sink.MoveMouse(tx, ty, duration); err != nil {
		return dispatchErr("move", err)
	}
	hid.logger.Debug("Pointer moved", slog.Int("x", tx), slog.Int("y", ty), slog.Duration("duration", duration))

	return nil
}

// Click moves to (x, y) and clicks: button down, random dwell, button up.
func (hid *HID) Click(btn step.MouseButton, x, y int) error {
	// Like a human, click even if the pointer did not fully get there.
	err := hid.MovePointer(x, y, 0)
	return multierr.Append(err, hid.ClickHere(btn))
}

// ClickHere clicks at the current pointer position.
func (hid *HID) ClickHere(btn step.MouseButton) error {
	if btn == "" {
		btn = step.LeftButton
	}
	if err := hid.sink.MouseToggle(btn, true); err != nil {
		return dispatchErr("mouse down", err)
	}
	hid.wait(utils.RandomDuration(clickMinTime, clickMaxTime))
	if err := hid.sink.MouseToggle(btn, false); err != nil {
		return dispatchErr("mouse up", err)
	}

	return nil
}

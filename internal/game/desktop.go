package game

import (
	"fmt"
	"time"

	"github.com/go-vgo/robotgo"
	"github.com/hectorgimenez/afkbot/internal/action/step"
)

const moveStepInterval = 10 * time.Millisecond

// DesktopSink sends input to whatever window has focus, through robotgo.
type DesktopSink struct{}

func NewDesktopSink() *DesktopSink {
	return &DesktopSink{}
}

// MoveMouse walks the pointer in a straight line to (x, y) over roughly duration.
func (DesktopSink) MoveMouse(x, y int, duration time.Duration) (err error) {
	defer recoverInput(&err)

	sx, sy := robotgo.Location()
	steps := int(duration / moveStepInterval)
	for i := 1; i < steps; i++ {
		robotgo.Move(sx+(x-sx)*i/steps, sy+(y-sy)*i/steps)
		time.Sleep(moveStepInterval)
	}
	robotgo.Move(x, y)

	return nil
}

func (DesktopSink) MouseToggle(btn step.MouseButton, down bool) (err error) {
	defer recoverInput(&err)

	if down {
		return robotgo.Toggle(string(btn))
	}
	return robotgo.Toggle(string(btn), "up")
}

func (DesktopSink) KeyToggle(key string, down bool) (err error) {
	defer recoverInput(&err)

	if down {
		return robotgo.KeyToggle(key, "down")
	}
	return robotgo.KeyToggle(key, "up")
}

func (DesktopSink) ScreenSize() (int, int) {
	return robotgo.GetScreenSize()
}

func recoverInput(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("input backend panic: %v", r)
	}
}

package step

import (
	"fmt"
	"time"
)

type MouseButton string

const (
	LeftButton  MouseButton = "left"
	RightButton MouseButton = "right"
)

// Step is a single instruction of a movement pattern. Only KeyPress, Click and Wait implement it.
type Step interface {
	fmt.Stringer
	isStep()
}

// KeyPress holds a key down for Hold, then waits PostDelay before the next step.
type KeyPress struct {
	Key       string
	Hold      time.Duration
	PostDelay time.Duration
}

// Click moves the pointer to X, Y and clicks with Button.
type Click struct {
	X, Y   int
	Button MouseButton
}

type Wait struct {
	Duration time.Duration
}

func (KeyPress) isStep() {}
func (Click) isStep()    {}
func (Wait) isStep()     {}

func (k KeyPress) String() string {
	return fmt.Sprintf("key %s hold=%s delay=%s", k.Key, k.Hold, k.PostDelay)
}

func (c Click) String() string {
	return fmt.Sprintf("click %s (%d, %d)", c.Button, c.X, c.Y)
}

func (w Wait) String() string {
	return fmt.Sprintf("wait %s", w.Duration)
}

// Pattern is generated once per movement cycle, executed in order and then discarded.
type Pattern []Step

// EndsWithWait reports whether the last step of the pattern is a Wait.
func (p Pattern) EndsWithWait() bool {
	if len(p) == 0 {
		return false
	}
	_, ok := p[len(p)-1].(Wait)
	return ok
}

// TotalDelay is the minimum time the pattern spends sleeping, ignoring dispatch and humanizing delays.
func (p Pattern) TotalDelay() time.Duration {
	var total time.Duration
	for _, s := range p {
		switch st := s.(type) {
		case KeyPress:
			total += st.Hold + st.PostDelay
		case Wait:
			total += st.Duration
		}
	}
	return total
}

package game

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/hectorgimenez/afkbot/internal/action/step"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inputEvent struct {
	kind string
	x, y int
	key  string
	down bool
}

type fakeSink struct {
	mu       sync.Mutex
	events   []inputEvent
	failKeys map[string]bool
}

func (f *fakeSink) MoveMouse(x, y int, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, inputEvent{kind: "move", x: x, y: y})
	return nil
}

func (f *fakeSink) MouseToggle(btn step.MouseButton, down bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, inputEvent{kind: "mouse", key: string(btn), down: down})
	return nil
}

func (f *fakeSink) KeyToggle(key string, down bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failKeys[key] {
		return errors.New("no such key")
	}
	f.events = append(f.events, inputEvent{kind: "key", key: key, down: down})
	return nil
}

func (f *fakeSink) ScreenSize() (int, int) { return 1280, 800 }

func (f *fakeSink) count(kind string, down bool) int {
	n := 0
	for _, e := range f.events {
		if e.kind == kind && e.down == down {
			n++
		}
	}
	return n
}

type sleepRecorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sleeps = append(s.sleeps, d)
}

func newTestHID(sink InputSink) (*HID, *sleepRecorder) {
	rec := &sleepRecorder{}
	return NewHID(sink, slog.New(slog.NewTextHandler(io.Discard, nil)), WithSleep(rec.sleep)), rec
}

func TestRunPatternDispatchesEveryStep(t *testing.T) {
	sink := &fakeSink{}
	hid, rec := newTestHID(sink)

	p := step.Pattern{
		step.KeyPress{Key: "w", Hold: 200 * time.Millisecond, PostDelay: 50 * time.Millisecond},
		step.Click{X: 500, Y: 400, Button: step.LeftButton},
		step.Wait{Duration: time.Second},
	}
	require.NoError(t, hid.RunPattern(p))

	assert.Equal(t, 1, sink.count("key", true))
	assert.Equal(t, 1, sink.count("key", false))
	assert.Equal(t, 1, sink.count("mouse", true))
	assert.Equal(t, 1, sink.count("mouse", false))
	assert.Equal(t, 1, sink.count("move", false))

	// hold, post delay, click dwell, click settle and the wait itself
	require.GreaterOrEqual(t, len(rec.sleeps), 3)
	assert.Contains(t, rec.sleeps, 200*time.Millisecond)
	assert.Contains(t, rec.sleeps, time.Second)
}

func TestClickIsJittered(t *testing.T) {
	sink := &fakeSink{}
	hid, _ := newTestHID(sink)

	for i := 0; i < 200; i++ {
		require.NoError(t, hid.Click(step.LeftButton, 400, 300))
	}

	for _, e := range sink.events {
		if e.kind != "move" {
			continue
		}
		assert.InDelta(t, 400, e.x, pointerJitter)
		assert.InDelta(t, 300, e.y, pointerJitter)
	}
}

func TestClickDwellIsBounded(t *testing.T) {
	sink := &fakeSink{}
	hid, rec := newTestHID(sink)

	require.NoError(t, hid.ClickHere(step.LeftButton))
	require.Len(t, rec.sleeps, 1)
	assert.GreaterOrEqual(t, rec.sleeps[0], clickMinTime)
	assert.LessOrEqual(t, rec.sleeps[0], clickMaxTime)
}

func TestPressKeyRandomHold(t *testing.T) {
	sink := &fakeSink{}
	hid, rec := newTestHID(sink)

	require.NoError(t, hid.PressKey(EscapeKey, 0))
	require.Len(t, rec.sleeps, 1)
	assert.GreaterOrEqual(t, rec.sleeps[0], keyPressMinTime)
	assert.LessOrEqual(t, rec.sleeps[0], keyPressMaxTime)
	assert.Equal(t, []inputEvent{
		{kind: "key", key: EscapeKey, down: true},
		{kind: "key", key: EscapeKey, down: false},
	}, sink.events)
}

func TestRunPatternIsBestEffort(t *testing.T) {
	sink := &fakeSink{failKeys: map[string]bool{"q": true}}
	hid, _ := newTestHID(sink)

	p := step.Pattern{
		step.KeyPress{Key: "q", Hold: time.Millisecond},
		step.KeyPress{Key: "w", Hold: time.Millisecond},
		step.Wait{Duration: time.Millisecond},
	}
	err := hid.RunPattern(p)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInputDispatch)
	assert.Equal(t, 1, sink.count("key", true))
	assert.Equal(t, "w", sink.events[0].key)
}

package utils

import (
	"context"
	"math/rand"
	"time"
)

// SleepFunc suspends the caller for d, or less if ctx is done first. Loops and the HID take one so tests can
// observe the requested delays without waiting for them.
type SleepFunc func(ctx context.Context, d time.Duration)

// ContextSleep is the default SleepFunc.
func ContextSleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// RandomDuration returns a uniformly distributed duration in [min, max].
func RandomDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)+1))
}

// RandRng returns a uniformly distributed int in [min, max].
func RandRng(min, max int) int {
	if max <= min {
		return min
	}
	return min + rand.Intn(max-min+1)
}

// Seconds converts a float amount of seconds to a duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

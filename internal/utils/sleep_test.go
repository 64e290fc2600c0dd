package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryDelayEscalates(t *testing.T) {
	assert.Equal(t, 2*time.Second, RetryDelay(0, 2*time.Second, 5*time.Second))
	assert.Equal(t, 2*time.Second, RetryDelay(1, 2*time.Second, 5*time.Second))
	assert.Equal(t, 4*time.Second, RetryDelay(2, 2*time.Second, 5*time.Second))
	assert.Equal(t, 5*time.Second, RetryDelay(3, 2*time.Second, 5*time.Second))
}

func TestRandomDurationBounds(t *testing.T) {
	for i := 0; i < 200; i++ {
		d := RandomDuration(100*time.Millisecond, 300*time.Millisecond)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 300*time.Millisecond)
	}
	assert.Equal(t, time.Second, RandomDuration(time.Second, time.Second))
}

func TestRandRng(t *testing.T) {
	for i := 0; i < 200; i++ {
		v := RandRng(1, 3)
		assert.GreaterOrEqual(t, v, 1)
		assert.LessOrEqual(t, v, 3)
	}
	assert.Equal(t, 5, RandRng(5, 2))
}

func TestContextSleepReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	ContextSleep(ctx, time.Minute)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSeconds(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, Seconds(1.5))
}

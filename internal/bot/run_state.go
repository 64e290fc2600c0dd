package bot

import (
	"sync"
	"sync/atomic"
	"time"
)

// RunState is the single source of truth for whether the bot loops keep iterating.
type RunState struct {
	running atomic.Bool

	mu        sync.RWMutex
	startedAt time.Time
	limit     time.Duration
	session   string
}

// begin moves Idle to Running. It returns false if a run is already in progress.
func (rs *RunState) begin(now time.Time, limit time.Duration, session string) bool {
	if !rs.running.CompareAndSwap(false, true) {
		return false
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.startedAt = now
	rs.limit = limit
	rs.session = session

	return true
}

// end moves Running to Idle and returns how long the run lasted. Only the first call after begin reports true.
func (rs *RunState) end(now time.Time) (time.Duration, bool) {
	if !rs.running.CompareAndSwap(true, false) {
		return 0, false
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()
	elapsed := now.Sub(rs.startedAt)
	rs.startedAt = time.Time{}

	return elapsed, true
}

func (rs *RunState) Running() bool {
	return rs.running.Load()
}

func (rs *RunState) StartedAt() time.Time {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.startedAt
}

func (rs *RunState) Limit() time.Duration {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.limit
}

func (rs *RunState) Session() string {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.session
}

// Uptime is zero when the bot is not running.
func (rs *RunState) Uptime(now time.Time) time.Duration {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	if rs.startedAt.IsZero() {
		return 0
	}
	return now.Sub(rs.startedAt)
}

// LimitExceeded is always false for an unbounded run.
func (rs *RunState) LimitExceeded(now time.Time) bool {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	if rs.limit <= 0 || rs.startedAt.IsZero() {
		return false
	}
	return now.Sub(rs.startedAt) > rs.limit
}

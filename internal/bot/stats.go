package bot

import "sync/atomic"

// Stats counts what the bot did across every run of the process.
type Stats struct {
	popups       atomic.Uint64
	patterns     atomic.Uint64
	stepFailures atomic.Uint64
	recoveries   atomic.Uint64
	loopFailures atomic.Uint64
	captureFails atomic.Uint64
}

type StatsSnapshot struct {
	PopupsDismissed uint64 `json:"popupsDismissed"`
	Patterns        uint64 `json:"patterns"`
	StepFailures    uint64 `json:"stepFailures"`
	Recoveries      uint64 `json:"recoveries"`
	LoopFailures    uint64 `json:"loopFailures"`
	CaptureFailures uint64 `json:"captureFailures"`
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		PopupsDismissed: s.popups.Load(),
		Patterns:        s.patterns.Load(),
		StepFailures:    s.stepFailures.Load(),
		Recoveries:      s.recoveries.Load(),
		LoopFailures:    s.loopFailures.Load(),
		CaptureFailures: s.captureFails.Load(),
	}
}

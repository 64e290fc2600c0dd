package health

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hectorgimenez/afkbot/internal/game"
	"github.com/hectorgimenez/afkbot/internal/utils"
	"github.com/hectorgimenez/afkbot/internal/vision"
)

const DefaultCheckInterval = 5 * time.Second

type HealthDetector interface {
	DetectHealth(c game.Capture) vision.Health
}

// Monitor periodically checks whether the game still looks healthy, independently of the main loop
// Abnormal states are handed to OnAbnormal and monitoring continues
type Monitor struct {
	CheckInterval time.Duration // Time between two checks
	Logger        *slog.Logger
	OnAbnormal    func(reason string) // Callback when an abnormal state is detected, typically the recovery procedure

	capturer game.Capturer
	detector HealthDetector
	sleep    utils.SleepFunc
}

func NewMonitor(logger *slog.Logger, capturer game.Capturer, detector HealthDetector, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}

	return &Monitor{
		CheckInterval: interval,
		Logger:        logger,
		capturer:      capturer,
		detector:      detector,
		sleep:         utils.ContextSleep,
	}
}

// SetCallback sets the function to call when an abnormal state is detected
func (m *Monitor) SetCallback(callback func(reason string)) {
	m.OnAbnormal = callback
}

// SetSleep replaces the sleeper used between checks
func (m *Monitor) SetSleep(fn utils.SleepFunc) {
	m.sleep = fn
}

// Run checks the game until running reports false or ctx is done. A failing check is logged and the next
// one is delayed by twice the interval.
func (m *Monitor) Run(ctx context.Context, running func() bool) error {
	m.Logger.Debug("Health monitor started", slog.Duration("interval", m.CheckInterval))
	defer m.Logger.Debug("Health monitor stopped")

	for running() && ctx.Err() == nil {
		wait := m.CheckInterval
		if err := m.safeCheck(ctx); err != nil {
			m.Logger.Error("Health check failed", slog.Any("error", err))
			wait = 2 * m.CheckInterval
		}
		m.sleep(ctx, wait)
	}

	return nil
}

func (m *Monitor) safeCheck(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("health check panic: %v", r)
		}
	}()

	m.Check(ctx)
	return nil
}

// Check runs a single health check. A capture that cannot be taken counts as a normal state.
func (m *Monitor) Check(ctx context.Context) vision.Health {
	c, err := m.capturer.Capture(ctx)
	if err != nil {
		m.Logger.Warn("Health check capture failed", slog.Any("error", err))
		return vision.Health{}
	}

	h := m.detector.DetectHealth(c)
	if h.Normal() {
		return h
	}

	m.Logger.Warn("Abnormal game state detected", slog.String("reason", h.Reason))
	if m.OnAbnormal != nil {
		m.OnAbnormal(h.Reason)
	}

	return h
}

package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hectorgimenez/afkbot/internal/action/step"
	ct "github.com/hectorgimenez/afkbot/internal/context"
	"github.com/hectorgimenez/afkbot/internal/event"
	"github.com/hectorgimenez/afkbot/internal/health"
	"github.com/hectorgimenez/afkbot/internal/utils"
	"github.com/hectorgimenez/afkbot/internal/vision"
	"golang.org/x/sync/errgroup"
)

var ErrLoopPanic = errors.New("bot loop failed")

const (
	popupCooldownMin = time.Second
	popupCooldownMax = 2 * time.Second
)

type Supervisor struct {
	ctx       *ct.Context
	state     RunState
	stats     *Stats
	recoverer *Recoverer
	monitor   *health.Monitor
	sleep     utils.SleepFunc
	now       func() time.Time
	limit     time.Duration

	monitorSleep utils.SleepFunc

	mu     sync.Mutex
	cancel context.CancelFunc
}

type Option func(*Supervisor)

// WithSleep replaces the sleeper used by the main loop and the recovery procedure.
func WithSleep(fn utils.SleepFunc) Option {
	return func(s *Supervisor) {
		s.sleep = fn
	}
}

func WithMonitorSleep(fn utils.SleepFunc) Option {
	return func(s *Supervisor) {
		s.monitorSleep = fn
	}
}

func WithRunLimit(limit time.Duration) Option {
	return func(s *Supervisor) {
		s.limit = limit
	}
}

func NewSupervisor(ctx *ct.Context, opts ...Option) (*Supervisor, error) {
	if err := ctx.Validate(); err != nil {
		return nil, err
	}

	s := &Supervisor{
		ctx:   ctx,
		stats: &Stats{},
		sleep: utils.ContextSleep,
		now:   time.Now,
		limit: ctx.Cfg.RunLimit(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.recoverer = NewRecoverer(ctx, s.stats, s.sleep)
	s.monitor = health.NewMonitor(ctx.Logger, ctx.Capturer, ctx.Detector, ctx.Cfg.HealthCheckInterval())
	if s.monitorSleep != nil {
		s.monitor.SetSleep(s.monitorSleep)
	}

	return s, nil
}

func (s *Supervisor) Name() string {
	return s.ctx.Name
}

func (s *Supervisor) State() *RunState {
	return &s.state
}

func (s *Supervisor) Stats() StatsSnapshot {
	return s.stats.Snapshot()
}

func (s *Supervisor) Context() *ct.Context {
	return s.ctx
}

// Start runs the bot until it is stopped, the run limit is reached or the loop fails. It blocks, calling it
// while a run is in progress is a no-op.
func (s *Supervisor) Start(ctx context.Context) error {
	session := uuid.NewString()
	if !s.state.begin(s.now(), s.limit, session) {
		s.ctx.Logger.Warn("Bot is already running")
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	cfg := s.ctx.Cfg
	s.ctx.Logger.Info("Starting bot",
		slog.String("session", session),
		slog.String("region", string(cfg.Area)),
		slog.String("profile", string(cfg.Mode)),
		slog.Duration("limit", s.limit))
	s.ctx.EventListener.Send(event.BotStarted(event.Text(session, "Bot started"), string(cfg.Area), string(cfg.Mode), s.limit))

	g, gctx := errgroup.WithContext(runCtx)
	s.monitor.SetCallback(func(reason string) {
		s.recoverer.Recover(gctx, reason)
	})
	g.Go(s.wrapWithRecover(func() error {
		return s.monitor.Run(gctx, s.state.Running)
	}))
	g.Go(func() error {
		err := s.mainLoop(gctx)
		if err == nil {
			s.stop("stopped")
			return nil
		}

		s.stats.loopFailures.Add(1)
		s.ctx.Logger.Error("Bot loop failed", slog.Any("error", err))
		s.ctx.EventListener.Send(event.LoopFailed(event.Text(session, err.Error()), err))
		if !cfg.Recovery {
			s.stop("loop failure")
			return err
		}

		s.recoverer.Recover(gctx, vision.ReasonUnknown)
		s.stop("loop failure, recovered")
		return nil
	})

	return g.Wait()
}

// Stop ends the current run. Calling it more than once, or when the bot is not running, does nothing.
func (s *Supervisor) Stop() {
	s.stop("stopped by user")
}

func (s *Supervisor) stop(reason string) {
	session := s.state.Session()
	runTime, ok := s.state.end(s.now())
	if !ok {
		return
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.ctx.Logger.Info("Bot stopped",
		slog.String("reason", reason),
		slog.Duration("runTime", runTime.Round(time.Second)))
	s.ctx.EventListener.Send(event.BotStopped(event.Text(session, "Bot stopped: "+reason), reason, runTime))
}

func (s *Supervisor) mainLoop(ctx context.Context) error {
	for s.state.Running() && ctx.Err() == nil {
		if s.state.LimitExceeded(s.now()) {
			s.ctx.Logger.Info("Run time limit reached", slog.Duration("limit", s.limit))
			s.stop("run time limit reached")
			return nil
		}

		if err := s.iteration(ctx); err != nil {
			return err
		}
	}

	return nil
}

func (s *Supervisor) iteration(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrLoopPanic, r)
			s.ctx.Logger.Debug("Loop panic stack", slog.String("stack", string(debug.Stack())))
		}
	}()

	det := vision.Detection{}
	capture, capErr := s.ctx.Capturer.Capture(ctx)
	if capErr != nil {
		s.stats.captureFails.Add(1)
		s.ctx.Logger.Warn("Screen capture failed", slog.Any("error", capErr))
	} else {
		det = s.ctx.Detector.DetectPopup(capture)
	}

	if det.Found() {
		s.ctx.SetLastAction("dismiss popup")
		s.ctx.Logger.Info("Popup detected, dismissing", slog.Int("x", det.X), slog.Int("y", det.Y))
		if err := s.ctx.HID.Click(step.LeftButton, det.X, det.Y); err != nil {
			s.ctx.Logger.Warn("Failed to click popup", slog.Any("error", err))
		}
		s.stats.popups.Add(1)
		s.ctx.EventListener.Send(event.PopupDismissed(event.Text(s.state.Session(), "Popup dismissed"), det.X, det.Y))
		s.sleep(ctx, utils.RandomDuration(popupCooldownMin, popupCooldownMax))
		return nil
	}

	s.ctx.SetLastAction("movement")
	pattern := s.ctx.Movement.Generate()
	s.ctx.SetLastStep(fmt.Sprintf("%d steps", len(pattern)))
	s.ctx.Logger.Debug("Running movement pattern",
		slog.Int("steps", len(pattern)),
		slog.Duration("minDuration", pattern.TotalDelay()))
	if err := s.ctx.HID.RunPattern(pattern); err != nil {
		s.stats.stepFailures.Add(1)
		s.ctx.Logger.Warn("Movement pattern finished with errors", slog.Any("error", err))
	}
	s.stats.patterns.Add(1)

	minWait, maxWait := s.ctx.Cfg.MovementRange()
	s.sleep(ctx, utils.RandomDuration(minWait, maxWait))

	return nil
}

func (s *Supervisor) wrapWithRecover(f func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				s.ctx.Logger.Error(fmt.Sprintf("panic recovered: %v\nStacktrace: %s", r, debug.Stack()))
				err = fmt.Errorf("%w: %v", ErrLoopPanic, r)
			}
		}()
		return f()
	}
}

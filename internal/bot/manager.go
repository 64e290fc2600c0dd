package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	ct "github.com/hectorgimenez/afkbot/internal/context"
)

var ErrAlreadyRunning = errors.New("bot is already running")

type Status struct {
	Running   bool          `json:"running"`
	Session   string        `json:"session"`
	Region    string        `json:"region"`
	Profile   string        `json:"profile"`
	StartedAt time.Time     `json:"startedAt"`
	Uptime    time.Duration `json:"uptime"`
	Limit     time.Duration `json:"limit"`
	LastError string        `json:"lastError,omitempty"`
	Debug     ct.Debug      `json:"debug"`
	Stats     StatsSnapshot `json:"stats"`
}

// Manager runs the supervisor in the background so it can be driven from the status server and remotes.
type Manager struct {
	logger     *slog.Logger
	supervisor *Supervisor

	mu      sync.Mutex
	done    chan struct{}
	lastErr error
}

func NewManager(logger *slog.Logger, supervisor *Supervisor) *Manager {
	return &Manager{
		logger:     logger,
		supervisor: supervisor,
	}
}

// Start launches a run and returns immediately.
func (mng *Manager) Start(ctx context.Context) error {
	mng.mu.Lock()
	defer mng.mu.Unlock()

	if mng.supervisor.State().Running() || mng.done != nil {
		return ErrAlreadyRunning
	}

	done := make(chan struct{})
	mng.done = done
	mng.lastErr = nil

	go func() {
		var err error
		defer func() {
			if r := recover(); r != nil {
				mng.logger.Error(fmt.Sprintf("panic recovered: %v\nStacktrace: %s", r, debug.Stack()))
				err = fmt.Errorf("%w: %v", ErrLoopPanic, r)
			}
			mng.mu.Lock()
			mng.lastErr = err
			mng.done = nil
			mng.mu.Unlock()
			close(done)
		}()

		err = mng.supervisor.Start(ctx)
		if err != nil {
			mng.logger.Error("Bot run finished with error", slog.Any("error", err))
		}
	}()

	return nil
}

func (mng *Manager) Stop() {
	mng.logger.Info("Stopping bot")
	mng.supervisor.Stop()
}

// Wait blocks until the current run, if any, finishes and returns its error.
func (mng *Manager) Wait() error {
	mng.mu.Lock()
	done := mng.done
	mng.mu.Unlock()

	if done != nil {
		<-done
	}

	mng.mu.Lock()
	defer mng.mu.Unlock()
	return mng.lastErr
}

func (mng *Manager) Status() Status {
	s := mng.supervisor
	state := s.State()
	cfg := s.Context().Cfg

	mng.mu.Lock()
	lastErr := mng.lastErr
	mng.mu.Unlock()

	st := Status{
		Running:   state.Running(),
		Session:   state.Session(),
		Region:    string(cfg.Area),
		Profile:   string(cfg.Mode),
		StartedAt: state.StartedAt(),
		Uptime:    state.Uptime(time.Now()),
		Limit:     state.Limit(),
		Debug:     s.Context().ContextDebug(),
		Stats:     s.Stats(),
	}
	if lastErr != nil {
		st.LastError = lastErr.Error()
	}

	return st
}

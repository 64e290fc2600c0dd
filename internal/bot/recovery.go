package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/hectorgimenez/afkbot/internal/action/step"
	ct "github.com/hectorgimenez/afkbot/internal/context"
	"github.com/hectorgimenez/afkbot/internal/event"
	"github.com/hectorgimenez/afkbot/internal/game"
	"github.com/hectorgimenez/afkbot/internal/utils"
	"github.com/hectorgimenez/afkbot/internal/vision"
)

const (
	recoveryStepDelay = time.Second
	recoveryCooldown  = 5 * time.Second
)

// Recoverer tries to bring the game back to a playable state. Both the main loop and the health monitor use it.
type Recoverer struct {
	ctx   *ct.Context
	stats *Stats
	sleep utils.SleepFunc
}

func NewRecoverer(ctx *ct.Context, stats *Stats, sleep utils.SleepFunc) *Recoverer {
	if sleep == nil {
		sleep = utils.ContextSleep
	}
	return &Recoverer{ctx: ctx, stats: stats, sleep: sleep}
}

// Recover runs the procedure for reason. Its waits are not cut short when ctx is canceled, a stop requested in
// the middle of a recovery takes effect once the cooldown is over.
func (r *Recoverer) Recover(ctx context.Context, reason string) {
	logger := r.ctx.Logger
	if !r.ctx.Cfg.Recovery {
		logger.Info("Recovery disabled, ignoring abnormal state", slog.String("reason", reason))
		return
	}

	logger.Warn("Attempting recovery", slog.String("reason", reason))
	r.ctx.SetLastAction("recovery: " + reason)
	r.stats.recoveries.Add(1)
	r.ctx.EventListener.Send(event.RecoveryTriggered(event.Text(r.ctx.Name, "Recovery triggered: "+reason), reason))

	waitCtx := context.WithoutCancel(ctx)
	sink := r.ctx.HID.Sink()
	switch reason {
	case vision.ReasonDisconnected:
		if reloader, ok := sink.(game.Reloader); ok {
			if err := reloader.Reload(ctx); err != nil {
				logger.Error("Page refresh failed", slog.Any("error", err))
			}
		} else {
			logger.Info("Page refresh not supported by the input backend, skipping")
		}
	case vision.ReasonGameClosed:
		if relauncher, ok := sink.(game.Relauncher); ok {
			if err := relauncher.Relaunch(ctx); err != nil {
				logger.Error("Game relaunch failed", slog.Any("error", err))
			}
		} else {
			logger.Info("Game relaunch not supported by the input backend, skipping")
		}
	default:
		w, h := r.ctx.HID.ScreenSize()
		if err := r.ctx.HID.Click(step.LeftButton, w/2, h/2); err != nil {
			logger.Warn("Recovery click failed", slog.Any("error", err))
		}
		r.sleep(waitCtx, recoveryStepDelay)
		if err := r.ctx.HID.PressKey(game.EscapeKey, 0); err != nil {
			logger.Warn("Recovery escape failed", slog.Any("error", err))
		}
		r.sleep(waitCtx, recoveryStepDelay)
	}

	r.sleep(waitCtx, recoveryCooldown)
	logger.Info("Recovery finished", slog.String("reason", reason))
}

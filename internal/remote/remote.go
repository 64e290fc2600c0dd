package remote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hectorgimenez/afkbot/internal/bot"
	"github.com/hectorgimenez/afkbot/internal/event"
)

// Controller is the part of the bot manager that chat remotes can drive.
type Controller interface {
	Start(ctx context.Context) error
	Stop()
	Status() bot.Status
}

// Describe renders an event as a one line chat message. It returns false for events not worth a message.
func Describe(e event.Event) (string, bool) {
	switch evt := e.(type) {
	case event.BotStartedEvent:
		limit := "no time limit"
		if evt.Limit > 0 {
			limit = "limit " + evt.Limit.String()
		}
		return fmt.Sprintf("Bot started in %s (%s, %s)", evt.Region, evt.Profile, limit), true
	case event.BotStoppedEvent:
		return fmt.Sprintf("Bot stopped: %s, ran for %s", evt.Reason, evt.RunTime.Round(time.Second)), true
	case event.PopupDismissedEvent:
		return fmt.Sprintf("Popup dismissed at (%d, %d)", evt.X, evt.Y), true
	case event.RecoveryTriggeredEvent:
		return fmt.Sprintf("Recovery triggered: %s", evt.Reason), true
	case event.LoopFailedEvent:
		return fmt.Sprintf("Bot loop failed: %v", evt.Err), true
	case event.NgrokTunnelEvent:
		return evt.Message(), true
	}

	return "", false
}

func StatusText(st bot.Status) string {
	if !st.Running {
		if st.LastError != "" {
			return "Bot is not running, last run failed: " + st.LastError
		}
		return "Bot is not running"
	}

	return fmt.Sprintf("Bot is running in %s (%s) for %s", st.Region, st.Profile, st.Uptime.Round(time.Second))
}

func StatsText(st bot.Status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Popups dismissed: %d\n", st.Stats.PopupsDismissed)
	fmt.Fprintf(&b, "Movement patterns: %d\n", st.Stats.Patterns)
	fmt.Fprintf(&b, "Recoveries: %d\n", st.Stats.Recoveries)
	fmt.Fprintf(&b, "Capture failures: %d\n", st.Stats.CaptureFailures)
	fmt.Fprintf(&b, "Loop failures: %d", st.Stats.LoopFailures)

	return b.String()
}

package game

import (
	"log/slog"
	"time"

	"github.com/hectorgimenez/afkbot/internal/utils"
)

const EscapeKey = "esc"

// PressKey holds key down for hold and releases it. A zero hold picks a random one.
func (hid *HID) PressKey(key string, hold time.Duration) error {
	if hold <= 0 {
		hold = utils.RandomDuration(keyPressMinTime, keyPressMaxTime)
	}

	if err := hid.sink.KeyToggle(key, true); err != nil {
		return dispatchErr("key down "+key, err)
	}
	hid.wait(hold)
	if err := hid.sink.KeyToggle(key, false); err != nil {
		return dispatchErr("key up "+key, err)
	}
	hid.logger.Debug("Key pressed", slog.String("key", key), slog.Duration("hold", hold))

	return nil
}

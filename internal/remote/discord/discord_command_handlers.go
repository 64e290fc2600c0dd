package discord

import (
	"context"
	"errors"

	"github.com/hectorgimenez/afkbot/internal/bot"
)

const helpText = "Available commands:\n" +
	"`!start` starts the bot\n" +
	"`!stop` stops the bot\n" +
	"`!status` shows whether the bot is running\n" +
	"`!stats` shows the session counters\n" +
	"`!help` shows this message"

func (b *Bot) handleStartRequest(ctx context.Context) string {
	err := b.manager.Start(ctx)
	switch {
	case errors.Is(err, bot.ErrAlreadyRunning):
		return "Bot is already running."
	case err != nil:
		return "Bot could not be started: " + err.Error()
	}

	return "Bot has been started."
}

func (b *Bot) handleStopRequest() string {
	if !b.manager.Status().Running {
		return "Bot is not running."
	}
	b.manager.Stop()

	return "Bot has been stopped."
}

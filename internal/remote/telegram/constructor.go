package telegram

import (
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hectorgimenez/afkbot/internal/remote"
	"github.com/hectorgimenez/afkbot/internal/utils"
)

const (
	maxRetries    = 3
	retryBase     = 2 * time.Second
	retryMaxDelay = 8 * time.Second
)

// NewBot connects to the Telegram API, retrying a few times since the first call occasionally fails with a
// connection reset.
func NewBot(token string, chatID int64, manager remote.Controller, logger *slog.Logger) (*Bot, error) {
	var api *tgbotapi.BotAPI
	var err error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		api, err = tgbotapi.NewBotAPI(token)
		if err == nil {
			break
		}
		if attempt < maxRetries {
			delay := utils.RetryDelay(attempt, retryBase, retryMaxDelay)
			logger.Warn("Telegram API connection failed, retrying",
				slog.Int("attempt", attempt),
				slog.Int("maxRetries", maxRetries),
				slog.Duration("retryIn", delay),
				slog.Any("error", err),
			)
			time.Sleep(delay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("after %d attempts: %w", maxRetries, err)
	}

	return newBot(api, chatID, manager, logger), nil
}

func newBot(api sender, chatID int64, manager remote.Controller, logger *slog.Logger) *Bot {
	return &Bot{api: api, chatID: chatID, manager: manager, logger: logger}
}

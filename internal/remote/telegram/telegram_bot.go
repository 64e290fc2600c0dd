package telegram

import (
	"bytes"
	"context"
	"errors"
	"image/jpeg"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hectorgimenez/afkbot/internal/bot"
	"github.com/hectorgimenez/afkbot/internal/event"
	"github.com/hectorgimenez/afkbot/internal/remote"
)

// sender is the subset of the Telegram API the bot uses to post messages.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api     sender
	chatID  int64
	manager remote.Controller
	logger  *slog.Logger
}

func (b *Bot) Start(ctx context.Context) error {
	api, ok := b.api.(*tgbotapi.BotAPI)
	if !ok {
		<-ctx.Done()
		return nil
	}

	offset, err := latestOffset(api)
	if err != nil {
		return err
	}

	u := tgbotapi.NewUpdate(offset)
	u.Timeout = 5
	updates := api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.Close()
			for range updates {
			}
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.Chat == nil || update.Message.Chat.ID != b.chatID {
				continue
			}
			if reply, ok := b.handleCommand(ctx, update.Message.Text); ok {
				b.sendText(reply)
			}
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, text string) (string, bool) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(text)), "/") {
	case "start":
		err := b.manager.Start(ctx)
		switch {
		case errors.Is(err, bot.ErrAlreadyRunning):
			return "Bot is already running", true
		case err != nil:
			return "Bot could not be started: " + err.Error(), true
		}
		return "Bot started", true
	case "stop":
		if !b.manager.Status().Running {
			return "Bot is not running", true
		}
		b.manager.Stop()
		return "Bot stopped", true
	case "status":
		return remote.StatusText(b.manager.Status()), true
	case "stats":
		return remote.StatsText(b.manager.Status()), true
	}

	return "", false
}

func (b *Bot) Handle(_ context.Context, e event.Event) error {
	if _, popup := e.(event.PopupDismissedEvent); popup {
		return nil
	}

	text, ok := remote.Describe(e)
	if !ok {
		if e.Image() == nil {
			return nil
		}
		text = e.Message()
	}

	if e.Image() == nil {
		_, err := b.api.Send(tgbotapi.NewMessage(b.chatID, text))
		return err
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, e.Image(), &jpeg.Options{Quality: 80}); err != nil {
		return err
	}
	photo := tgbotapi.NewPhoto(b.chatID, tgbotapi.FileBytes{Name: "screenshot.jpeg", Bytes: buf.Bytes()})
	photo.Caption = text
	_, err := b.api.Send(photo)

	return err
}

func (b *Bot) sendText(text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(b.chatID, text)); err != nil {
		b.logger.Warn("Telegram reply failed", slog.Any("error", err))
	}
}

func latestOffset(api *tgbotapi.BotAPI) (int, error) {
	upds, err := api.GetUpdates(tgbotapi.NewUpdate(-1))
	if err != nil {
		return 0, err
	}
	offset := 0
	if len(upds) > 0 {
		offset = upds[0].UpdateID + 1
	}
	return offset, nil
}

package telegram

import (
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Close stops the update polling and drops idle connections to the Telegram API.
func (b *Bot) Close() {
	if b == nil {
		return
	}
	api, ok := b.api.(*tgbotapi.BotAPI)
	if !ok || api == nil {
		return
	}
	api.StopReceivingUpdates()
	if c, ok := api.Client.(*http.Client); ok && c != nil {
		if tr, ok := c.Transport.(*http.Transport); ok && tr != nil {
			tr.CloseIdleConnections()
		}
	}
}

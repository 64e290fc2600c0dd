package discord

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"

	"github.com/bwmarrin/discordgo"
	"github.com/hectorgimenez/afkbot/internal/event"
	"github.com/hectorgimenez/afkbot/internal/remote"
)

const (
	colorGreen = 0x2ecc71
	colorRed   = 0xe74c3c
)

func (b *Bot) Handle(ctx context.Context, e event.Event) error {
	if !b.shouldPublish(e) {
		return nil
	}

	text, ok := remote.Describe(e)
	if !ok {
		text = e.Message()
	}
	message := fmt.Sprintf("**[%s]** %s", shortSession(e.Session()), text)

	switch evt := e.(type) {
	case event.BotStoppedEvent:
		return b.sendEmbed(ctx, stoppedEmbed(evt, message))
	case event.NgrokTunnelEvent:
		return b.sendEventMessage(ctx, evt.Message())
	}

	if e.Image() == nil {
		return b.sendEventMessage(ctx, message)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, e.Image(), &jpeg.Options{Quality: 80}); err != nil {
		return err
	}

	return b.sendScreenshot(ctx, message, buf.Bytes())
}

func stoppedEmbed(evt event.BotStoppedEvent, message string) *discordgo.MessageEmbed {
	color := colorGreen
	if evt.Reason != "run time limit reached" && evt.Reason != "stopped by user" {
		color = colorRed
	}

	return &discordgo.MessageEmbed{
		Description: message,
		Color:       color,
		Timestamp:   evt.OccurredAt().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (b *Bot) sendEventMessage(ctx context.Context, message string) error {
	if b.useWebhook {
		return b.webhookClient.Send(ctx, message, "", nil)
	}

	_, err := b.discordSession.ChannelMessageSend(b.channelID, message)
	return err
}

func (b *Bot) sendEmbed(ctx context.Context, embed *discordgo.MessageEmbed) error {
	if b.useWebhook {
		return b.webhookClient.SendEmbed(ctx, embed)
	}

	_, err := b.discordSession.ChannelMessageSendEmbed(b.channelID, embed)
	return err
}

func (b *Bot) sendScreenshot(ctx context.Context, message string, image []byte) error {
	if b.useWebhook {
		return b.webhookClient.Send(ctx, message, "Screenshot.jpeg", image)
	}

	reader := bytes.NewReader(image)
	_, err := b.discordSession.ChannelMessageSendComplex(b.channelID, &discordgo.MessageSend{
		Files:   []*discordgo.File{{Name: "Screenshot.jpeg", ContentType: "image/jpeg", Reader: reader}},
		Content: message,
	})
	return err
}

// Popups are too frequent for a chat channel, every other event is published.
func (b *Bot) shouldPublish(e event.Event) bool {
	switch e.(type) {
	case event.PopupDismissedEvent:
		return false
	case event.BotStartedEvent, event.BotStoppedEvent, event.RecoveryTriggeredEvent, event.LoopFailedEvent, event.NgrokTunnelEvent:
		return true
	}

	return e.Image() != nil
}

func shortSession(session string) string {
	if len(session) > 8 {
		return session[:8]
	}
	if session == "" {
		return "afkbot"
	}
	return session
}

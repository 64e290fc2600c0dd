package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/hectorgimenez/afkbot/internal/remote"
)

type Bot struct {
	discordSession *discordgo.Session
	channelID      string
	admins         []string
	manager        remote.Controller
	logger         *slog.Logger
	useWebhook     bool
	webhookClient  *webhookClient
}

func NewBot(token, channelID string, admins []string, manager remote.Controller, useWebhook bool, webhookURL string, logger *slog.Logger) (*Bot, error) {
	botInstance := &Bot{
		channelID:  channelID,
		admins:     admins,
		manager:    manager,
		logger:     logger,
		useWebhook: useWebhook,
	}

	if useWebhook {
		if webhookURL == "" {
			return nil, errors.New("webhook URL is required when using webhook mode")
		}
		botInstance.webhookClient = newWebhookClient(webhookURL)
		return botInstance, nil
	}

	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	botInstance.discordSession = dg

	return botInstance, nil
}

func (b *Bot) Start(ctx context.Context) error {
	if b.useWebhook {
		<-ctx.Done()
		return nil
	}

	b.discordSession.AddHandler(b.onMessageCreated)
	// MESSAGE_CONTENT is needed to read the commands
	b.discordSession.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent
	if err := b.discordSession.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	<-ctx.Done()

	return b.discordSession.Close()
}

func (b *Bot) onMessageCreated(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID {
		return
	}

	if !slices.Contains(b.admins, m.Author.ID) {
		return
	}

	reply, ok := b.handleCommand(context.Background(), m.Content)
	if !ok {
		return
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
		b.logger.Warn("Discord reply failed", slog.Any("error", err))
	}
}

// handleCommand returns the reply for a chat command, ok is false for anything that is not a command.
func (b *Bot) handleCommand(ctx context.Context, content string) (string, bool) {
	if !strings.HasPrefix(content, "!") {
		return "", false
	}

	prefix := strings.Fields(content)[0]
	switch prefix {
	case "!start":
		return b.handleStartRequest(ctx), true
	case "!stop":
		return b.handleStopRequest(), true
	case "!status":
		return remote.StatusText(b.manager.Status()), true
	case "!stats":
		return remote.StatsText(b.manager.Status()), true
	case "!help":
		return helpText, true
	default:
		return fmt.Sprintf("Unknown command: `%s`. Type `!help` for available commands.", prefix), true
	}
}

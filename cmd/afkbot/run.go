package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	sloggger "github.com/hectorgimenez/afkbot/cmd/afkbot/log"
	"github.com/hectorgimenez/afkbot/internal/action"
	"github.com/hectorgimenez/afkbot/internal/bot"
	"github.com/hectorgimenez/afkbot/internal/config"
	ct "github.com/hectorgimenez/afkbot/internal/context"
	"github.com/hectorgimenez/afkbot/internal/event"
	"github.com/hectorgimenez/afkbot/internal/game"
	"github.com/hectorgimenez/afkbot/internal/remote/discord"
	ngrokremote "github.com/hectorgimenez/afkbot/internal/remote/ngrok"
	"github.com/hectorgimenez/afkbot/internal/remote/telegram"
	"github.com/hectorgimenez/afkbot/internal/server"
	"github.com/hectorgimenez/afkbot/internal/vision"
	"golang.org/x/sync/errgroup"
)

func run(parent context.Context, cfg *config.Cfg) (err error) {
	logger, err := sloggger.NewLogger(cfg.Debug.Log, cfg.LogSaveDirectory, "")
	if err != nil {
		return fmt.Errorf("error starting logger: %w", err)
	}
	defer sloggger.FlushAndClose()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fatal error detected, afkbot will close with the following error: %v\n Stacktrace: %s", r, debug.Stack())
			logger.Error(err.Error())
			sloggger.FlushLog()
		}
	}()

	if cfg.Debug.Enabled {
		if err = os.MkdirAll(cfg.Debug.Directory, os.ModePerm); err != nil {
			return fmt.Errorf("error creating debug directory: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	botCtx, closeBackend, err := newBotContext(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeBackend()

	eventListener := event.NewListener(logger)
	botCtx.EventListener = eventListener

	supervisor, err := bot.NewSupervisor(botCtx)
	if err != nil {
		return fmt.Errorf("error creating supervisor: %w", err)
	}
	manager := bot.NewManager(logger, supervisor)

	if cfg.Discord.Enabled {
		discordBot, err := discord.NewBot(
			cfg.Discord.Token,
			cfg.Discord.ChannelID,
			cfg.Discord.BotAdmins,
			manager,
			cfg.Discord.UseWebhook,
			cfg.Discord.WebhookURL,
			logger,
		)
		if err != nil {
			logger.Error("Discord could not been initialized", slog.Any("error", err))
		} else {
			eventListener.Register(discordBot.Handle)
			g.Go(wrapWithRecover(logger, func() error {
				return discordBot.Start(ctx)
			}))
		}
	}

	if cfg.Telegram.Enabled {
		telegramBot, err := telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.ChatID, manager, logger)
		if err != nil {
			logger.Error("Telegram could not been initialized", slog.Any("error", err))
		} else {
			eventListener.Register(telegramBot.Handle)
			g.Go(wrapWithRecover(logger, func() error {
				return telegramBot.Start(ctx)
			}))
		}
	}

	g.Go(wrapWithRecover(logger, func() error {
		return eventListener.Listen(ctx)
	}))

	var srv *server.HttpServer
	if cfg.Server.Enabled {
		srv, err = server.New(ctx, logger, manager, config.Version)
		if err != nil {
			return fmt.Errorf("error starting status server: %w", err)
		}
		g.Go(wrapWithRecover(logger, func() error {
			defer cancel()
			return srv.Listen(ctx, cfg.Server.Port)
		}))
	}

	var ngrokTunnel *ngrokremote.Tunnel
	if cfg.Ngrok.Enabled && srv != nil {
		ngrokTunnel = startTunnel(ctx, cfg, logger, eventListener)
	}

	if err = manager.Start(ctx); err != nil {
		return err
	}
	if srv == nil {
		// Nothing can start a new run without the status server, so the process ends with the run.
		g.Go(wrapWithRecover(logger, func() error {
			defer cancel()
			return manager.Wait()
		}))
	}

	g.Go(wrapWithRecover(logger, func() error {
		<-ctx.Done()
		logger.Info("afkbot shutting down...")
		manager.Stop()
		waitErr := manager.Wait()
		if srv != nil {
			if stopErr := srv.Stop(); stopErr != nil {
				logger.Error("error stopping status server", slog.Any("error", stopErr))
			}
		}
		if ngrokTunnel != nil {
			if closeErr := ngrokTunnel.Close(); closeErr != nil {
				logger.Error("error stopping ngrok tunnel", slog.Any("error", closeErr))
			}
		}

		return waitErr
	}))

	if err = g.Wait(); err != nil {
		logger.Error("Error running afkbot", slog.Any("error", err))
		return err
	}

	return nil
}

// newBotContext builds the capture and input backends picked in the config and bundles them with the
// detector and movement generator. The returned func releases the backend.
func newBotContext(ctx context.Context, cfg *config.Cfg, logger *slog.Logger) (*ct.Context, func(), error) {
	botCtx := ct.NewContext("afkbot", cfg, logger)
	closeBackend := func() {}

	switch cfg.Backend.Kind {
	case config.BackendBrowser:
		browser := game.NewBrowser(logger, game.BrowserOptions{
			URL:      cfg.Backend.GameURL,
			Headless: cfg.Backend.Headless,
			Width:    cfg.Backend.Width,
			Height:   cfg.Backend.Height,
			Bin:      cfg.Backend.Bin,
			Debug:    cfg.Debug.Enabled,
			DebugDir: cfg.Debug.Directory,
		})
		if err := browser.Start(ctx); err != nil {
			return nil, closeBackend, fmt.Errorf("error starting browser: %w", err)
		}
		closeBackend = func() {
			if err := browser.Close(); err != nil {
				logger.Error("error closing browser", slog.Any("error", err))
			}
		}
		botCtx.Capturer = browser
		botCtx.HID = game.NewHID(browser, logger)
	default:
		botCtx.Capturer = game.NewScreenCapturer(logger, cfg.ScreenRegion, cfg.Debug.Enabled, cfg.Debug.Directory)
		botCtx.HID = game.NewHID(game.NewDesktopSink(), logger)
	}

	var opts []vision.Option
	if cfg.Debug.Enabled {
		opts = append(opts, vision.WithDebugFrames(cfg.Debug.Directory))
	}
	botCtx.Detector = vision.NewDetector(logger, opts...)
	botCtx.Movement = action.NewMovementGenerator(logger, cfg.Mode, cfg.Area)

	return botCtx, closeBackend, nil
}

func startTunnel(ctx context.Context, cfg *config.Cfg, logger *slog.Logger, sender event.Sender) *ngrokremote.Tunnel {
	opts := ngrokremote.Options{
		LocalAddr:     ngrokremote.LocalAddr(cfg.Server.Port),
		Authtoken:     cfg.Ngrok.Authtoken,
		Region:        cfg.Ngrok.Region,
		Domain:        cfg.Ngrok.Domain,
		BasicAuthUser: cfg.Ngrok.BasicAuthUser,
		BasicAuthPass: cfg.Ngrok.BasicAuthPass,
	}
	if err := opts.Validate(); err != nil {
		logger.Warn("ngrok enabled but not usable, skipping tunnel start", slog.Any("error", err))
		return nil
	}

	tunnel, err := ngrokremote.Start(ctx, opts)
	if err != nil {
		logger.Error("ngrok tunnel failed to start", slog.Any("error", err))
		return nil
	}
	logger.Info("ngrok tunnel established", slog.String("url", tunnel.URL()))
	if cfg.Ngrok.SendURL {
		sender.Send(event.NgrokTunnel(tunnel.URL()))
	}

	return tunnel
}

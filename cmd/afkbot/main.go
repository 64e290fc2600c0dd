package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	sloggger "github.com/hectorgimenez/afkbot/cmd/afkbot/log"
	"github.com/hectorgimenez/afkbot/internal/config"
	"github.com/urfave/cli/v2"
)

var (
	buildID   string
	buildTime string
)

// wrapWithRecover wraps a function with panic recovery logic
func wrapWithRecover(logger *slog.Logger, f func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				stackTrace := debug.Stack()
				logger.Error(fmt.Sprintf("panic recovered: %v\nStacktrace: %s", r, stackTrace))
				sloggger.FlushLog()
				err = fmt.Errorf("panic recovered: %v", r)
			}
		}()
		return f()
	}
}

func main() {
	if buildID != "" {
		config.Version = buildID
	}
	_ = buildTime

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatalf("Error running afkbot: %s", err.Error())
	}
}

func newApp() *cli.App {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "path to the YAML config file",
		Value:   config.DefaultPath,
	}

	return &cli.App{
		Name:    "afkbot",
		Usage:   "keeps a florr.io session alive and dismisses the AFK check popup",
		Version: config.Version,
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "start the bot",
				Flags: append([]cli.Flag{configFlag}, overrideFlags()...),
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c.String("config"))
					if err != nil {
						return err
					}
					if applyOverrides(c, cfg) {
						if err = config.Save(c.String("config"), cfg); err != nil {
							return err
						}
					}

					return run(c.Context, cfg)
				},
			},
			{
				Name:  "init",
				Usage: "write the default config file if it does not exist",
				Flags: []cli.Flag{configFlag},
				Action: func(c *cli.Context) error {
					created, err := config.Init(c.String("config"))
					if err != nil {
						return err
					}
					if created {
						fmt.Printf("Config written to %s\n", c.String("config"))
					} else {
						fmt.Printf("Config already exists at %s\n", c.String("config"))
					}
					return nil
				},
			},
		},
	}
}

func overrideFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "area", Usage: "region to idle in (sewers, desert, spider, anthill, default)"},
		&cli.StringFlag{Name: "mode", Usage: "behavior profile (aggressive, normal, conservative)"},
		&cli.IntFlag{Name: "time", Usage: "run time limit in minutes, 0 means no limit"},
		&cli.BoolFlag{Name: "debug", Usage: "save captures and detection frames, log at debug level"},
		&cli.StringFlag{Name: "backend", Usage: "input and capture backend (desktop, browser)"},
	}
}

func loadConfig(path string) (*config.Cfg, error) {
	if err := config.LoadEnv(".env"); err != nil {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}
	if _, err := config.Init(path); err != nil {
		return nil, err
	}

	return config.Load(path)
}

// applyOverrides copies the flags set on the command line into cfg and reports whether anything changed.
func applyOverrides(c *cli.Context, cfg *config.Cfg) bool {
	changed := false
	if c.IsSet("area") {
		cfg.Area = config.NormalizeRegion(c.String("area"))
		changed = true
	}
	if c.IsSet("mode") {
		cfg.Mode = config.NormalizeProfile(c.String("mode"))
		changed = true
	}
	if c.IsSet("time") {
		cfg.RunTime = c.Int("time")
		changed = true
	}
	if c.IsSet("debug") {
		cfg.Debug.Enabled = c.Bool("debug")
		cfg.Debug.Log = c.Bool("debug")
		changed = true
	}
	if c.IsSet("backend") {
		cfg.Backend.Kind = c.String("backend")
		changed = true
	}
	if changed {
		cfg.Validate()
	}

	return changed
}

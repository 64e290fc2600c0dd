package game

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/hectorgimenez/afkbot/internal/action/step"
)

var ErrBrowserNotRunning = errors.New("browser is not running")

type BrowserOptions struct {
	URL      string
	Headless bool
	Width    int
	Height   int
	Bin      string
	Debug    bool
	DebugDir string
}

// Browser drives the game inside a Chromium instance controlled through the DevTools protocol. It captures
// the page and dispatches input straight to it, so the bot does not need the desktop focus.
type Browser struct {
	logger *slog.Logger
	opts   BrowserOptions

	mu      sync.Mutex
	lifeCtx context.Context // from Start, bounds every browser process this instance launches
	launch  *launcher.Launcher
	browser *rod.Browser
	page    *rod.Page
}

func NewBrowser(logger *slog.Logger, opts BrowserOptions) *Browser {
	return &Browser{logger: logger, opts: opts}
}

// Start launches the browser and opens the game page. The browser, and any relaunched one, is killed when ctx
// is done.
func (b *Browser) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lifeCtx = ctx
	return b.start(ctx)
}

func (b *Browser) launchContext() context.Context {
	if b.lifeCtx == nil {
		return context.Background()
	}
	return b.lifeCtx
}

func (b *Browser) start(ctx context.Context) error {
	maybeLogBrowserDownload(ctx, b.logger)

	launch := launcher.New().Context(ctx).Headless(b.opts.Headless)
	if b.opts.Bin != "" {
		launch = launch.Bin(b.opts.Bin)
	}
	controlURL, err := launch.Launch()
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		launch.Cleanup()
		return fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		launch.Cleanup()
		return fmt.Errorf("failed to create page: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             b.opts.Width,
		Height:            b.opts.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		b.logger.Warn("Could not set browser viewport", slog.Any("error", err))
	}

	if err := page.Navigate(b.opts.URL); err != nil {
		_ = browser.Close()
		launch.Cleanup()
		return fmt.Errorf("failed to navigate to %s: %w", b.opts.URL, err)
	}
	if err := page.WaitLoad(); err != nil {
		b.logger.Warn("Game page did not finish loading", slog.Any("error", err))
	}

	b.launch, b.browser, b.page = launch, browser, page
	b.logger.Info("Browser started", slog.String("url", b.opts.URL), slog.Bool("headless", b.opts.Headless))

	return nil
}

// Close shuts down the browser, it is safe to call more than once.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.close()
}

func (b *Browser) close() error {
	var err error
	if b.browser != nil {
		err = b.browser.Close()
	}
	if b.launch != nil {
		b.launch.Cleanup()
	}
	b.launch, b.browser, b.page = nil, nil, nil

	return err
}

func (b *Browser) Capture(ctx context.Context) (c Capture, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCaptureFailed, r)
		}
	}()

	b.mu.Lock()
	page := b.page
	b.mu.Unlock()
	if page == nil {
		return Capture{}, fmt.Errorf("%w: %w", ErrCaptureFailed, ErrBrowserNotRunning)
	}

	data, err := page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return Capture{}, fmt.Errorf("%w: %w", ErrCaptureFailed, err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return Capture{}, fmt.Errorf("%w: decoding screenshot: %w", ErrCaptureFailed, err)
	}

	c = NewCapture(img, time.Now())
	if b.opts.Debug {
		saveDebugCapture(b.logger, b.opts.DebugDir, c)
	}

	return c, nil
}

func (b *Browser) MoveMouse(x, y int, duration time.Duration) (err error) {
	defer recoverInput(&err)

	page, err := b.currentPage()
	if err != nil {
		return err
	}
	steps := int(duration / moveStepInterval)
	if steps < 1 {
		steps = 1
	}

	return page.Mouse.MoveLinear(proto.Point{X: float64(x), Y: float64(y)}, steps)
}

func (b *Browser) MouseToggle(btn step.MouseButton, down bool) (err error) {
	defer recoverInput(&err)

	page, err := b.currentPage()
	if err != nil {
		return err
	}
	button := proto.InputMouseButtonLeft
	if btn == step.RightButton {
		button = proto.InputMouseButtonRight
	}
	if down {
		return page.Mouse.Down(button, 1)
	}
	return page.Mouse.Up(button, 1)
}

func (b *Browser) KeyToggle(key string, down bool) (err error) {
	defer recoverInput(&err)

	page, err := b.currentPage()
	if err != nil {
		return err
	}
	k, err := browserKey(key)
	if err != nil {
		return err
	}
	if down {
		return page.Keyboard.Press(k)
	}
	return page.Keyboard.Release(k)
}

func (b *Browser) ScreenSize() (int, int) {
	return b.opts.Width, b.opts.Height
}

// Reload refreshes the game page.
func (b *Browser) Reload(ctx context.Context) error {
	page, err := b.currentPage()
	if err != nil {
		return err
	}
	if err := page.Context(ctx).Reload(); err != nil {
		return fmt.Errorf("failed to reload game page: %w", err)
	}
	b.logger.Info("Game page reloaded")

	return page.Context(ctx).WaitLoad()
}

// Relaunch closes the browser, if any is left, and starts a new one. The new browser belongs to the context
// given to Start, not to the caller's, so it survives the bot run that asked for it.
func (b *Browser) Relaunch(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.close(); err != nil {
		b.logger.Debug("Error closing previous browser", slog.Any("error", err))
	}

	return b.start(b.launchContext())
}

func (b *Browser) currentPage() (*rod.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.page == nil {
		return nil, ErrBrowserNotRunning
	}

	return b.page, nil
}

func browserKey(key string) (input.Key, error) {
	switch strings.ToLower(key) {
	case EscapeKey, "escape":
		return input.Escape, nil
	case "enter":
		return input.Enter, nil
	case "space":
		return input.Space, nil
	case "up":
		return input.ArrowUp, nil
	case "down":
		return input.ArrowDown, nil
	case "left":
		return input.ArrowLeft, nil
	case "right":
		return input.ArrowRight, nil
	}

	if utf8.RuneCountInString(key) == 1 {
		r, _ := utf8.DecodeRuneInString(strings.ToLower(key))
		return input.Key(r), nil
	}

	return 0, fmt.Errorf("unsupported key %q", key)
}

func maybeLogBrowserDownload(ctx context.Context, logger *slog.Logger) {
	browser := launcher.NewBrowser()
	browser.Context = ctx
	if err := browser.Validate(); err != nil {
		logger.Info("Downloading and installing the Chrome browser (first time only, ~150MB)...")
	}
}

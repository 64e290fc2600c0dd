package context

import (
	"log/slog"
	"sync"

	"github.com/hectorgimenez/afkbot/internal/action/step"
	"github.com/hectorgimenez/afkbot/internal/config"
	"github.com/hectorgimenez/afkbot/internal/event"
	"github.com/hectorgimenez/afkbot/internal/game"
	"github.com/hectorgimenez/afkbot/internal/vision"
)

type Detector interface {
	DetectPopup(c game.Capture) vision.Detection
	DetectHealth(c game.Capture) vision.Health
}

type PatternGenerator interface {
	Generate() step.Pattern
}

// Context bundles everything a bot run needs. It is built once and shared by the main loop, the health
// monitor and the recovery procedure.
type Context struct {
	Name          string
	Cfg           *config.Cfg
	Logger        *slog.Logger
	Capturer      game.Capturer
	HID           *game.HID
	Detector      Detector
	Movement      PatternGenerator
	EventListener event.Sender

	mu           sync.Mutex
	contextDebug Debug
}

type Debug struct {
	LastAction string `json:"lastAction"`
	LastStep   string `json:"lastStep"`
}

func NewContext(name string, cfg *config.Cfg, logger *slog.Logger) *Context {
	return &Context{
		Name:          name,
		Cfg:           cfg,
		Logger:        logger,
		EventListener: event.Discard{},
	}
}

func (ctx *Context) SetLastAction(actionName string) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.contextDebug.LastAction = actionName
}

func (ctx *Context) SetLastStep(stepName string) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.contextDebug.LastStep = stepName
}

func (ctx *Context) ContextDebug() Debug {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	return ctx.contextDebug
}

// Validate reports the first missing dependency.
func (ctx *Context) Validate() error {
	switch {
	case ctx.Cfg == nil:
		return errMissing("config")
	case ctx.Logger == nil:
		return errMissing("logger")
	case ctx.Capturer == nil:
		return errMissing("capturer")
	case ctx.HID == nil:
		return errMissing("hid")
	case ctx.Detector == nil:
		return errMissing("detector")
	case ctx.Movement == nil:
		return errMissing("movement generator")
	}
	return nil
}

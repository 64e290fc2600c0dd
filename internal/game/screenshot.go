package game

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/go-vgo/robotgo"
	"github.com/hectorgimenez/afkbot/internal/config"
	"github.com/vcaesar/imgo"
)

var ErrCaptureFailed = errors.New("screen capture failed")

// Capture is an immutable still of the display, rebased so its top-left pixel is (0, 0).
type Capture struct {
	img     *image.RGBA
	takenAt time.Time
}

// NewCapture copies src, later changes to src are not visible through the capture.
func NewCapture(src image.Image, takenAt time.Time) Capture {
	if src == nil {
		return Capture{takenAt: takenAt}
	}
	b := src.Bounds()
	img := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(img, img.Bounds(), src, b.Min, draw.Src)

	return Capture{img: img, takenAt: takenAt}
}

func (c Capture) Empty() bool {
	return c.img == nil || c.img.Bounds().Empty()
}

func (c Capture) Width() int {
	if c.img == nil {
		return 0
	}
	return c.img.Bounds().Dx()
}

func (c Capture) Height() int {
	if c.img == nil {
		return 0
	}
	return c.img.Bounds().Dy()
}

// Channels is always 3, alpha is not part of the capture.
func (c Capture) Channels() int {
	return 3
}

func (c Capture) TakenAt() time.Time {
	return c.takenAt
}

func (c Capture) At(x, y int) color.RGBA {
	if c.img == nil {
		return color.RGBA{}
	}
	return c.img.RGBAAt(x, y)
}

// RGBA returns a copy of the pixels.
func (c Capture) RGBA() *image.RGBA {
	if c.img == nil {
		return image.NewRGBA(image.Rectangle{})
	}
	cp := image.NewRGBA(c.img.Bounds())
	copy(cp.Pix, c.img.Pix)
	return cp
}

// Capturer produces captures of the game screen.
type Capturer interface {
	Capture(ctx context.Context) (Capture, error)
}

// ScreenCapturer grabs the desktop, or a sub region of it, through robotgo.
type ScreenCapturer struct {
	logger   *slog.Logger
	region   *config.CaptureRegion
	debug    bool
	debugDir string
	grab     func(args ...int) (image.Image, error)
}

func NewScreenCapturer(logger *slog.Logger, region *config.CaptureRegion, debug bool, debugDir string) *ScreenCapturer {
	return &ScreenCapturer{
		logger:   logger,
		region:   region,
		debug:    debug,
		debugDir: debugDir,
		grab:     robotgo.CaptureImg,
	}
}

func (sc *ScreenCapturer) Capture(_ context.Context) (c Capture, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCaptureFailed, r)
		}
	}()

	var img image.Image
	if sc.region != nil {
		img, err = sc.grab(sc.region.X, sc.region.Y, sc.region.Width, sc.region.Height)
	} else {
		img, err = sc.grab()
	}
	if err != nil {
		return Capture{}, fmt.Errorf("%w: %w", ErrCaptureFailed, err)
	}
	if img == nil {
		return Capture{}, fmt.Errorf("%w: empty image", ErrCaptureFailed)
	}

	c = NewCapture(img, time.Now())
	if sc.debug {
		saveDebugCapture(sc.logger, sc.debugDir, c)
	}

	return c, nil
}

func saveDebugCapture(logger *slog.Logger, dir string, c Capture) {
	path := filepath.Join(dir, fmt.Sprintf("debug_screenshot_%d.png", c.TakenAt().UnixMilli()))
	if err := imgo.Save(path, c.RGBA()); err != nil {
		logger.Debug("Could not save debug screenshot", slog.String("path", path), slog.Any("error", err))
	}
}

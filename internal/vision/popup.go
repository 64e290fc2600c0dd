package vision

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"path/filepath"

	"github.com/hectorgimenez/afkbot/internal/game"
	"gocv.io/x/gocv"
)

// Red wraps around the hue circle, so two bands are needed. OpenCV scale: H 0..180, S and V 0..255.
var (
	redLowA  = gocv.NewScalar(0, 100, 100, 0)
	redHighA = gocv.NewScalar(10, 255, 255, 0)
	redLowB  = gocv.NewScalar(160, 100, 100, 0)
	redHighB = gocv.NewScalar(180, 255, 255, 0)
)

// Bounding box limits for a popup button, both exclusive.
const (
	popupMinWidth  = 50
	popupMaxWidth  = 200
	popupMinHeight = 20
	popupMaxHeight = 80
)

type Detector struct {
	logger   *slog.Logger
	classify HealthClassifier
	debug    bool
	debugDir string
}

type Option func(*Detector)

func WithHealthClassifier(fn HealthClassifier) Option {
	return func(d *Detector) {
		if fn != nil {
			d.classify = fn
		}
	}
}

func WithDebugFrames(dir string) Option {
	return func(d *Detector) {
		d.debug = true
		d.debugDir = dir
	}
}

func NewDetector(logger *slog.Logger, opts ...Option) *Detector {
	d := &Detector{
		logger:   logger,
		classify: AlwaysNormal,
	}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// DetectPopup looks for a red, button sized blob and returns the center of the first one found.
func (d *Detector) DetectPopup(c game.Capture) Detection {
	if c.Empty() {
		return Detection{}
	}

	rect, ok := d.findPopup(c)
	if !ok {
		return Detection{}
	}
	det := Popup(rect.Min.X+rect.Dx()/2, rect.Min.Y+rect.Dy()/2)
	d.logger.Debug("Popup detected",
		slog.Int("x", det.X),
		slog.Int("y", det.Y),
		slog.Int("width", rect.Dx()),
		slog.Int("height", rect.Dy()))

	return det
}

func (d *Detector) findPopup(c game.Capture) (image.Rectangle, bool) {
	// Mat channels end up in BGR order
	mat, err := gocv.ImageToMatRGB(c.RGBA())
	if err != nil {
		d.logger.Warn("Failed to convert capture", slog.Any("error", err))
		return image.Rectangle{}, false
	}
	defer mat.Close()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(mat, &hsv, gocv.ColorBGRToHSV)

	lower := gocv.NewMat()
	defer lower.Close()
	upper := gocv.NewMat()
	defer upper.Close()
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.InRangeWithScalar(hsv, redLowA, redHighA, &lower)
	gocv.InRangeWithScalar(hsv, redLowB, redHighB, &upper)
	gocv.BitwiseOr(lower, upper, &mask)

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	for i := 0; i < contours.Size(); i++ {
		rect := gocv.BoundingRect(contours.At(i))
		w, h := rect.Dx(), rect.Dy()
		if w > popupMinWidth && w < popupMaxWidth && h > popupMinHeight && h < popupMaxHeight {
			if d.debug {
				d.writeDebugFrame(mat, rect, c)
			}
			return rect, true
		}
	}

	return image.Rectangle{}, false
}

func (d *Detector) writeDebugFrame(mat gocv.Mat, rect image.Rectangle, c game.Capture) {
	frame := mat.Clone()
	defer frame.Close()

	gocv.Rectangle(&frame, rect, color.RGBA{G: 255, A: 255}, 2)
	path := filepath.Join(d.debugDir, fmt.Sprintf("debug_detection_%d.png", c.TakenAt().UnixMilli()))
	if !gocv.IMWrite(path, frame) {
		d.logger.Debug("Could not write detection frame", slog.String("path", path))
	}
}

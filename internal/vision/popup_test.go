package vision

import (
	"image"
	"image/color"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hectorgimenez/afkbot/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDetector(opts ...Option) *Detector {
	return NewDetector(slog.New(slog.NewTextHandler(io.Discard, nil)), opts...)
}

func frameWithRect(r image.Rectangle, c color.RGBA) game.Capture {
	img := image.NewRGBA(image.Rect(0, 0, 800, 600))
	for y := 0; y < 600; y++ {
		for x := 0; x < 800; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 30, G: 30, B: 30, A: 255})
		}
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return game.NewCapture(img, time.Now())
}

func TestDetectPopupFindsRedButton(t *testing.T) {
	rect := image.Rect(350, 280, 451, 321)
	det := testDetector().DetectPopup(frameWithRect(rect, color.RGBA{R: 255, A: 255}))

	require.Equal(t, PopupFound, det.Kind)
	assert.InDelta(t, 400, det.X, 1)
	assert.InDelta(t, 300, det.Y, 1)
	assert.True(t, image.Pt(det.X, det.Y).In(rect))
}

func TestDetectPopupIgnoresOtherColors(t *testing.T) {
	det := testDetector().DetectPopup(frameWithRect(image.Rect(350, 280, 451, 321), color.RGBA{G: 255, A: 255}))
	assert.Equal(t, NoMatch, det.Kind)
}

func TestDetectPopupIgnoresWrongSizes(t *testing.T) {
	tests := map[string]image.Rectangle{
		"too small": image.Rect(100, 100, 130, 110),
		"too wide":  image.Rect(100, 100, 400, 140),
		"too tall":  image.Rect(100, 100, 180, 250),
	}
	for name, r := range tests {
		t.Run(name, func(t *testing.T) {
			det := testDetector().DetectPopup(frameWithRect(r, color.RGBA{R: 255, A: 255}))
			assert.Equal(t, NoMatch, det.Kind)
		})
	}
}

func TestDetectPopupEmptyCapture(t *testing.T) {
	assert.Equal(t, NoMatch, testDetector().DetectPopup(game.Capture{}).Kind)
}

func TestDetectHealth(t *testing.T) {
	c := frameWithRect(image.Rect(350, 280, 451, 321), color.RGBA{R: 255, A: 255})
	assert.True(t, testDetector().DetectHealth(c).Normal())

	closed := testDetector(WithHealthClassifier(func(game.Capture) Health {
		return Health{Reason: ReasonGameClosed}
	}))
	h := closed.DetectHealth(c)
	assert.False(t, h.Normal())
	assert.Equal(t, Abnormal(ReasonGameClosed), h.Detection())
}

package action

import (
	"bytes"
	"image"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/hectorgimenez/afkbot/internal/action/step"
	"github.com/hectorgimenez/afkbot/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func countKeys(p step.Pattern) int {
	n := 0
	for _, s := range p {
		if _, ok := s.(step.KeyPress); ok {
			n++
		}
	}
	return n
}

func TestGenerateShapeForEveryCombination(t *testing.T) {
	regions := append([]config.Region{"garden"}, config.AvailableRegions...)
	for _, profile := range config.AvailableProfiles {
		for _, region := range regions {
			g := NewMovementGenerator(discardLogger(), profile, region)
			for i := 0; i < 200; i++ {
				p := g.Generate()
				require.NotEmpty(t, p, "%s/%s", profile, region)
				assert.True(t, p.EndsWithWait(), "%s/%s pattern must end with a wait", profile, region)

				for _, s := range p {
					switch st := s.(type) {
					case step.KeyPress:
						assert.Contains(t, movementKeys, st.Key)
						assert.Positive(t, st.Hold)
					case step.Click:
						assert.Equal(t, step.LeftButton, st.Button)
					case step.Wait:
						assert.Positive(t, st.Duration)
					default:
						t.Fatalf("unexpected step type %T", s)
					}
				}
			}
		}
	}
}

func TestProfileDrivenFallbackLimits(t *testing.T) {
	tests := []struct {
		profile  config.Profile
		min, max int
		maxHold  time.Duration
	}{
		{config.ProfileAggressive, 2, 5, 800 * time.Millisecond},
		{config.ProfileNormal, 2, 4, 1000 * time.Millisecond},
		{config.ProfileConservative, 1, 3, 1200 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(string(tt.profile), func(t *testing.T) {
			g := NewMovementGenerator(discardLogger(), tt.profile, "unknown")
			require.True(t, g.Fallback())

			for i := 0; i < 300; i++ {
				p := g.Generate()
				keys := countKeys(p)
				assert.GreaterOrEqual(t, keys, tt.min)
				assert.LessOrEqual(t, keys, tt.max)
				for _, s := range p {
					if k, ok := s.(step.KeyPress); ok {
						assert.LessOrEqual(t, k.Hold, tt.maxHold)
						assert.GreaterOrEqual(t, k.Hold, 100*time.Millisecond)
					}
				}
			}
		})
	}
}

func TestSewersStartsAtSafeAnchor(t *testing.T) {
	g := NewMovementGenerator(discardLogger(), config.ProfileNormal, config.RegionSewers)
	anchors := regionLayouts[config.RegionSewers].anchors

	for i := 0; i < 100; i++ {
		p := g.Generate()
		click, ok := p[0].(step.Click)
		require.True(t, ok, "first sewers step must be a click")
		assert.Contains(t, anchors, image.Pt(click.X, click.Y))

		keys := countKeys(p)
		assert.GreaterOrEqual(t, keys, 1)
		assert.LessOrEqual(t, keys, 3)
	}
}

func TestSpiderAndAnthillBurstClicks(t *testing.T) {
	tests := []struct {
		region   config.Region
		min, max int
	}{
		{config.RegionSpider, 1, 3},
		{config.RegionAnthill, 2, 4},
	}

	for _, tt := range tests {
		g := NewMovementGenerator(discardLogger(), config.ProfileNormal, tt.region)
		for i := 0; i < 100; i++ {
			clicks := 0
			for _, s := range g.Generate() {
				if c, ok := s.(step.Click); ok {
					clicks++
					inside := c.X >= attackArea.Min.X && c.X <= attackArea.Max.X &&
						c.Y >= attackArea.Min.Y && c.Y <= attackArea.Max.Y
					assert.True(t, inside, "click outside attack area: %v", c)
				}
			}
			assert.GreaterOrEqual(t, clicks, tt.min, tt.region)
			assert.LessOrEqual(t, clicks, tt.max, tt.region)
		}
	}
}

func TestDesertMovesMoreWithShorterHolds(t *testing.T) {
	g := NewMovementGenerator(discardLogger(), config.ProfileConservative, config.RegionDesert)
	for i := 0; i < 100; i++ {
		p := g.Generate()
		keys := countKeys(p)
		assert.GreaterOrEqual(t, keys, 3)
		assert.LessOrEqual(t, keys, 6)
		for _, s := range p {
			if k, ok := s.(step.KeyPress); ok {
				assert.LessOrEqual(t, k.Hold, 300*time.Millisecond)
			}
		}
	}
}

func TestUnknownRegionFallbackLoggedOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	g := NewMovementGenerator(logger, config.ProfileNormal, "volcano")
	for i := 0; i < 10; i++ {
		g.Generate()
	}

	assert.Equal(t, 1, strings.Count(buf.String(), "Unknown region"))
	assert.Equal(t, config.Region("volcano"), g.Region())
}

func TestKnownRegionDoesNotLogFallback(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	g := NewMovementGenerator(logger, config.ProfileNormal, config.RegionAnthill)
	g.Generate()

	assert.False(t, g.Fallback())
	assert.Empty(t, buf.String())
}

func TestDefaultRegionIsProfileDrivenWithoutWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	g := NewMovementGenerator(logger, config.ProfileConservative, config.NormalizeRegion(" Default "))

	assert.False(t, g.Fallback())
	assert.Equal(t, config.RegionDefault, g.Region())
	assert.Empty(t, buf.String())
	for i := 0; i < 200; i++ {
		keys := countKeys(g.Generate())
		assert.GreaterOrEqual(t, keys, 1)
		assert.LessOrEqual(t, keys, 3)
	}
}

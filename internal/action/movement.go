package action

import (
	"image"
	"log/slog"
	"math/rand"
	"time"

	"github.com/hectorgimenez/afkbot/internal/action/step"
	"github.com/hectorgimenez/afkbot/internal/config"
	"github.com/hectorgimenez/afkbot/internal/utils"
)

type intRange struct{ min, max int }

type durRange struct{ min, max time.Duration }

func (r intRange) roll() int {
	return utils.RandRng(r.min, r.max)
}

func (r durRange) roll() time.Duration {
	return utils.RandomDuration(r.min, r.max)
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// regionLayout describes the shape of the patterns generated for a region.
type regionLayout struct {
	anchors     []image.Point // known safe spots, one is clicked at the start of every pattern
	keys        intRange
	hold        durRange
	postDelay   durRange
	clickChance float64 // probability of a single attack click after the key steps
	bursts      intRange
	burstWait   durRange
	tailWait    durRange // zero means the pattern ends on the last burst wait
}

type profileLimits struct {
	keys    intRange
	maxHold time.Duration
}

var movementKeys = []string{"w", "a", "s", "d"}

// Attack clicks land inside this rectangle, both corners inclusive.
var attackArea = image.Rect(300, 200, 1000, 700)

var profileTable = map[config.Profile]profileLimits{
	config.ProfileAggressive:   {keys: intRange{2, 5}, maxHold: ms(800)},
	config.ProfileNormal:       {keys: intRange{2, 4}, maxHold: ms(1000)},
	config.ProfileConservative: {keys: intRange{1, 3}, maxHold: ms(1200)},
}

var regionLayouts = map[config.Region]regionLayout{
	config.RegionSewers: {
		anchors:   []image.Point{{X: 400, Y: 300}, {X: 500, Y: 400}, {X: 350, Y: 450}},
		keys:      intRange{1, 3},
		hold:      durRange{ms(50), ms(200)},
		postDelay: durRange{ms(50), ms(200)},
		tailWait:  durRange{ms(500), ms(1500)},
	},
	// Static hazards, keep moving with short corrections.
	config.RegionDesert: {
		keys:        intRange{3, 6},
		hold:        durRange{ms(100), ms(300)},
		postDelay:   durRange{ms(50), ms(150)},
		clickChance: 0.5,
		tailWait:    durRange{ms(300), ms(800)},
	},
	config.RegionSpider: {
		keys:      intRange{4, 8},
		hold:      durRange{ms(50), ms(150)},
		postDelay: durRange{ms(50), ms(100)},
		bursts:    intRange{1, 3},
		burstWait: durRange{ms(100), ms(300)},
	},
	config.RegionAnthill: {
		keys:      intRange{1, 3},
		hold:      durRange{ms(100), ms(400)},
		postDelay: durRange{ms(100), ms(300)},
		bursts:    intRange{2, 4},
		burstWait: durRange{ms(200), ms(500)},
	},
}

func profileLayout(p config.Profile) regionLayout {
	limits, found := profileTable[p]
	if !found {
		limits = profileTable[config.ProfileNormal]
	}

	return regionLayout{
		keys:        limits.keys,
		hold:        durRange{ms(100), limits.maxHold},
		postDelay:   durRange{ms(50), ms(200)},
		clickChance: 0.3,
		tailWait:    durRange{ms(500), ms(1500)},
	}
}

// MovementGenerator builds the idle movement pattern executed on every cycle of the main loop.
type MovementGenerator struct {
	logger   *slog.Logger
	profile  config.Profile
	region   config.Region
	fallback bool
	layout   regionLayout
}

// NewMovementGenerator selects the layout for the given region. The default region and unknown regions use the
// profile driven layout, an unknown region is logged here once and not on every generated pattern.
func NewMovementGenerator(logger *slog.Logger, profile config.Profile, region config.Region) *MovementGenerator {
	g := &MovementGenerator{
		logger:  logger,
		profile: profile,
		region:  region,
	}

	layout, found := regionLayouts[region]
	switch {
	case found:
	case region == config.RegionDefault:
		layout = profileLayout(profile)
	default:
		g.fallback = true
		layout = profileLayout(profile)
		logger.Warn("Unknown region, using default movement strategy",
			slog.String("region", string(region)),
			slog.String("profile", string(profile)))
	}
	g.layout = layout

	return g
}

func (g *MovementGenerator) Region() config.Region {
	return g.region
}

// Fallback reports whether the generator is using the profile driven layout because the region was unknown.
func (g *MovementGenerator) Fallback() bool {
	return g.fallback
}

func (g *MovementGenerator) Generate() step.Pattern {
	l := g.layout
	pattern := make(step.Pattern, 0, l.keys.max+2*l.bursts.max+3)

	if len(l.anchors) > 0 {
		a := l.anchors[rand.Intn(len(l.anchors))]
		pattern = append(pattern, step.Click{X: a.X, Y: a.Y, Button: step.LeftButton})
	}

	for i := l.keys.roll(); i > 0; i-- {
		pattern = append(pattern, step.KeyPress{
			Key:       movementKeys[rand.Intn(len(movementKeys))],
			Hold:      l.hold.roll(),
			PostDelay: l.postDelay.roll(),
		})
	}

	if l.clickChance > 0 && rand.Float64() < l.clickChance {
		pattern = append(pattern, randomAttack())
	}

	if l.bursts.max > 0 {
		for i := l.bursts.roll(); i > 0; i-- {
			pattern = append(pattern, randomAttack(), step.Wait{Duration: l.burstWait.roll()})
		}
	}

	if l.tailWait.max > 0 || !pattern.EndsWithWait() {
		pattern = append(pattern, step.Wait{Duration: l.tailWait.roll()})
	}

	return pattern
}

func randomAttack() step.Click {
	return step.Click{
		X:      utils.RandRng(attackArea.Min.X, attackArea.Max.X),
		Y:      utils.RandRng(attackArea.Min.Y, attackArea.Max.Y),
		Button: step.LeftButton,
	}
}

package vision

import "github.com/hectorgimenez/afkbot/internal/game"

const (
	ReasonDisconnected = "disconnected"
	ReasonGameClosed   = "game_closed"
	ReasonUnknown      = "unknown"
)

type Health struct {
	Reason string
}

func (h Health) Normal() bool {
	return h.Reason == ""
}

// Detection maps an abnormal health to StateAbnormal, a normal one to NoMatch.
func (h Health) Detection() Detection {
	if h.Normal() {
		return Detection{}
	}
	return Abnormal(h.Reason)
}

// HealthClassifier decides whether the game looks healthy on a capture. Real classifiers (disconnect banner,
// closed window) plug in here.
type HealthClassifier func(c game.Capture) Health

// AlwaysNormal never reports a problem.
func AlwaysNormal(game.Capture) Health {
	return Health{}
}

func (d *Detector) DetectHealth(c game.Capture) Health {
	if c.Empty() {
		return Health{}
	}
	return d.classify(c)
}

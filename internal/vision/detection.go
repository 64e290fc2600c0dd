package vision

import "fmt"

type Kind int

const (
	NoMatch Kind = iota
	PopupFound
	StateAbnormal
)

func (k Kind) String() string {
	switch k {
	case PopupFound:
		return "popup_found"
	case StateAbnormal:
		return "state_abnormal"
	default:
		return "no_match"
	}
}

// Detection is the outcome of analysing a single capture. X and Y are only set for PopupFound and Reason only
// for StateAbnormal.
type Detection struct {
	Kind   Kind
	X, Y   int
	Reason string
}

func Popup(x, y int) Detection {
	return Detection{Kind: PopupFound, X: x, Y: y}
}

func Abnormal(reason string) Detection {
	return Detection{Kind: StateAbnormal, Reason: reason}
}

func (d Detection) Found() bool {
	return d.Kind == PopupFound
}

func (d Detection) String() string {
	switch d.Kind {
	case PopupFound:
		return fmt.Sprintf("popup at (%d, %d)", d.X, d.Y)
	case StateAbnormal:
		return "abnormal: " + d.Reason
	default:
		return "no match"
	}
}

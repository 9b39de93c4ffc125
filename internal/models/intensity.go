package models

import "fmt"

// IntensityScale identifies which shake-intensity convention a value is
// expressed in; the three appear in different regional feeds.
type IntensityScale int

const (
	ScaleUnknown IntensityScale = iota
	ScaleShindo
	ScaleMercalli
	ScaleLiedu
)

func (s IntensityScale) String() string {
	switch s {
	case ScaleShindo:
		return "Shindo"
	case ScaleMercalli:
		return "Mercalli"
	case ScaleLiedu:
		return "Liedu"
	default:
		return "unknown"
	}
}

// shindoSteps are the half-step values the JMA Shindo scale actually uses
// between whole numbers 4 and 7.
var shindoSteps = []float64{4.5, 5.4, 5.5, 6.4, 6.5}

// Intensity is an enumerated shake-intensity reading on a given scale,
// ordered 0-12 with Shindo half-steps (§3).
type Intensity struct {
	Scale IntensityScale
	Value float64
}

// NormalizeShindo snaps a raw Shindo reading in [4, 7] to the nearest legal
// step; readings outside that range are returned unchanged.
func NormalizeShindo(raw float64) float64 {
	if raw < 4 || raw > 7 {
		return raw
	}
	best := raw
	bestDelta := 1e9
	candidates := append([]float64{0, 1, 2, 3, 4, 5, 6, 7}, shindoSteps...)
	for _, c := range candidates {
		d := abs(raw - c)
		if d < bestDelta {
			bestDelta = d
			best = c
		}
	}
	return best
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Compare orders two intensities by raw value, independent of scale. Events
// fusing children from mixed scales accept this as an approximation — the
// alternative (refusing to compare) would make Event.Intensity's "max"
// aggregation (§3) impossible across multi-source events.
func (i Intensity) Compare(o Intensity) int {
	switch {
	case i.Value < o.Value:
		return -1
	case i.Value > o.Value:
		return 1
	default:
		return 0
	}
}

func (i Intensity) String() string {
	if i.Scale == ScaleShindo {
		return fmt.Sprintf("Shindo %.1f", i.Value)
	}
	return fmt.Sprintf("%s %.0f", i.Scale, i.Value)
}

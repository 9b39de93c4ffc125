package models

// Magnitude is a dimensioned earthquake size estimate. Values at or above
// 9.7 are treated as bogus sensor/parse garbage and reset to 3.0 (§3, §8).
type Magnitude struct {
	Value float64
	Unit  string
}

const bogusMagnitudeFloor = 9.7
const bogusMagnitudeReset = 3.0

// NewMagnitude builds a Magnitude, clamping bogus values.
func NewMagnitude(value float64, unit string) Magnitude {
	if unit == "" {
		unit = "M"
	}
	m := Magnitude{Value: value, Unit: unit}
	m.clampBogus()
	return m
}

func (m *Magnitude) clampBogus() {
	if m.Value >= bogusMagnitudeFloor {
		m.Value = bogusMagnitudeReset
	}
}

// IsBogus reports whether the raw value would have been clamped.
func (m Magnitude) IsBogus(raw float64) bool {
	return raw >= bogusMagnitudeFloor
}

func (m Magnitude) String() string {
	return m.Unit + " " + ftoa(m.Value)
}

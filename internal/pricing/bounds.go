package pricing

import "math"

// Bounds clamps raw distances into the serviceable pricing range.
type Bounds struct {
	MinEffectiveKm float64
	MaxDeliveryKm  float64
}

func NewBounds(minKm, maxKm float64) Bounds {
	return Bounds{MinEffectiveKm: minKm, MaxDeliveryKm: maxKm}
}

// Clamp never fails: NaN and values below the minimum map to the minimum,
// values above the maximum map to the maximum.
func (b Bounds) Clamp(km float64) float64 {
	if math.IsNaN(km) || km < b.MinEffectiveKm {
		return b.MinEffectiveKm
	}
	if km > b.MaxDeliveryKm {
		return b.MaxDeliveryKm
	}
	return Round2(km)
}

// WithinRange reports whether a raw distance is serviceable.
func (b Bounds) WithinRange(rawKm float64) bool {
	return rawKm <= b.MaxDeliveryKm
}

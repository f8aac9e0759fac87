package pricing

import (
	"math"

	"bakery-backend/internal/domain"
)

// ComputeCost applies a zone's pricing to an effective distance.
// Free shipping waives the total but base and distance components are still
// reported. The total is never negative.
func ComputeCost(effectiveKm float64, zp domain.ZonePricing, orderAmount float64) domain.FeeBreakdown {
	base := orZero(zp.BasePrice)
	perKm := orZero(zp.PricePerKm)
	km := orZero(effectiveKm)

	distanceCost := Round2(km * perKm)
	baseCost := Round2(base)
	total := Round2(baseCost + distanceCost)
	if total < 0 {
		total = 0
	}

	fb := domain.FeeBreakdown{
		BaseCost:     baseCost,
		DistanceCost: distanceCost,
		TotalCost:    total,
	}

	if QualifiesForFreeShipping(zp.FreeShippingThreshold, orderAmount) {
		fb.TotalCost = 0
		fb.FreeShippingApplied = true
	}
	return fb
}

// QualifiesForFreeShipping requires a positive threshold and an order amount
// at or above it.
func QualifiesForFreeShipping(threshold *float64, orderAmount float64) bool {
	if threshold == nil || math.IsNaN(*threshold) || *threshold <= 0 {
		return false
	}
	return orderAmount >= *threshold
}

func orZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

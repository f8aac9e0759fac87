package pricing

import (
	"sort"

	"bakery-backend/internal/domain"
)

// ApplyOverride merges a branch override into a zone's pricing, field by field.
// Each nil override field inherits the zone value; a non-nil value (zero
// included) replaces it. Inactive overrides or overrides for another branch
// leave the zone pricing untouched.
func ApplyOverride(zone domain.ShippingZone, override *domain.BranchZoneOverride, branchID int64) domain.ZonePricing {
	zoneID := zone.ID
	zp := domain.ZonePricing{
		ZoneID:                &zoneID,
		NameEn:                zone.NameEn,
		NameAr:                zone.NameAr,
		MinDistanceKm:         zone.MinDistanceKm,
		MaxDistanceKm:         zone.MaxDistanceKm,
		BasePrice:             zone.BasePrice,
		PricePerKm:            zone.PricePerKm,
		FreeShippingThreshold: copyFloat(zone.FreeShippingThreshold),
	}

	if override == nil || !override.IsActive || override.BranchID != branchID || override.ZoneID != zone.ID {
		return zp
	}

	if override.CustomBasePrice != nil {
		zp.BasePrice = *override.CustomBasePrice
		zp.OverrideApplied = true
	}
	if override.CustomPricePerKm != nil {
		zp.PricePerKm = *override.CustomPricePerKm
		zp.OverrideApplied = true
	}
	if override.CustomFreeThreshold != nil {
		zp.FreeShippingThreshold = copyFloat(override.CustomFreeThreshold)
		zp.OverrideApplied = true
	}
	return zp
}

// FallbackPricing is used when no zone covers the distance.
func FallbackPricing(cfg domain.ShippingConfig) domain.ZonePricing {
	return domain.ZonePricing{
		NameEn:        "Default",
		NameAr:        "افتراضي",
		MinDistanceKm: cfg.MinEffectiveKm,
		MaxDistanceKm: cfg.MaxDeliveryKm,
		BasePrice:     cfg.DefaultFee,
		PricePerKm:    0,
		IsFallback:    true,
	}
}

// SortZones orders zones by sort order, then id, so resolution is deterministic.
func SortZones(zones []domain.ZoneWithOverride) {
	sort.SliceStable(zones, func(i, j int) bool {
		if zones[i].Zone.SortOrder != zones[j].Zone.SortOrder {
			return zones[i].Zone.SortOrder < zones[j].Zone.SortOrder
		}
		return zones[i].Zone.ID < zones[j].Zone.ID
	})
}

// ResolveZone picks the first active zone (in the given order) whose inclusive
// range contains effectiveKm and merges the branch override into it. When no
// zone matches, the fallback is returned unchanged.
func ResolveZone(zones []domain.ZoneWithOverride, effectiveKm float64, branchID int64, fallback domain.ZonePricing) domain.ZonePricing {
	for _, zw := range zones {
		if !zw.Zone.IsActive || !zw.Zone.Contains(effectiveKm) {
			continue
		}
		return ApplyOverride(zw.Zone, zw.Override, branchID)
	}
	return fallback
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

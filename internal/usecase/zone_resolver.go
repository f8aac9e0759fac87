package usecase

import (
	"context"
	"fmt"
	"time"

	"bakery-backend/internal/domain"
	"bakery-backend/internal/infrastructure/metrics"
	"bakery-backend/internal/pricing"
	"bakery-backend/pkg/cache"
	"bakery-backend/pkg/logger"
)

// ZoneResolver selects the pricing tier for a distance and branch. Zone
// listings are cached per branch; the cache holds immutable copies.
type ZoneResolver struct {
	zoneRepo domain.ZoneRepository
	cache    cache.CacheService
	cacheTTL time.Duration
	fallback domain.ZonePricing
	metrics  *metrics.Metrics
}

func NewZoneResolver(zoneRepo domain.ZoneRepository, c cache.CacheService, cacheTTL time.Duration, cfg domain.ShippingConfig, m *metrics.Metrics) *ZoneResolver {
	return &ZoneResolver{
		zoneRepo: zoneRepo,
		cache:    c,
		cacheTTL: cacheTTL,
		fallback: pricing.FallbackPricing(cfg),
		metrics:  m,
	}
}

// Resolve never fails because of a coverage gap; it fails only when the
// zone listing cannot be loaded.
func (r *ZoneResolver) Resolve(ctx context.Context, effectiveKm float64, branchID int64) (domain.ZonePricing, error) {
	zones, err := r.zones(ctx, branchID)
	if err != nil {
		return domain.ZonePricing{}, err
	}

	zp := pricing.ResolveZone(zones, effectiveKm, branchID, r.fallback)
	if zp.IsFallback {
		log := logger.WithBranchID(*logger.WithContext(ctx), branchID)
		log.Warn().
			Float64("effective_distance_km", effectiveKm).
			Float64("fallback_fee", zp.BasePrice).
			Msg("ZoneResolver: no zone covers distance, using fallback fee")
	}
	return zp, nil
}

// PricingTable returns every active zone with the branch's overrides merged.
func (r *ZoneResolver) PricingTable(ctx context.Context, branchID int64) ([]domain.ZonePricing, error) {
	zones, err := r.zones(ctx, branchID)
	if err != nil {
		return nil, err
	}

	table := make([]domain.ZonePricing, 0, len(zones))
	for _, zw := range zones {
		if !zw.Zone.IsActive {
			continue
		}
		table = append(table, pricing.ApplyOverride(zw.Zone, zw.Override, branchID))
	}
	return table, nil
}

// Invalidate drops cached zone listings for one branch, or all when branchID is 0.
func (r *ZoneResolver) Invalidate(branchID int64) {
	if r.cache == nil {
		return
	}
	if branchID == 0 {
		r.cache.Flush()
		return
	}
	r.cache.Delete(cache.ZonesKey(branchID))
}

func (r *ZoneResolver) zones(ctx context.Context, branchID int64) ([]domain.ZoneWithOverride, error) {
	key := cache.ZonesKey(branchID)
	if r.cache != nil {
		if val, found := r.cache.Get(key); found {
			if zones, ok := val.([]domain.ZoneWithOverride); ok {
				r.metrics.RecordZoneCacheLookup(true)
				return zones, nil
			}
		}
		r.metrics.RecordZoneCacheLookup(false)
	}

	zones, err := r.zoneRepo.ListActiveZonesWithOverrides(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("%w: list zones for branch %d: %w", domain.ErrRepositoryFailure, branchID, err)
	}

	sorted := make([]domain.ZoneWithOverride, len(zones))
	copy(sorted, zones)
	pricing.SortZones(sorted)

	if r.cache != nil {
		r.cache.Set(key, sorted, r.cacheTTL)
	}
	return sorted, nil
}

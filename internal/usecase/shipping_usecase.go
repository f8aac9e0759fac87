package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"bakery-backend/internal/domain"
	"bakery-backend/internal/infrastructure/metrics"
	"bakery-backend/internal/pricing"
	"bakery-backend/pkg/logger"
)

type shippingUsecase struct {
	branchRepo domain.BranchRepository
	resolver   *ZoneResolver
	calcLogger *CalculationLogger
	metrics    *metrics.Metrics

	cfg    domain.ShippingConfig
	geo    pricing.Geo
	bounds pricing.Bounds
}

// NewShippingUsecase wires the pricing engine. cfg is copied and never
// mutated, so the usecase is safe for concurrent use.
func NewShippingUsecase(branchRepo domain.BranchRepository, resolver *ZoneResolver, calcLogger *CalculationLogger, cfg domain.ShippingConfig, m *metrics.Metrics) domain.ShippingUsecase {
	return &shippingUsecase{
		branchRepo: branchRepo,
		resolver:   resolver,
		calcLogger: calcLogger,
		metrics:    m,
		cfg:        cfg,
		geo:        pricing.NewGeo(cfg.EarthRadiusKm),
		bounds:     pricing.NewBounds(cfg.MinEffectiveKm, cfg.MaxDeliveryKm),
	}
}

// CalculateShipping prices a delivery from a branch to a customer.
//
// Customers beyond the maximum delivery distance are not rejected: the fee is
// computed on the clamped distance and IsWithinRange is false, leaving the
// decision to block the order to checkout.
func (u *shippingUsecase) CalculateShipping(ctx context.Context, in domain.ShippingInput) (*domain.ShippingCalculationResult, error) {
	start := time.Now()

	result, err := u.calculate(ctx, in)
	if err != nil {
		u.metrics.RecordCalculationFailure(domain.ErrorCode(err))
		return nil, err
	}

	u.metrics.RecordCalculation(result.IsWithinRange, result.FreeShippingApplied, result.Pricing.IsFallback, time.Since(start))
	u.calcLogger.Record(result, in.OrderID)
	return result, nil
}

func (u *shippingUsecase) calculate(ctx context.Context, in domain.ShippingInput) (*domain.ShippingCalculationResult, error) {
	// 1. Validate
	if in.CustomerLat == nil {
		return nil, fmt.Errorf("%w: customer_lat is required", domain.ErrMissingParameter)
	}
	if in.CustomerLon == nil {
		return nil, fmt.Errorf("%w: customer_lon is required", domain.ErrMissingParameter)
	}
	if in.BranchID == nil {
		return nil, fmt.Errorf("%w: branch_id is required", domain.ErrMissingParameter)
	}
	if math.IsNaN(in.OrderAmount) || math.IsInf(in.OrderAmount, 0) || in.OrderAmount < 0 {
		return nil, fmt.Errorf("%w: order_amount must be a non-negative number", domain.ErrInvalidOrderAmount)
	}
	branchID := *in.BranchID

	// 2. Branch
	branch, err := u.branchRepo.GetActiveBranchByID(ctx, branchID)
	if err != nil {
		if errors.Is(err, domain.ErrBranchNotFound) {
			return nil, fmt.Errorf("%w: branch %d is missing or inactive", domain.ErrBranchNotFound, branchID)
		}
		return nil, fmt.Errorf("%w: load branch %d: %w", domain.ErrRepositoryFailure, branchID, err)
	}
	if branch == nil || !branch.IsActive {
		return nil, fmt.Errorf("%w: branch %d is missing or inactive", domain.ErrBranchNotFound, branchID)
	}

	// 3. Branch coordinates
	if !branch.HasCoordinates() {
		return nil, fmt.Errorf("%w: branch %d has no latitude/longitude", domain.ErrBranchCoordinatesMissing, branchID)
	}

	// 4-5. Distances
	rawKm, err := u.geo.Distance(*branch.Latitude, *branch.Longitude, *in.CustomerLat, *in.CustomerLon)
	if err != nil {
		return nil, err
	}
	effectiveKm := u.bounds.Clamp(rawKm)

	// 6. Zone
	zp, err := u.resolver.Resolve(ctx, effectiveKm, branchID)
	if err != nil {
		return nil, err
	}

	// 7. Fee
	fee := pricing.ComputeCost(effectiveKm, zp, in.OrderAmount)

	// 8. Result
	result := &domain.ShippingCalculationResult{
		DistanceKm:            effectiveKm,
		ZoneID:                zp.ZoneID,
		ZoneName:              zp.Name(in.Lang),
		BaseCost:              fee.BaseCost,
		DistanceCost:          fee.DistanceCost,
		TotalCost:             fee.TotalCost,
		FreeShippingApplied:   fee.FreeShippingApplied,
		FreeShippingThreshold: zp.FreeShippingThreshold,
		OrderAmount:           pricing.Round2(in.OrderAmount),
		RawDistanceKm:         rawKm,
		EffectiveDistanceKm:   effectiveKm,
		IsWithinRange:         u.bounds.WithinRange(rawKm),
		MaxDeliveryDistance:   u.cfg.MaxDeliveryKm,
		BranchID:              branchID,
		Pricing:               zp,
	}

	if !result.IsWithinRange {
		log := logger.WithBranchID(*logger.WithContext(ctx), branchID)
		log.Info().
			Float64("raw_distance_km", rawKm).
			Float64("max_delivery_km", u.cfg.MaxDeliveryKm).
			Msg("ShippingUsecase: customer outside delivery range, priced on clamped distance")
	}

	return result, nil
}

// FindNearestBranch returns the closest active branch with coordinates.
func (u *shippingUsecase) FindNearestBranch(ctx context.Context, lat, lon float64) (*domain.NearestBranch, error) {
	if err := pricing.ValidateCoordinate(lat, lon); err != nil {
		return nil, err
	}

	branches, err := u.branchRepo.ListActiveBranches(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list branches: %w", domain.ErrRepositoryFailure, err)
	}

	nearest, err := pricing.FindNearest(u.geo, branches, lat, lon)
	if err != nil {
		return nil, err
	}
	return &nearest, nil
}

// ListBranchPricing returns the effective zone pricing table for a branch.
func (u *shippingUsecase) ListBranchPricing(ctx context.Context, branchID int64) ([]domain.ZonePricing, error) {
	if _, err := u.branchRepo.GetActiveBranchByID(ctx, branchID); err != nil {
		if errors.Is(err, domain.ErrBranchNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: load branch %d: %w", domain.ErrRepositoryFailure, branchID, err)
	}
	return u.resolver.PricingTable(ctx, branchID)
}

package postgres

import (
	"context"
	"time"

	"bakery-backend/internal/domain"
)

const insertCalculationLog = `INSERT INTO shipping_calculation_logs (
	id, order_id, branch_id, zone_id, raw_distance_km, effective_distance_km,
	base_cost, distance_cost, total_cost, order_amount,
	free_shipping_applied, is_within_range, is_fallback_zone, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

type calculationLogRepository struct {
	db DBTX
}

func NewCalculationLogRepository(db DBTX) domain.CalculationLogRepository {
	return &calculationLogRepository{db: db}
}

func (r *calculationLogRepository) InsertCalculationLog(ctx context.Context, e *domain.ShippingCalculationLog) error {
	start := time.Now()
	_, err := r.db.Exec(ctx, insertCalculationLog, calculationLogArgs(e)...)
	logQuery(ctx, "InsertCalculationLog", start, err)
	return err
}

func calculationLogArgs(e *domain.ShippingCalculationLog) []interface{} {
	return []interface{}{
		e.ID,
		e.OrderID,
		e.BranchID,
		e.ZoneID,
		float64ToNumeric(e.RawDistanceKm),
		float64ToNumeric(e.EffectiveDistanceKm),
		float64ToNumeric(e.BaseCost),
		float64ToNumeric(e.DistanceCost),
		float64ToNumeric(e.TotalCost),
		float64ToNumeric(e.OrderAmount),
		e.FreeShippingApplied,
		e.IsWithinRange,
		e.IsFallbackZone,
		e.CreatedAt,
	}
}

package postgres

import (
	"context"
	"time"

	"bakery-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
)

// Only the branch's active override is joined, so at most one row per zone.
const listActiveZonesWithOverrides = `SELECT
	z.id, z.name_en, z.name_ar, COALESCE(z.description_en, ''), COALESCE(z.description_ar, ''),
	z.min_distance_km, z.max_distance_km, z.base_price, z.price_per_km, z.free_shipping_threshold,
	z.sort_order, z.is_active,
	o.branch_id, o.custom_base_price, o.custom_price_per_km, o.custom_free_threshold, o.is_active
FROM shipping_zones z
LEFT JOIN branch_zone_overrides o
	ON o.zone_id = z.id AND o.branch_id = $1 AND o.is_active = TRUE
WHERE z.is_active = TRUE
ORDER BY z.sort_order ASC, z.id ASC`

type zoneRepository struct {
	db DBTX
}

func NewZoneRepository(db DBTX) domain.ZoneRepository {
	return &zoneRepository{db: db}
}

type zoneOverrideRow struct {
	ID                    int64
	NameEn                string
	NameAr                string
	DescriptionEn         string
	DescriptionAr         string
	MinDistanceKm         pgtype.Numeric
	MaxDistanceKm         pgtype.Numeric
	BasePrice             pgtype.Numeric
	PricePerKm            pgtype.Numeric
	FreeShippingThreshold pgtype.Numeric
	SortOrder             int32
	IsActive              bool

	OverrideBranchID    pgtype.Int8
	CustomBasePrice     pgtype.Numeric
	CustomPricePerKm    pgtype.Numeric
	CustomFreeThreshold pgtype.Numeric
	OverrideIsActive    pgtype.Bool
}

func (r *zoneOverrideRow) scanTargets() []interface{} {
	return []interface{}{
		&r.ID, &r.NameEn, &r.NameAr, &r.DescriptionEn, &r.DescriptionAr,
		&r.MinDistanceKm, &r.MaxDistanceKm, &r.BasePrice, &r.PricePerKm, &r.FreeShippingThreshold,
		&r.SortOrder, &r.IsActive,
		&r.OverrideBranchID, &r.CustomBasePrice, &r.CustomPricePerKm, &r.CustomFreeThreshold, &r.OverrideIsActive,
	}
}

func (r zoneOverrideRow) toDomain() domain.ZoneWithOverride {
	zw := domain.ZoneWithOverride{
		Zone: domain.ShippingZone{
			ID:                    r.ID,
			NameEn:                r.NameEn,
			NameAr:                r.NameAr,
			DescriptionEn:         r.DescriptionEn,
			DescriptionAr:         r.DescriptionAr,
			MinDistanceKm:         numericToFloat64(r.MinDistanceKm),
			MaxDistanceKm:         numericToFloat64(r.MaxDistanceKm),
			BasePrice:             numericToFloat64(r.BasePrice),
			PricePerKm:            numericToFloat64(r.PricePerKm),
			FreeShippingThreshold: numericToFloat64Ptr(r.FreeShippingThreshold),
			SortOrder:             int(r.SortOrder),
			IsActive:              r.IsActive,
		},
	}

	// LEFT JOIN miss: every override column is NULL
	if !r.OverrideBranchID.Valid {
		return zw
	}
	zw.Override = &domain.BranchZoneOverride{
		BranchID:            r.OverrideBranchID.Int64,
		ZoneID:              r.ID,
		CustomBasePrice:     numericToFloat64Ptr(r.CustomBasePrice),
		CustomPricePerKm:    numericToFloat64Ptr(r.CustomPricePerKm),
		CustomFreeThreshold: numericToFloat64Ptr(r.CustomFreeThreshold),
		IsActive:            r.OverrideIsActive.Valid && r.OverrideIsActive.Bool,
	}
	return zw
}

func (r *zoneRepository) ListActiveZonesWithOverrides(ctx context.Context, branchID int64) ([]domain.ZoneWithOverride, error) {
	start := time.Now()
	rows, err := r.db.Query(ctx, listActiveZonesWithOverrides, branchID)
	if err != nil {
		logQuery(ctx, "ListActiveZonesWithOverrides", start, err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.ZoneWithOverride
	for rows.Next() {
		var row zoneOverrideRow
		if err := rows.Scan(row.scanTargets()...); err != nil {
			return nil, err
		}
		result = append(result, row.toDomain())
	}
	err = rows.Err()
	logQuery(ctx, "ListActiveZonesWithOverrides", start, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

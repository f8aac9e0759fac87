package domain

import (
	"context"
	"time"
)

// --- Reference Data (read-only for the pricing engine) ---

type Branch struct {
	ID        int64     `json:"id"`
	NameEn    string    `json:"nameEn"`
	NameAr    string    `json:"nameAr"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	Address   string    `json:"address"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (b Branch) HasCoordinates() bool {
	return b.Latitude != nil && b.Longitude != nil
}

type ShippingZone struct {
	ID                    int64    `json:"id"`
	NameEn                string   `json:"nameEn"`
	NameAr                string   `json:"nameAr"`
	DescriptionEn         string   `json:"descriptionEn"`
	DescriptionAr         string   `json:"descriptionAr"`
	MinDistanceKm         float64  `json:"minDistanceKm"`
	MaxDistanceKm         float64  `json:"maxDistanceKm"`
	BasePrice             float64  `json:"basePrice"`
	PricePerKm            float64  `json:"pricePerKm"`
	FreeShippingThreshold *float64 `json:"freeShippingThreshold"`
	SortOrder             int      `json:"sortOrder"`
	IsActive              bool     `json:"isActive"`
}

// Contains reports whether km falls inside the zone's inclusive range.
func (z ShippingZone) Contains(km float64) bool {
	return km >= z.MinDistanceKm && km <= z.MaxDistanceKm
}

// BranchZoneOverride replaces zone pricing for one branch. A nil field means
// "inherit the zone value"; a non-nil zero is a real price.
type BranchZoneOverride struct {
	BranchID            int64    `json:"branchId"`
	ZoneID              int64    `json:"zoneId"`
	CustomBasePrice     *float64 `json:"customBasePrice"`
	CustomPricePerKm    *float64 `json:"customPricePerKm"`
	CustomFreeThreshold *float64 `json:"customFreeThreshold"`
	IsActive            bool     `json:"isActive"`
}

// ZoneWithOverride is one row of the zone listing for a branch.
type ZoneWithOverride struct {
	Zone     ShippingZone
	Override *BranchZoneOverride
}

// --- Pricing Values ---

// ZonePricing is the merged pricing snapshot used for one calculation.
type ZonePricing struct {
	ZoneID                *int64   `json:"zoneId"`
	NameEn                string   `json:"nameEn"`
	NameAr                string   `json:"nameAr"`
	MinDistanceKm         float64  `json:"minDistanceKm"`
	MaxDistanceKm         float64  `json:"maxDistanceKm"`
	BasePrice             float64  `json:"basePrice"`
	PricePerKm            float64  `json:"pricePerKm"`
	FreeShippingThreshold *float64 `json:"freeShippingThreshold"`
	OverrideApplied       bool     `json:"overrideApplied"`
	IsFallback            bool     `json:"isFallback"`
}

// Name returns the zone name for the requested language, defaulting to English.
func (z ZonePricing) Name(lang string) string {
	if lang == "ar" && z.NameAr != "" {
		return z.NameAr
	}
	return z.NameEn
}

type FeeBreakdown struct {
	BaseCost            float64
	DistanceCost        float64
	TotalCost           float64
	FreeShippingApplied bool
}

type NearestBranch struct {
	Branch     Branch  `json:"branch"`
	DistanceKm float64 `json:"distance_km"`
}

// ShippingConfig is loaded once at startup and never mutated.
type ShippingConfig struct {
	EarthRadiusKm  float64
	MinEffectiveKm float64
	MaxDeliveryKm  float64
	DefaultFee     float64
}

// DefaultShippingConfig mirrors the production defaults.
func DefaultShippingConfig() ShippingConfig {
	return ShippingConfig{
		EarthRadiusKm:  6371,
		MinEffectiveKm: 0,
		MaxDeliveryKm:  100,
		DefaultFee:     3,
	}
}

type ShippingInput struct {
	CustomerLat *float64
	CustomerLon *float64
	BranchID    *int64
	OrderAmount float64
	OrderID     *string
	Lang        string
}

// ShippingCalculationResult keeps the wire field names of the public API.
type ShippingCalculationResult struct {
	DistanceKm            float64     `json:"distance_km"`
	ZoneID                *int64      `json:"zone_id"`
	ZoneName              string      `json:"zone_name"`
	BaseCost              float64     `json:"base_cost"`
	DistanceCost          float64     `json:"distance_cost"`
	TotalCost             float64     `json:"total_cost"`
	FreeShippingApplied   bool        `json:"free_shipping_applied"`
	FreeShippingThreshold *float64    `json:"free_shipping_threshold"`
	OrderAmount           float64     `json:"order_amount"`
	RawDistanceKm         float64     `json:"raw_distance_km"`
	EffectiveDistanceKm   float64     `json:"effective_distance_km"`
	IsWithinRange         bool        `json:"is_within_range"`
	MaxDeliveryDistance   float64     `json:"max_delivery_distance"`
	BranchID              int64       `json:"-"`
	Pricing               ZonePricing `json:"-"`
}

// ShippingCalculationLog is the analytics row written after each calculation.
type ShippingCalculationLog struct {
	ID                  string
	OrderID             *string
	BranchID            int64
	ZoneID              *int64
	RawDistanceKm       float64
	EffectiveDistanceKm float64
	BaseCost            float64
	DistanceCost        float64
	TotalCost           float64
	OrderAmount         float64
	FreeShippingApplied bool
	IsWithinRange       bool
	IsFallbackZone      bool
	CreatedAt           time.Time
}

// --- Interfaces ---

type BranchRepository interface {
	// GetActiveBranchByID returns ErrBranchNotFound when the branch is absent or inactive.
	GetActiveBranchByID(ctx context.Context, id int64) (*Branch, error)
	ListActiveBranches(ctx context.Context) ([]Branch, error)
}

type ZoneRepository interface {
	// ListActiveZonesWithOverrides returns active zones ordered by sort order,
	// each paired with the branch's active override when one exists.
	ListActiveZonesWithOverrides(ctx context.Context, branchID int64) ([]ZoneWithOverride, error)
}

type CalculationLogRepository interface {
	InsertCalculationLog(ctx context.Context, entry *ShippingCalculationLog) error
}

type ShippingUsecase interface {
	CalculateShipping(ctx context.Context, in ShippingInput) (*ShippingCalculationResult, error)
	FindNearestBranch(ctx context.Context, lat, lon float64) (*NearestBranch, error)
	ListBranchPricing(ctx context.Context, branchID int64) ([]ZonePricing, error)
}

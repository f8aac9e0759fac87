package usecase

import (
	"bytes"
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"bakery-backend/internal/domain"
	infracache "bakery-backend/internal/infrastructure/cache"
	"bakery-backend/internal/infrastructure/metrics"
	"bakery-backend/internal/pricing"
	"bakery-backend/pkg/logger"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ammanLat = 31.9539
	ammanLon = 35.9106
)

// Test fixtures
func createTestBranch(id int64) domain.Branch {
	return domain.Branch{
		ID:        id,
		NameEn:    "Abdoun Bakery",
		NameAr:    "مخبز عبدون",
		Latitude:  f64(ammanLat),
		Longitude: f64(ammanLon),
		Address:   "Abdoun, Amman",
		IsActive:  true,
	}
}

func createTestZones() []domain.ShippingZone {
	return []domain.ShippingZone{
		{ID: 1, NameEn: "City", NameAr: "المدينة", MinDistanceKm: 0, MaxDistanceKm: 10, BasePrice: 2.00, PricePerKm: 0.50, FreeShippingThreshold: f64(50), SortOrder: 1, IsActive: true},
		{ID: 2, NameEn: "Suburbs", NameAr: "الضواحي", MinDistanceKm: 10, MaxDistanceKm: 40, BasePrice: 3.00, PricePerKm: 0.40, SortOrder: 2, IsActive: true},
		{ID: 3, NameEn: "Regional", NameAr: "إقليمي", MinDistanceKm: 40, MaxDistanceKm: 100, BasePrice: 5.00, PricePerKm: 0.25, SortOrder: 3, IsActive: true},
	}
}

type testEnv struct {
	branches *fakeBranchRepo
	zones    *fakeZoneRepo
	logs     *fakeLogRepo
	logger   *CalculationLogger
	metrics  *metrics.Metrics
	uc       domain.ShippingUsecase
	resolver *ZoneResolver
}

func newTestEnv(t *testing.T, branches ...domain.Branch) *testEnv {
	t.Helper()
	env := &testEnv{
		branches: newFakeBranchRepo(branches...),
		zones:    &fakeZoneRepo{zones: createTestZones()},
		logs:     &fakeLogRepo{},
		metrics:  metrics.New(metrics.DefaultConfig("shipping-test")),
	}
	cfg := domain.DefaultShippingConfig()
	env.resolver = NewZoneResolver(env.zones, infracache.NewMemoryCache(time.Minute, time.Minute), time.Minute, cfg, env.metrics)
	env.logger = NewCalculationLogger(env.logs, time.Second, env.metrics)
	env.uc = NewShippingUsecase(env.branches, env.resolver, env.logger, cfg, env.metrics)
	return env
}

func (e *testEnv) drainLogs(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, e.logger.Shutdown(ctx))
}

func input(lat, lon float64, branchID int64, amount float64) domain.ShippingInput {
	return domain.ShippingInput{
		CustomerLat: f64(lat),
		CustomerLon: f64(lon),
		BranchID:    i64(branchID),
		OrderAmount: amount,
	}
}

func TestCalculateShippingSameLocation(t *testing.T) {
	env := newTestEnv(t, createTestBranch(1))

	res, err := env.uc.CalculateShipping(context.Background(), input(ammanLat, ammanLon, 1, 30))
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.RawDistanceKm)
	assert.Equal(t, 0.0, res.EffectiveDistanceKm)
	assert.Equal(t, 0.0, res.DistanceKm)
	assert.Equal(t, 0.0, res.DistanceCost)
	assert.Equal(t, 2.00, res.TotalCost)
	require.NotNil(t, res.ZoneID)
	assert.Equal(t, int64(1), *res.ZoneID)
	assert.Equal(t, "City", res.ZoneName)
	assert.True(t, res.IsWithinRange)
	assert.Equal(t, 100.0, res.MaxDeliveryDistance)
	assert.Equal(t, 30.0, res.OrderAmount)
	assert.False(t, res.FreeShippingApplied)
}

func TestCalculateShippingOutOfRangeIsClampedNotRejected(t *testing.T) {
	env := newTestEnv(t, createTestBranch(1))
	kmPerDegree := pricing.EarthRadiusKm * math.Pi / 180

	res, err := env.uc.CalculateShipping(context.Background(), input(ammanLat+150/kmPerDegree, ammanLon, 1, 30))
	require.NoError(t, err)

	assert.InDelta(t, 150.0, res.RawDistanceKm, 0.01)
	assert.Equal(t, 100.0, res.EffectiveDistanceKm)
	assert.False(t, res.IsWithinRange)
	require.NotNil(t, res.ZoneID)
	assert.Equal(t, int64(3), *res.ZoneID)
	assert.Equal(t, 25.00, res.DistanceCost, "priced on 100 km, not 150")
	assert.Equal(t, 30.00, res.TotalCost)
}

func TestCalculateShippingOutOfRangeLogsBranch(t *testing.T) {
	env := newTestEnv(t, createTestBranch(4))
	kmPerDegree := pricing.EarthRadiusKm * math.Pi / 180

	var buf bytes.Buffer
	reqLogger := zerolog.New(&buf)
	ctx := logger.NewContext(context.Background(), &reqLogger)

	_, err := env.uc.CalculateShipping(ctx, input(ammanLat+150/kmPerDegree, ammanLon, 4, 30))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"branch_id":4`)
	assert.Contains(t, buf.String(), "outside delivery range")
}

func TestCalculateShippingFreeShipping(t *testing.T) {
	env := newTestEnv(t, createTestBranch(1))

	res, err := env.uc.CalculateShipping(context.Background(), input(ammanLat, ammanLon, 1, 60))
	require.NoError(t, err)

	assert.True(t, res.FreeShippingApplied)
	assert.Equal(t, 0.0, res.TotalCost)
	assert.Equal(t, 2.00, res.BaseCost)
	require.NotNil(t, res.FreeShippingThreshold)
	assert.Equal(t, 50.0, *res.FreeShippingThreshold)
}

func TestCalculateShippingBranchOverride(t *testing.T) {
	env := newTestEnv(t, createTestBranch(7), createTestBranch(8))
	env.zones.overrides = []domain.BranchZoneOverride{
		{BranchID: 7, ZoneID: 1, CustomBasePrice: f64(1.50), IsActive: true},
	}

	res7, err := env.uc.CalculateShipping(context.Background(), input(ammanLat, ammanLon, 7, 10))
	require.NoError(t, err)
	assert.Equal(t, 1.50, res7.BaseCost)
	assert.Equal(t, 1.50, res7.TotalCost)

	res8, err := env.uc.CalculateShipping(context.Background(), input(ammanLat, ammanLon, 8, 10))
	require.NoError(t, err)
	assert.Equal(t, 2.00, res8.BaseCost)
}

func TestCalculateShippingFallbackZone(t *testing.T) {
	env := newTestEnv(t, createTestBranch(1))
	env.zones.zones = env.zones.zones[1:] // leave 0-10 km uncovered

	res, err := env.uc.CalculateShipping(context.Background(), input(ammanLat, ammanLon, 1, 10))
	require.NoError(t, err)

	assert.Nil(t, res.ZoneID)
	assert.Equal(t, 3.00, res.TotalCost)
	assert.Nil(t, res.FreeShippingThreshold)
	assert.True(t, res.Pricing.IsFallback)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.FallbackZoneTotal))
}

func TestCalculateShippingArabicZoneName(t *testing.T) {
	env := newTestEnv(t, createTestBranch(1))
	in := input(ammanLat, ammanLon, 1, 10)
	in.Lang = "ar"

	res, err := env.uc.CalculateShipping(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "المدينة", res.ZoneName)
}

func TestCalculateShippingValidation(t *testing.T) {
	tests := []struct {
		name    string
		in      domain.ShippingInput
		wantErr error
	}{
		{"missing lat", domain.ShippingInput{CustomerLon: f64(ammanLon), BranchID: i64(1)}, domain.ErrMissingParameter},
		{"missing lon", domain.ShippingInput{CustomerLat: f64(ammanLat), BranchID: i64(1)}, domain.ErrMissingParameter},
		{"missing branch", domain.ShippingInput{CustomerLat: f64(ammanLat), CustomerLon: f64(ammanLon)}, domain.ErrMissingParameter},
		{"NaN latitude", input(math.NaN(), ammanLon, 1, 10), domain.ErrInvalidCoordinate},
		{"latitude out of range", input(95, ammanLon, 1, 10), domain.ErrInvalidCoordinate},
		{"negative order amount", input(ammanLat, ammanLon, 1, -1), domain.ErrInvalidOrderAmount},
		{"NaN order amount", input(ammanLat, ammanLon, 1, math.NaN()), domain.ErrInvalidOrderAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, createTestBranch(1))
			res, err := env.uc.CalculateShipping(context.Background(), tt.in)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCalculateShippingBranchNotFound(t *testing.T) {
	inactive := createTestBranch(2)
	inactive.IsActive = false

	for _, branchID := range []int64{2, 99} {
		env := newTestEnv(t, createTestBranch(1), inactive)

		res, err := env.uc.CalculateShipping(context.Background(), input(ammanLat, ammanLon, branchID, 10))
		assert.Nil(t, res)
		assert.ErrorIs(t, err, domain.ErrBranchNotFound)
		assert.Equal(t, 0, env.zones.callCount(), "no zone lookup or fee work")

		env.drainLogs(t)
		assert.Empty(t, env.logs.snapshot())
		assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.CalculationFailures.WithLabelValues("shipping-test", "BRANCH_NOT_FOUND")))
	}
}

func TestCalculateShippingBranchCoordinatesMissing(t *testing.T) {
	branch := createTestBranch(1)
	branch.Longitude = nil
	env := newTestEnv(t, branch)

	_, err := env.uc.CalculateShipping(context.Background(), input(ammanLat, ammanLon, 1, 10))
	assert.ErrorIs(t, err, domain.ErrBranchCoordinatesMissing)
}

func TestCalculateShippingRepositoryFailures(t *testing.T) {
	dbErr := errors.New("connection refused")

	t.Run("branch repository", func(t *testing.T) {
		env := newTestEnv(t, createTestBranch(1))
		env.branches.err = dbErr

		_, err := env.uc.CalculateShipping(context.Background(), input(ammanLat, ammanLon, 1, 10))
		assert.ErrorIs(t, err, domain.ErrRepositoryFailure)
		assert.ErrorIs(t, err, dbErr)
		assert.NotErrorIs(t, err, domain.ErrBranchNotFound)
	})

	t.Run("zone repository", func(t *testing.T) {
		env := newTestEnv(t, createTestBranch(1))
		env.zones.err = dbErr

		_, err := env.uc.CalculateShipping(context.Background(), input(ammanLat, ammanLon, 1, 10))
		assert.ErrorIs(t, err, domain.ErrRepositoryFailure)
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestCalculateShippingRecordsCalculationLog(t *testing.T) {
	env := newTestEnv(t, createTestBranch(1))
	in := input(ammanLat, ammanLon, 1, 30)
	in.OrderID = str("ORD-1001")

	res, err := env.uc.CalculateShipping(context.Background(), in)
	require.NoError(t, err)
	env.drainLogs(t)

	entries := env.logs.snapshot()
	require.Len(t, entries, 1)
	assert.Equal(t, "ORD-1001", *entries[0].OrderID)
	assert.Equal(t, int64(1), entries[0].BranchID)
	assert.Equal(t, res.TotalCost, entries[0].TotalCost)
	assert.Equal(t, res.ZoneID, entries[0].ZoneID)
	assert.NotEmpty(t, entries[0].ID)
}

func TestCalculateShippingSurvivesLoggingFailure(t *testing.T) {
	env := newTestEnv(t, createTestBranch(1))
	env.logs.err = errors.New("analytics table locked")

	res, err := env.uc.CalculateShipping(context.Background(), input(ammanLat, ammanLon, 1, 30))
	require.NoError(t, err)
	assert.Equal(t, 2.00, res.TotalCost)

	env.drainLogs(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.CalculationLogFailures))
}

func TestCalculateShippingCachesZones(t *testing.T) {
	env := newTestEnv(t, createTestBranch(1))

	for i := 0; i < 3; i++ {
		_, err := env.uc.CalculateShipping(context.Background(), input(ammanLat, ammanLon, 1, 10))
		require.NoError(t, err)
	}
	assert.Equal(t, 1, env.zones.callCount())

	env.resolver.Invalidate(1)
	_, err := env.uc.CalculateShipping(context.Background(), input(ammanLat, ammanLon, 1, 10))
	require.NoError(t, err)
	assert.Equal(t, 2, env.zones.callCount())
}

func TestCalculateShippingConcurrent(t *testing.T) {
	env := newTestEnv(t, createTestBranch(1), createTestBranch(2))

	var wg sync.WaitGroup
	errs := make(chan error, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			branchID := int64(1 + i%2)
			res, err := env.uc.CalculateShipping(context.Background(), input(ammanLat+0.05, ammanLon, branchID, 10))
			if err != nil {
				errs <- err
				return
			}
			if res.TotalCost <= 0 {
				errs <- errors.New("unexpected zero fee")
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	env.drainLogs(t)
	assert.Len(t, env.logs.snapshot(), 100)
}

func TestFindNearestBranch(t *testing.T) {
	irbid := createTestBranch(2)
	irbid.Latitude, irbid.Longitude = f64(32.5556), f64(35.8500)
	noCoords := createTestBranch(3)
	noCoords.Latitude = nil
	env := newTestEnv(t, createTestBranch(1), irbid, noCoords)

	nb, err := env.uc.FindNearestBranch(context.Background(), 32.55, 35.85)
	require.NoError(t, err)
	assert.Equal(t, int64(2), nb.Branch.ID)

	_, err = env.uc.FindNearestBranch(context.Background(), math.NaN(), 35.85)
	assert.ErrorIs(t, err, domain.ErrInvalidCoordinate)
}

func TestFindNearestBranchNoneAvailable(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.uc.FindNearestBranch(context.Background(), ammanLat, ammanLon)
	assert.ErrorIs(t, err, domain.ErrNoBranchAvailable)

	env.branches.err = errors.New("timeout")
	_, err = env.uc.FindNearestBranch(context.Background(), ammanLat, ammanLon)
	assert.ErrorIs(t, err, domain.ErrRepositoryFailure)
}

func TestListBranchPricing(t *testing.T) {
	env := newTestEnv(t, createTestBranch(7))
	env.zones.overrides = []domain.BranchZoneOverride{
		{BranchID: 7, ZoneID: 2, CustomPricePerKm: f64(0), IsActive: true},
	}

	table, err := env.uc.ListBranchPricing(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, table, 3)
	assert.Equal(t, 0.50, table[0].PricePerKm)
	assert.Equal(t, 0.0, table[1].PricePerKm)
	assert.True(t, table[1].OverrideApplied)

	_, err = env.uc.ListBranchPricing(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrBranchNotFound)
}

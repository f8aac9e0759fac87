package v1

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"bakery-backend/internal/domain"
	"bakery-backend/pkg/logger"
	"bakery-backend/pkg/utils"
)

// ZoneCacheInvalidator drops cached zone listings; branchID 0 drops all branches.
type ZoneCacheInvalidator interface {
	Invalidate(branchID int64)
}

type AdminShippingHandler struct {
	usecase domain.ShippingUsecase
	cache   ZoneCacheInvalidator
}

func NewAdminShippingHandler(usecase domain.ShippingUsecase, cache ZoneCacheInvalidator) *AdminShippingHandler {
	return &AdminShippingHandler{usecase: usecase, cache: cache}
}

type ZonePricingResponse struct {
	BranchID int64                `json:"branchId"`
	Zones    []domain.ZonePricing `json:"zones"`
}

// GetBranchPricing handles GET /api/v1/admin/shipping/zones?branch_id=N
func (h *AdminShippingHandler) GetBranchPricing(w http.ResponseWriter, r *http.Request) {
	branchID, err := branchIDParam(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	zones, err := h.usecase.ListBranchPricing(r.Context(), branchID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if zones == nil {
		zones = []domain.ZonePricing{}
	}

	utils.WriteJSON(w, http.StatusOK, ZonePricingResponse{BranchID: branchID, Zones: zones})
}

// FlushZoneCache handles DELETE /api/v1/admin/shipping/cache[?branch_id=N]
func (h *AdminShippingHandler) FlushZoneCache(w http.ResponseWriter, r *http.Request) {
	var branchID int64
	if r.URL.Query().Get("branch_id") != "" {
		id, err := branchIDParam(r)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		branchID = id
	}

	h.cache.Invalidate(branchID)
	logFlush(r.Context(), branchID)

	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Zone cache flushed"})
}

func branchIDParam(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("branch_id")
	if raw == "" {
		return 0, fmt.Errorf("%w: branch_id is required", domain.ErrMissingParameter)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: branch_id %q", errMalformedBody, raw)
	}
	return id, nil
}

func logFlush(ctx context.Context, branchID int64) {
	event := logger.WithContext(ctx).Info()
	if user, ok := ctx.Value(domain.UserContextKey).(*domain.User); ok && user != nil {
		event = event.Str("user_id", user.ID)
	}
	event.Int64("branch_id", branchID).Msg("Zone cache flushed")
}

package v1

import (
	"net/http"
	"strings"

	"bakery-backend/internal/domain"
	"bakery-backend/pkg/utils"

	"github.com/go-playground/validator/v10"
)

type ShippingHandler struct {
	usecase  domain.ShippingUsecase
	validate *validator.Validate
}

func NewShippingHandler(usecase domain.ShippingUsecase) *ShippingHandler {
	return &ShippingHandler{usecase: usecase, validate: newValidator()}
}

type CalculateShippingRequest struct {
	CustomerLat *float64 `json:"customer_lat" validate:"required,gte=-90,lte=90"`
	CustomerLon *float64 `json:"customer_lon" validate:"required,gte=-180,lte=180"`
	BranchID    *int64   `json:"branch_id" validate:"required"`
	OrderAmount float64  `json:"order_amount" validate:"gte=0"`
	OrderID     *string  `json:"order_id,omitempty" validate:"omitempty,max=64"`
}

type NearestBranchRequest struct {
	CustomerLat *float64 `json:"customer_lat" validate:"required,gte=-90,lte=90"`
	CustomerLon *float64 `json:"customer_lon" validate:"required,gte=-180,lte=180"`
}

// CalculateShipping handles POST /api/v1/shipping/calculate
func (h *ShippingHandler) CalculateShipping(w http.ResponseWriter, r *http.Request) {
	var req CalculateShippingRequest
	if err := decodeAndValidate(w, r, h.validate, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	result, err := h.usecase.CalculateShipping(r.Context(), domain.ShippingInput{
		CustomerLat: req.CustomerLat,
		CustomerLon: req.CustomerLon,
		BranchID:    req.BranchID,
		OrderAmount: req.OrderAmount,
		OrderID:     req.OrderID,
		Lang:        requestLang(r),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, result)
}

// FindNearestBranch handles POST /api/v1/shipping/nearest-branch
func (h *ShippingHandler) FindNearestBranch(w http.ResponseWriter, r *http.Request) {
	var req NearestBranchRequest
	if err := decodeAndValidate(w, r, h.validate, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	nearest, err := h.usecase.FindNearestBranch(r.Context(), *req.CustomerLat, *req.CustomerLon)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, nearest)
}

// requestLang picks the zone name language from ?lang=, then Accept-Language.
func requestLang(r *http.Request) string {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = r.Header.Get("Accept-Language")
	}
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(lang)), "ar") {
		return "ar"
	}
	return "en"
}

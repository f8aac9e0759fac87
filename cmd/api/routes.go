package main

import (
	"net/http"

	"bakery-backend/config"
	"bakery-backend/internal/delivery/http/middleware"
	v1 "bakery-backend/internal/delivery/http/v1"
	"bakery-backend/internal/infrastructure/metrics"

	"github.com/NYTimes/gziphandler"
)

type handlers struct {
	shipping      *v1.ShippingHandler
	adminShipping *v1.AdminShippingHandler
	health        *v1.HealthHandler
}

func registerRoutes(mux *http.ServeMux, h handlers, m *metrics.Metrics) {
	mux.HandleFunc("POST /api/v1/shipping/calculate", h.shipping.CalculateShipping)
	mux.HandleFunc("POST /api/v1/shipping/nearest-branch", h.shipping.FindNearestBranch)

	mux.Handle("GET /api/v1/admin/shipping/zones", middleware.AdminOnly(h.adminShipping.GetBranchPricing))
	mux.Handle("DELETE /api/v1/admin/shipping/cache", middleware.AdminOnly(h.adminShipping.FlushZoneCache))

	mux.HandleFunc("GET /api/v1/health", h.health.Check)
	mux.HandleFunc("GET /health", h.health.Check) // Support root health check for Load Balancers
	mux.Handle("GET /metrics", m.Handler())
}

// withMiddleware wraps mux outermost first: gzip, request logger, rate
// limiter, CORS. Throttled requests still get a request ID and are counted.
func withMiddleware(mux http.Handler, cfg *config.Config, rl *middleware.RateLimiter, m *metrics.Metrics) http.Handler {
	handler := middleware.NewCORSMiddleware(cfg)(mux)
	handler = rl.Middleware()(handler)
	handler = middleware.NewRequestLogger(m)(handler)
	return gziphandler.GzipHandler(handler)
}

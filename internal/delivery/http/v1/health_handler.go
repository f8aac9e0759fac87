package v1

import (
	"context"
	"net/http"
	"time"

	"bakery-backend/pkg/logger"
	"bakery-backend/pkg/utils"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	timeout time.Duration
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db, timeout: 2 * time.Second}
}

// Check serves /health for load balancers and /api/v1/health.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		logger.WithContext(r.Context()).Warn().Err(err).Msg("Health check: database unreachable")
		utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "db": "unreachable"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "db": "connected"})
}

package middleware

import (
	"net/http"
	"strings"
	"time"

	"bakery-backend/internal/infrastructure/metrics"
	"bakery-backend/pkg/logger"
	"bakery-backend/pkg/utils"

	"github.com/google/uuid"
)

// NewRequestLogger logs all HTTP requests with timing and status and records
// them on m. The route pattern is used as the metric label to bound cardinality.
func NewRequestLogger(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.New().String()[:8]
			}

			reqLogger := logger.WithRequestID(requestID)
			r = r.WithContext(logger.NewContext(r.Context(), &reqLogger))
			w.Header().Set("X-Request-ID", requestID)

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)

			userID := ""
			if claims, err := utils.ExtractClaims(r); err == nil && claims != nil {
				userID = claims.UserID
			}

			logEvent := reqLogger.Info()
			if wrapped.statusCode >= 500 {
				logEvent = reqLogger.Error()
			} else if wrapped.statusCode >= 400 {
				logEvent = reqLogger.Warn()
			}

			logEvent.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("query", r.URL.RawQuery).
				Int("status", wrapped.statusCode).
				Dur("duration_ms", duration).
				Str("ip", getClientIP(r)).
				Str("origin", r.Header.Get("Origin")).
				Str("user_agent", r.UserAgent()).
				Str("user_id", userID).
				Msg("HTTP")

			m.RecordHTTPRequest(r.Method, routeLabel(r), wrapped.statusCode, duration)
		})
	}
}

// routeLabel returns the matched ServeMux pattern without its method prefix.
func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	if _, path, ok := strings.Cut(r.Pattern, " "); ok {
		return path
	}
	return r.Pattern
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// getClientIP extracts client IP from request
func getClientIP(r *http.Request) string {
	// First hop of X-Forwarded-For is the original client
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ip, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(ip)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

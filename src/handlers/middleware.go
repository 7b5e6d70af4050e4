package handlers

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/Skythrill256/yield-ranker-sub001/src/logger"
	"github.com/Skythrill256/yield-ranker-sub001/src/observability"
	"github.com/Skythrill256/yield-ranker-sub001/src/utils"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// APIKeyHeader carries the admin key.
const APIKeyHeader = "X-API-Key"

// ContextualLoggerMiddleware creates a logger with a requestID for each request.
func ContextualLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		ctxLogger := logger.L.With(slog.String("requestID", requestID))

		ctx := logger.ToContext(r.Context(), ctxLogger)
		ctx = context.WithValue(ctx, requestIDContextKey, requestID)

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestIDFromContext returns the request ID set by ContextualLoggerMiddleware.
func GetRequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDContextKey).(string)
	return id, ok
}

// MetricsMiddleware records request count and latency by chi route pattern,
// so path parameters do not explode label cardinality.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		observability.RecordHTTPRequest(route, r.Method, status, time.Since(start).Seconds())
	})
}

// APIKeyMiddleware guards admin routes. An empty configured key disables
// them entirely.
func APIKeyMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctxLogger := logger.FromContext(r.Context())
			if apiKey == "" {
				ctxLogger.Warn("Admin route called but ADMIN_API_KEY is not set", "path", r.URL.Path)
				utils.SendJSONError(w, "admin API is disabled", http.StatusServiceUnavailable)
				return
			}
			provided := r.Header.Get(APIKeyHeader)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				ctxLogger.Warn("Admin request rejected", "path", r.URL.Path, "hasKey", provided != "")
				utils.SendJSONError(w, "invalid API key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

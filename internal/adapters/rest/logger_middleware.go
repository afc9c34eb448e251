package rest

import (
	"net/http"
	"time"

	"web-larek/internal/constants"
	"web-larek/internal/contextkeys"
	"web-larek/internal/core/port"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// requestTraceID берет X-Trace-ID фронтенда, если это uuid, иначе выдает новый.
func requestTraceID(r *http.Request) string {
	if id, err := uuid.Parse(r.Header.Get(constants.HeaderXTraceID)); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// LoggerMiddleware кладет в контекст логгер с trace_id и пишет итог запроса.
// Уровень итоговой записи зависит от статуса: 5xx - Error, 4xx - Warn.
func LoggerMiddleware(logger port.LoggerPort) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := requestTraceID(r)
			w.Header().Set(constants.HeaderXTraceID, traceID)

			reqLogger := logger.WithFields(port.Fields{"trace_id": traceID})
			ctx := contextkeys.ContextWithTraceID(contextkeys.ContextWithLogger(r.Context(), reqLogger), traceID)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			started := time.Now()
			next.ServeHTTP(ww, r.WithContext(ctx))

			fields := port.Fields{
				"http_method": r.Method,
				"http_path":   r.URL.Path,
				"status_code": ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(started).Milliseconds(),
			}
			if rctx := chi.RouteContext(ctx); rctx != nil && rctx.RoutePattern() != "" {
				fields["route"] = rctx.RoutePattern()
			}

			switch status := ww.Status(); {
			case status >= http.StatusInternalServerError:
				reqLogger.Error("Request failed", nil, fields)
			case status >= http.StatusBadRequest:
				reqLogger.Warn("Request rejected", fields)
			default:
				reqLogger.Info("Request finished", fields)
			}
		})
	}
}

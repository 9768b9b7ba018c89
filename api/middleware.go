package api

import (
	"net/http"
	"time"

	persons "github.com/getpup/persons-api"
	"github.com/go-chi/chi/v5/middleware"
)

// requestLogger logs one line per request. A nil logger disables it.
func requestLogger(logger persons.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logger == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			keyvals := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			}

			switch {
			case status >= http.StatusInternalServerError:
				logger.Error(r.Context(), "http request", keyvals...)
			case status >= http.StatusBadRequest:
				logger.Warn(r.Context(), "http request", keyvals...)
			default:
				logger.Info(r.Context(), "http request", keyvals...)
			}
		})
	}
}

package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/cividup/cividup/internal/api/response"
)

// Recovery converts a handler panic into a 500 so one malformed report
// submission cannot take the intake endpoint down.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				slog.Error("panic while handling request",
					"panic", v,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				response.Error(w, http.StatusInternalServerError,
					"INTERNAL_ERROR", "An unexpected error occurred", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

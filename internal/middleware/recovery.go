package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"codefolio/internal/httputil"
)

// Recovery turns a handler panic into a logged internal_error problem
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						"error", err,
						"path", r.URL.Path,
						"method", r.Method,
						"stack", string(debug.Stack()),
					)

					httputil.RespondErrorWithExtras(w, http.StatusInternalServerError, "internal server error",
						map[string]interface{}{"code": "internal_error"})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

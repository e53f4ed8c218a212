package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"example.com/twitterfeed/internal/logger"
	"example.com/twitterfeed/internal/models"
)

// NewRecoveryMiddleware turns a panic in a handler into a 500 response.
func NewRecoveryMiddleware(l *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					l.Error("http", "panic recovered", fmt.Errorf("%v", rec),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.String("stack", string(debug.Stack())),
					)
					writeText(w, http.StatusInternalServerError, models.InternalMessage)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

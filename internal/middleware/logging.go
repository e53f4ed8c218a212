package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"example.com/twitterfeed/internal/logger"
	"example.com/twitterfeed/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// requestInfo is filled in by inner handlers so the outer logging middleware
// can see who made the request.
type requestInfo struct {
	userID int64
}

// statusRecorder wraps http.ResponseWriter and records the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

// Write records 200 when WriteHeader was not called.
func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// routePattern returns the matched chi pattern, or the raw path outside chi.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
		return "unmatched"
	}
	return r.URL.Path
}

// NewLoggingMiddleware logs one structured line per request with method,
// route, status, duration and the authenticated user when there is one.
// It also records request metrics when m is non-nil.
func NewLoggingMiddleware(l *logger.Logger, m *metrics.Collector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", requestID)

			info := &requestInfo{}
			r = r.WithContext(context.WithValue(r.Context(), requestCtxKey, info))
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rec, r)

			duration := time.Since(start)
			route := routePattern(r)
			if m != nil {
				m.ObserveRequest(route, r.Method, rec.statusCode, duration)
			}

			attrs := []slog.Attr{
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("route", route),
				slog.Int("status", rec.statusCode),
				slog.Float64("duration_ms", float64(duration.Nanoseconds())/float64(time.Millisecond)),
			}
			if info.userID != 0 {
				attrs = append(attrs, slog.Int64("user_id", info.userID))
			}

			switch {
			case rec.statusCode >= 500:
				l.Error("http", "http_request", nil, attrs...)
			case rec.statusCode >= 400:
				l.Warn("http", "http_request", attrs...)
			default:
				l.Info("http", "http_request", attrs...)
			}
		})
	}
}

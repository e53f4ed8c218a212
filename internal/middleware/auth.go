package middleware

import (
	"context"
	"net/http"
	"strings"

	"example.com/twitterfeed/internal/auth"
	"example.com/twitterfeed/internal/metrics"
)

type contextKey string

const (
	UserCtxKey    = contextKey("user_id")
	requestCtxKey = contextKey("request_info")
)

// MsgInvalidToken is the body of every authentication failure.
const MsgInvalidToken = "Invalid JWT Token"

// JWTAuth rejects requests without a valid bearer token and stores the
// token's user id in the request context. m may be nil.
func JWTAuth(tokens auth.TokenService, m *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// the scheme word is not checked, only the second word is used
			parts := strings.Split(r.Header.Get("Authorization"), " ")
			if len(parts) < 2 || parts[1] == "" {
				reject(w, m)
				return
			}

			userID, err := tokens.Verify(parts[1])
			if err != nil {
				reject(w, m)
				return
			}

			if info, ok := r.Context().Value(requestCtxKey).(*requestInfo); ok {
				info.userID = userID
			}
			ctx := context.WithValue(r.Context(), UserCtxKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func reject(w http.ResponseWriter, m *metrics.Collector) {
	if m != nil {
		m.AuthFailure()
	}
	writeText(w, http.StatusUnauthorized, MsgInvalidToken)
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

// UserIDFromContext returns the authenticated user id.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserCtxKey).(int64)
	return id, ok
}

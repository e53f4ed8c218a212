package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"example.com/twitterfeed/internal/auth"
	"example.com/twitterfeed/internal/logger"
	"example.com/twitterfeed/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTokens(t *testing.T) *auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService("middleware-test-secret")
	if err != nil {
		t.Fatalf("NewJWTService: %v", err)
	}
	return svc
}

// echoUser writes the user id found in the context.
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id, ok := UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "no user", http.StatusTeapot)
		return
	}
	w.Write([]byte(strings.Repeat("u", int(id))))
})

func TestJWTAuth_ValidToken(t *testing.T) {
	tokens := newTokens(t)
	token, _ := tokens.Issue(3)

	for _, header := range []string{"Bearer " + token, "Token " + token, "Bearer " + token + " trailing"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()

		JWTAuth(tokens, nil)(echoUser).ServeHTTP(w, req)

		if w.Code != http.StatusOK || w.Body.String() != "uuu" {
			t.Errorf("header %q: got %d %q", header, w.Code, w.Body.String())
		}
	}
}

func TestJWTAuth_Rejects(t *testing.T) {
	tokens := newTokens(t)
	other, _ := auth.NewJWTService("another-secret")
	foreign, _ := other.Issue(1)
	valid, _ := tokens.Issue(1)

	m := metrics.New(prometheus.NewRegistry())
	cases := map[string]string{
		"missing header": "",
		"no space":       "Bearer",
		"empty token":    "Bearer ",
		"double space":   "Bearer  " + valid,
		"garbage":        "Bearer not.a.jwt",
		"wrong secret":   "Bearer " + foreign,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()

			JWTAuth(tokens, m)(echoUser).ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", w.Code)
			}
			if w.Body.String() != MsgInvalidToken {
				t.Fatalf("body = %q, want %q", w.Body.String(), MsgInvalidToken)
			}
		})
	}
	if got := testutil.ToFloat64(m.AuthFailures); got != float64(len(cases)) {
		t.Errorf("auth failures = %v, want %d", got, len(cases))
	}
}

func TestLoggingMiddleware_LogsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewWithWriter(&buf)
	m := metrics.New(prometheus.NewRegistry())
	tokens := newTokens(t)
	token, _ := tokens.Issue(42)

	r := chi.NewRouter()
	r.Use(NewLoggingMiddleware(l, m))
	r.With(JWTAuth(tokens, nil)).Get("/tweets/{tweetId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodGet, "/tweets/7", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v\nraw: %s", err, buf.String())
	}

	if entry["method"] != "GET" {
		t.Errorf("method = %v, want GET", entry["method"])
	}
	if entry["route"] != "/tweets/{tweetId}" {
		t.Errorf("route = %v, want /tweets/{tweetId}", entry["route"])
	}
	if entry["status"] != float64(http.StatusCreated) {
		t.Errorf("status = %v, want 201", entry["status"])
	}
	if entry["user_id"] != float64(42) {
		t.Errorf("user_id = %v, want 42", entry["user_id"])
	}
	if entry["module"] != "http" {
		t.Errorf("module = %v, want http", entry["module"])
	}
	if _, ok := entry["duration_ms"]; !ok {
		t.Error("expected 'duration_ms' field in log entry")
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID response header")
	}

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/tweets/{tweetId}", "GET", "201")); got != 1 {
		t.Errorf("request counter = %v, want 1", got)
	}
}

func TestLoggingMiddleware_KeepsIncomingRequestID(t *testing.T) {
	var buf bytes.Buffer
	h := NewLoggingMiddleware(logger.NewWithWriter(&buf), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}
	if !strings.Contains(buf.String(), `"route":"/healthz"`) {
		t.Errorf("expected raw path as route outside chi, got %s", buf.String())
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	var buf bytes.Buffer
	h := NewRecoveryMiddleware(logger.NewWithWriter(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusInternalServerError || string(body) != "Internal Server Error" {
		t.Fatalf("got %d %q", resp.StatusCode, body)
	}
	if !strings.Contains(buf.String(), "panic recovered") || !strings.Contains(buf.String(), "boom") {
		t.Errorf("panic not logged: %s", buf.String())
	}
}

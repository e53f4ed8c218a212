package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_Counts(t *testing.T) {
	c := New(prometheus.NewRegistry())

	c.ObserveRequest("/tweets/{tweetId}/", "GET", 401, 5*time.Millisecond)
	c.ObserveRequest("/tweets/{tweetId}/", "GET", 401, time.Millisecond)
	c.AuthFailure()
	c.TweetCreated()
	c.TweetCreated()
	c.TweetDeleted()
	c.EventProcessed("archived")

	if got := testutil.ToFloat64(c.HTTPRequests.WithLabelValues("/tweets/{tweetId}/", "GET", "401")); got != 2 {
		t.Errorf("requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.AuthFailures); got != 1 {
		t.Errorf("auth failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.TweetsCreated); got != 2 {
		t.Errorf("tweets created = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.TweetsDeleted); got != 1 {
		t.Errorf("tweets deleted = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.EventsProcessed.WithLabelValues("archived")); got != 1 {
		t.Errorf("events archived = %v, want 1", got)
	}
}

func TestNew_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	New(reg)
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)
	c.TweetCreated()

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "twitterfeed_tweets_created_total 1") {
		t.Errorf("response should contain twitterfeed_tweets_created_total, got:\n%s", body)
	}
}

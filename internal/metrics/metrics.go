// Package metrics exposes Prometheus counters for the HTTP API and the
// archive worker.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds every metric the service records.
type Collector struct {
	HTTPRequests    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	AuthFailures    prometheus.Counter
	TweetsCreated   prometheus.Counter
	TweetsDeleted   prometheus.Counter
	EventsProcessed *prometheus.CounterVec
}

// New creates a Collector and registers it with reg.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "twitterfeed_http_requests_total",
			Help: "HTTP requests by route, method and status code",
		}, []string{"route", "method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "twitterfeed_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		AuthFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "twitterfeed_auth_failures_total",
			Help: "Requests rejected because of a missing or invalid bearer token",
		}),
		TweetsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "twitterfeed_tweets_created_total",
			Help: "Tweets created",
		}),
		TweetsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "twitterfeed_tweets_deleted_total",
			Help: "Tweets deleted by their owner",
		}),
		EventsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "twitterfeed_events_processed_total",
			Help: "Tweet events handled by the archive worker, by outcome",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.HTTPRequests,
		c.RequestDuration,
		c.AuthFailures,
		c.TweetsCreated,
		c.TweetsDeleted,
		c.EventsProcessed,
	)
	return c
}

func (c *Collector) ObserveRequest(route, method string, status int, d time.Duration) {
	c.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.RequestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

func (c *Collector) AuthFailure() { c.AuthFailures.Inc() }

func (c *Collector) TweetCreated() { c.TweetsCreated.Inc() }

func (c *Collector) TweetDeleted() { c.TweetsDeleted.Inc() }

// EventProcessed counts one worker outcome: archived, invalid or failed.
func (c *Collector) EventProcessed(outcome string) {
	c.EventsProcessed.WithLabelValues(outcome).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"example.com/twitterfeed/internal/access"
	"example.com/twitterfeed/internal/auth"
	"example.com/twitterfeed/internal/logger"
	"example.com/twitterfeed/internal/metrics"
	"example.com/twitterfeed/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	auth     *auth.Service
	access   *access.Service
	tokens   auth.TokenService
	health   Pinger
	metrics  *metrics.Collector
	gatherer prometheus.Gatherer
}

// Deps are the collaborators of the HTTP layer. Metrics and Gatherer may be
// nil, in which case /metrics is not mounted.
type Deps struct {
	Auth     *auth.Service
	Access   *access.Service
	Tokens   auth.TokenService
	Health   Pinger
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
}

var logg = logger.New()

func New(d Deps) *Server {
	return &Server{
		auth:     d.Auth,
		access:   d.Access,
		tokens:   d.Tokens,
		health:   d.Health,
		metrics:  d.Metrics,
		gatherer: d.Gatherer,
	}
}

// Routes builds the router: public registration, login and probes, and the
// bearer-protected tweet API.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.NewLoggingMiddleware(logg, s.metrics))
	r.Use(middleware.NewRecoveryMiddleware(logg))

	r.Post("/register", s.registerHandler)
	r.Post("/login", s.loginHandler)
	r.Get("/healthz", s.healthHandler)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(s.gatherer))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth(s.tokens, s.metrics))

		r.Get("/user/tweets/feed", s.feedHandler)
		r.Get("/user/following", s.followingHandler)
		r.Get("/user/followers", s.followersHandler)
		r.Get("/user/tweets", s.userTweetsHandler)
		r.Post("/user/tweets", s.createTweetHandler)

		r.Get("/tweets/{tweetId}", s.tweetHandler)
		r.Get("/tweets/{tweetId}/likes", s.likesHandler)
		r.Get("/tweets/{tweetId}/replies", s.repliesHandler)
		r.Delete("/tweets/{tweetId}", s.deleteTweetHandler)
	})
	return r
}

// Run serves HTTP (or HTTPS when both TLS files are set) until ctx is done,
// then shuts down gracefully.
func Run(ctx context.Context, s *Server, addr, certFile, keyFile string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second, // prevent slowloris attacks
		WriteTimeout:      10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if certFile != "" && keyFile != "" {
			logg.Info("server", "Starting HTTPS server on "+addr)
			err = srv.ListenAndServeTLS(certFile, keyFile)
		} else {
			logg.Info("server", "Starting HTTP server on "+addr)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			logg.Error("server", "Server stopped unexpectedly", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}
	logg.Info("server", "Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("server", "Error during server shutdown", err)
		return err
	}
	logg.Info("server", "Server stopped gracefully")
	return nil
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"example.com/twitterfeed/internal/access"
	"example.com/twitterfeed/internal/auth"
	"example.com/twitterfeed/internal/middleware"
	"example.com/twitterfeed/internal/models"
	"github.com/go-chi/chi/v5"
)

const (
	msgInvalidBody    = "Invalid request body"
	msgUserCreated    = "User created successfully"
	msgTweetCreated   = "Created a Tweet"
	msgTweetRemoved   = "Tweet Removed"
	maxBodyBytes      = 1 << 20
	healthPingTimeout = 2 * time.Second
)

type nameItem struct {
	Name string `json:"name"`
}

type userTweetItem struct {
	Tweet    string `json:"tweet"`
	DateTime string `json:"dateTime"`
}

// --- Response helpers ---

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logg.Error("http", "Failed to encode response", err)
	}
}

// writeError answers with the status and message carried by err. Internal
// failures are logged and answered with a generic message.
func writeError(w http.ResponseWriter, module string, err error) {
	var e *models.Error
	if !errors.As(err, &e) {
		e = models.Internal(err)
	}
	if e.Kind == models.KindInternal {
		logg.Error(module, "Request failed", e.Err)
	}
	writeText(w, e.Kind.Status(), e.Message)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeText(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	return true
}

// currentUser returns the id set by the JWT middleware.
func currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeText(w, http.StatusUnauthorized, middleware.MsgInvalidToken)
	}
	return id, ok
}

// tweetID parses the path parameter. A malformed id is answered like an
// unknown tweet.
func tweetID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "tweetId"), 10, 64)
	if err != nil {
		writeText(w, http.StatusUnauthorized, access.MsgInvalidRequest)
		return 0, false
	}
	return id, true
}

// --- Public handlers ---

// registerHandler creates an account.
// Expects JSON body: {"username", "password", "name", "gender"}
func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	var body auth.Registration
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.auth.Register(r.Context(), body); err != nil {
		writeError(w, "http/register", err)
		return
	}
	logg.Info("http/register", "User registered")
	writeText(w, http.StatusOK, msgUserCreated)
}

// loginHandler exchanges credentials for a bearer token.
// Returns JSON response: {"jwtToken": "<token>"}
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	token, err := s.auth.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		writeError(w, "http/login", err)
		return
	}
	writeJSON(w, map[string]string{"jwtToken": token})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			logg.Error("http/healthz", "Store ping failed", err)
			writeText(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
	}
	writeText(w, http.StatusOK, "ok")
}

// --- Protected handlers ---

// feedHandler returns the newest tweets of followed accounts.
func (s *Server) feedHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	feed, err := s.access.FeedFor(r.Context(), userID)
	if err != nil {
		writeError(w, "http/feed", err)
		return
	}
	writeJSON(w, feed)
}

func (s *Server) followingHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	names, err := s.access.FollowingOf(r.Context(), userID)
	if err != nil {
		writeError(w, "http/following", err)
		return
	}
	writeJSON(w, toNameItems(names))
}

func (s *Server) followersHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	names, err := s.access.FollowersOf(r.Context(), userID)
	if err != nil {
		writeError(w, "http/followers", err)
		return
	}
	writeJSON(w, toNameItems(names))
}

func toNameItems(names []string) []nameItem {
	items := make([]nameItem, 0, len(names))
	for _, n := range names {
		items = append(items, nameItem{Name: n})
	}
	return items
}

func (s *Server) tweetHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := tweetID(w, r)
	if !ok {
		return
	}
	detail, err := s.access.TweetDetail(r.Context(), id, userID)
	if err != nil {
		writeError(w, "http/tweet", err)
		return
	}
	writeJSON(w, detail)
}

func (s *Server) likesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := tweetID(w, r)
	if !ok {
		return
	}
	likes, err := s.access.LikesOf(r.Context(), id, userID)
	if err != nil {
		writeError(w, "http/likes", err)
		return
	}
	writeJSON(w, map[string][]string{"likes": likes})
}

func (s *Server) repliesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := tweetID(w, r)
	if !ok {
		return
	}
	replies, err := s.access.RepliesOf(r.Context(), id, userID)
	if err != nil {
		writeError(w, "http/replies", err)
		return
	}
	writeJSON(w, map[string][]models.Reply{"replies": replies})
}

func (s *Server) userTweetsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	tweets, err := s.access.UserTweets(r.Context(), userID)
	if err != nil {
		writeError(w, "http/tweets", err)
		return
	}
	items := make([]userTweetItem, 0, len(tweets))
	for _, t := range tweets {
		items = append(items, userTweetItem{Tweet: t.Tweet, DateTime: t.DateTime})
	}
	writeJSON(w, items)
}

// createTweetHandler stores a tweet for the caller.
// Expects JSON body: {"tweet": "text"}
func (s *Server) createTweetHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var body struct {
		Tweet string `json:"tweet"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if _, err := s.access.CreateTweet(r.Context(), userID, body.Tweet); err != nil {
		writeError(w, "http/tweets", err)
		return
	}
	if s.metrics != nil {
		s.metrics.TweetCreated()
	}
	writeText(w, http.StatusOK, msgTweetCreated)
}

func (s *Server) deleteTweetHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := tweetID(w, r)
	if !ok {
		return
	}
	if err := s.access.DeleteTweet(r.Context(), userID, id); err != nil {
		writeError(w, "http/tweets", err)
		return
	}
	if s.metrics != nil {
		s.metrics.TweetDeleted()
	}
	writeText(w, http.StatusOK, msgTweetRemoved)
}

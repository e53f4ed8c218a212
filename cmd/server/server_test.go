package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"example.com/twitterfeed/internal/access"
	"example.com/twitterfeed/internal/auth"
	appkafka "example.com/twitterfeed/internal/broker"
	"example.com/twitterfeed/internal/metrics"
	"example.com/twitterfeed/internal/models"
	"example.com/twitterfeed/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"
)

//
// --- Helpers ---
//

type testEnv struct {
	srv    *httptest.Server
	store  *store.MockStore
	kafka  *appkafka.MockKafka
	tokens *auth.JWTService
}

// send performs a request and returns status and body.
func send(t *testing.T, method, url string, body any, token string) (int, string) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("json.Marshal failed: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(data)
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func expect(t *testing.T, gotStatus int, gotBody string, wantStatus int, wantBody string) {
	t.Helper()
	if gotStatus != wantStatus || gotBody != wantBody {
		t.Fatalf("expected %d %q, got %d %q", wantStatus, wantBody, gotStatus, gotBody)
	}
}

//
// --- Setup test server ---
//

func newTestServer(t *testing.T, st store.StoreInterface) (*Server, *appkafka.MockKafka, *auth.JWTService) {
	t.Helper()
	tokens, err := auth.NewJWTService("test-secret")
	if err != nil {
		t.Fatalf("NewJWTService: %v", err)
	}
	kafka := &appkafka.MockKafka{}
	reg := prometheus.NewRegistry()
	s := New(Deps{
		Auth:     auth.NewService(st, auth.NewBcryptHasher(bcrypt.MinCost), tokens),
		Access:   access.NewService(st, appkafka.NewPublisher(kafka)),
		Tokens:   tokens,
		Health:   st,
		Metrics:  metrics.New(reg),
		Gatherer: reg,
	})
	return s, kafka, tokens
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	mockStore := store.NewMock()
	s, kafka, tokens := newTestServer(t, mockStore)
	srv := httptest.NewServer(s.Routes())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, store: mockStore, kafka: kafka, tokens: tokens}
}

// seedGraph creates alice, bob and carol; alice follows bob. Returns ids.
func (e *testEnv) seedGraph(t *testing.T) (alice, bob, carol int64) {
	t.Helper()
	ctx := context.Background()
	alice, _ = e.store.CreateUser(ctx, models.User{Username: "alice", Name: "Alice"})
	bob, _ = e.store.CreateUser(ctx, models.User{Username: "bob", Name: "Bob"})
	carol, _ = e.store.CreateUser(ctx, models.User{Username: "carol", Name: "Carol"})
	if err := e.store.AddFollow(ctx, models.Follow{FollowerUserID: alice, FollowingUserID: bob}); err != nil {
		t.Fatalf("AddFollow: %v", err)
	}
	return alice, bob, carol
}

func (e *testEnv) token(t *testing.T, userID int64) string {
	t.Helper()
	tok, err := e.tokens.Issue(userID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return tok
}

//
// --- Tests ---
//

func TestScenario_RegisterLoginTweet(t *testing.T) {
	env := setupTestServer(t)
	url := env.srv.URL

	reg := map[string]string{"username": "alice", "password": "secret1", "name": "Alice", "gender": "f"}
	status, body := send(t, http.MethodPost, url+"/register", reg, "")
	expect(t, status, body, http.StatusOK, "User created successfully")

	status, body = send(t, http.MethodPost, url+"/register", reg, "")
	expect(t, status, body, http.StatusBadRequest, "User already exists")

	status, body = send(t, http.MethodPost, url+"/login", map[string]string{"username": "alice", "password": "wrong"}, "")
	expect(t, status, body, http.StatusBadRequest, "Invalid password")

	status, body = send(t, http.MethodPost, url+"/login", map[string]string{"username": "alice", "password": "secret1"}, "")
	if status != http.StatusOK {
		t.Fatalf("login failed: %d %s", status, body)
	}
	var login struct {
		JWTToken string `json:"jwtToken"`
	}
	if err := json.Unmarshal([]byte(body), &login); err != nil || login.JWTToken == "" {
		t.Fatalf("invalid login response %q: %v", body, err)
	}

	status, body = send(t, http.MethodPost, url+"/user/tweets", map[string]string{"tweet": "hi"}, login.JWTToken)
	expect(t, status, body, http.StatusOK, "Created a Tweet")

	status, body = send(t, http.MethodGet, url+"/user/tweets", nil, login.JWTToken)
	if status != http.StatusOK {
		t.Fatalf("list tweets failed: %d %s", status, body)
	}
	var tweets []map[string]string
	if err := json.Unmarshal([]byte(body), &tweets); err != nil {
		t.Fatalf("invalid tweets response %q: %v", body, err)
	}
	if len(tweets) != 1 || tweets[0]["tweet"] != "hi" || len(tweets[0]) != 2 {
		t.Fatalf("unexpected tweets %v", tweets)
	}
	if _, err := time.Parse(models.DateTimeLayout, tweets[0]["dateTime"]); err != nil {
		t.Fatalf("dateTime %q is not ISO 8601: %v", tweets[0]["dateTime"], err)
	}

	written := env.kafka.Written()
	if len(written) != 1 || string(written[0].Key) != models.EventTweetCreated {
		t.Fatalf("expected one tweet_created event, got %+v", written)
	}
}

func TestRegister_Validation(t *testing.T) {
	env := setupTestServer(t)

	status, body := send(t, http.MethodPost, env.srv.URL+"/register",
		map[string]string{"username": "bob", "password": "12345", "name": "Bob", "gender": "m"}, "")
	expect(t, status, body, http.StatusBadRequest, "Password is too short")

	status, body = send(t, http.MethodPost, env.srv.URL+"/register", "{invalid-json", "")
	expect(t, status, body, http.StatusBadRequest, "Invalid request body")
}

func TestLogin_UnknownUser(t *testing.T) {
	env := setupTestServer(t)
	status, body := send(t, http.MethodPost, env.srv.URL+"/login",
		map[string]string{"username": "ghost", "password": "whatever"}, "")
	expect(t, status, body, http.StatusBadRequest, "Invalid user")
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	env := setupTestServer(t)
	routes := []struct{ method, path string }{
		{http.MethodGet, "/user/tweets/feed"},
		{http.MethodGet, "/user/following"},
		{http.MethodGet, "/user/followers"},
		{http.MethodGet, "/tweets/1"},
		{http.MethodGet, "/tweets/1/likes"},
		{http.MethodGet, "/tweets/1/replies"},
		{http.MethodGet, "/user/tweets"},
		{http.MethodPost, "/user/tweets"},
		{http.MethodDelete, "/tweets/1"},
	}
	for _, rt := range routes {
		for _, token := range []string{"", "garbage"} {
			status, body := send(t, rt.method, env.srv.URL+rt.path, nil, token)
			if status != http.StatusUnauthorized || body != "Invalid JWT Token" {
				t.Errorf("%s %s token=%q: got %d %q", rt.method, rt.path, token, status, body)
			}
		}
	}
}

func TestFeedFollowingFollowers(t *testing.T) {
	env := setupTestServer(t)
	alice, bob, carol := env.seedGraph(t)
	ctx := context.Background()
	for i, text := range []string{"b1", "b2", "b3", "b4", "b5"} {
		env.store.AddTweet(ctx, models.Tweet{Tweet: text, UserID: bob, DateTime: models.Stamp(time.Date(2024, 1, 1, 0, i, 0, 0, time.UTC))})
	}
	env.store.AddTweet(ctx, models.Tweet{Tweet: "c1", UserID: carol, DateTime: models.Stamp(time.Now())})

	status, body := send(t, http.MethodGet, env.srv.URL+"/user/tweets/feed", nil, env.token(t, alice))
	if status != http.StatusOK {
		t.Fatalf("feed failed: %d %s", status, body)
	}
	var feed []models.FeedItem
	if err := json.Unmarshal([]byte(body), &feed); err != nil {
		t.Fatalf("invalid feed %q: %v", body, err)
	}
	want := []string{"b5", "b4", "b3", "b2"}
	if len(feed) != len(want) {
		t.Fatalf("expected %d feed items, got %+v", len(want), feed)
	}
	for i, item := range feed {
		if item.Tweet != want[i] || item.Username != "bob" {
			t.Errorf("feed[%d] = %+v, want bob/%s", i, item, want[i])
		}
	}

	status, body = send(t, http.MethodGet, env.srv.URL+"/user/following", nil, env.token(t, alice))
	expect(t, status, strings.TrimSpace(body), http.StatusOK, `[{"name":"Bob"}]`)

	status, body = send(t, http.MethodGet, env.srv.URL+"/user/followers", nil, env.token(t, bob))
	expect(t, status, strings.TrimSpace(body), http.StatusOK, `[{"name":"Alice"}]`)

	status, body = send(t, http.MethodGet, env.srv.URL+"/user/followers", nil, env.token(t, carol))
	expect(t, status, strings.TrimSpace(body), http.StatusOK, `[]`)
}

func TestTweetReads_GatedByFollow(t *testing.T) {
	env := setupTestServer(t)
	alice, bob, carol := env.seedGraph(t)
	ctx := context.Background()
	bobTweet, _ := env.store.AddTweet(ctx, models.Tweet{Tweet: "from bob", UserID: bob, DateTime: "2024-01-01T00:00:00.000Z"})
	carolTweet, _ := env.store.AddTweet(ctx, models.Tweet{Tweet: "from carol", UserID: carol, DateTime: "2024-01-01T00:00:00.000Z"})
	env.store.AddLike(ctx, carol, bobTweet, "")
	env.store.AddReply(ctx, carol, bobTweet, "nice", "")

	tok := env.token(t, alice)
	base := env.srv.URL + "/tweets/"

	status, body := send(t, http.MethodGet, base+itoa(bobTweet), nil, tok)
	expect(t, status, strings.TrimSpace(body), http.StatusOK, `{"tweet":"from bob","likes":1,"replies":1,"dateTime":"2024-01-01T00:00:00.000Z"}`)

	status, body = send(t, http.MethodGet, base+itoa(bobTweet)+"/likes", nil, tok)
	expect(t, status, strings.TrimSpace(body), http.StatusOK, `{"likes":["carol"]}`)

	status, body = send(t, http.MethodGet, base+itoa(bobTweet)+"/replies", nil, tok)
	expect(t, status, strings.TrimSpace(body), http.StatusOK, `{"replies":[{"name":"Carol","reply":"nice"}]}`)

	for _, path := range []string{itoa(carolTweet), itoa(carolTweet) + "/likes", itoa(carolTweet) + "/replies", "999", "abc", "abc/likes"} {
		status, body = send(t, http.MethodGet, base+path, nil, tok)
		expect(t, status, body, http.StatusUnauthorized, "Invalid Request")
	}

	// the author does not follow themself
	status, body = send(t, http.MethodGet, base+itoa(bobTweet), nil, env.token(t, bob))
	expect(t, status, body, http.StatusUnauthorized, "Invalid Request")
}

func TestEmptyLikesAreArrays(t *testing.T) {
	env := setupTestServer(t)
	alice, bob, _ := env.seedGraph(t)
	tweet, _ := env.store.AddTweet(context.Background(), models.Tweet{Tweet: "quiet", UserID: bob, DateTime: "2024-01-01T00:00:00.000Z"})

	status, body := send(t, http.MethodGet, env.srv.URL+"/tweets/"+itoa(tweet)+"/likes", nil, env.token(t, alice))
	expect(t, status, strings.TrimSpace(body), http.StatusOK, `{"likes":[]}`)
	status, body = send(t, http.MethodGet, env.srv.URL+"/tweets/"+itoa(tweet)+"/replies", nil, env.token(t, alice))
	expect(t, status, strings.TrimSpace(body), http.StatusOK, `{"replies":[]}`)
	status, body = send(t, http.MethodGet, env.srv.URL+"/user/tweets", nil, env.token(t, alice))
	expect(t, status, strings.TrimSpace(body), http.StatusOK, `[]`)
}

func TestDeleteTweet(t *testing.T) {
	env := setupTestServer(t)
	alice, bob, _ := env.seedGraph(t)
	tweet, _ := env.store.AddTweet(context.Background(), models.Tweet{Tweet: "mine", UserID: bob, DateTime: "2024-01-01T00:00:00.000Z"})
	url := env.srv.URL + "/tweets/" + itoa(tweet)

	status, body := send(t, http.MethodDelete, url, nil, env.token(t, alice))
	expect(t, status, body, http.StatusUnauthorized, "Invalid Request")
	if _, err := env.store.TweetByID(context.Background(), tweet); err != nil {
		t.Fatalf("tweet must survive a non-owner delete: %v", err)
	}

	status, body = send(t, http.MethodDelete, url, nil, env.token(t, bob))
	expect(t, status, body, http.StatusOK, "Tweet Removed")

	status, body = send(t, http.MethodDelete, url, nil, env.token(t, bob))
	expect(t, status, body, http.StatusUnauthorized, "Invalid Request")

	written := env.kafka.Written()
	if len(written) != 1 || string(written[0].Key) != models.EventTweetDeleted {
		t.Fatalf("expected one tweet_deleted event, got %+v", written)
	}
}

func TestStoreFailures_AreInternal(t *testing.T) {
	s, _, tokens := newTestServer(t, &store.MockStoreFail{})
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()
	tok, _ := tokens.Issue(1)

	status, body := send(t, http.MethodGet, srv.URL+"/user/tweets/feed", nil, tok)
	expect(t, status, body, http.StatusInternalServerError, "Internal Server Error")

	status, body = send(t, http.MethodPost, srv.URL+"/register",
		map[string]string{"username": "x", "password": "secret1"}, "")
	expect(t, status, body, http.StatusInternalServerError, "Internal Server Error")

	status, body = send(t, http.MethodGet, srv.URL+"/healthz", nil, "")
	expect(t, status, body, http.StatusServiceUnavailable, "unavailable")
}

func TestHealthAndMetrics(t *testing.T) {
	env := setupTestServer(t)

	status, body := send(t, http.MethodGet, env.srv.URL+"/healthz", nil, "")
	expect(t, status, body, http.StatusOK, "ok")

	// one rejected request so the auth counter has a sample
	send(t, http.MethodGet, env.srv.URL+"/user/tweets", nil, "")

	status, body = send(t, http.MethodGet, env.srv.URL+"/metrics", nil, "")
	if status != http.StatusOK {
		t.Fatalf("metrics status %d", status)
	}
	for _, name := range []string{"twitterfeed_http_requests_total", "twitterfeed_auth_failures_total 1"} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output missing %q", name)
		}
	}
}

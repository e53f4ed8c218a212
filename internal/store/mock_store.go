package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"example.com/twitterfeed/internal/models"
)

type mockLike struct {
	UserID, TweetID int64
}

type mockReply struct {
	UserID, TweetID int64
	Reply           string
}

// MockStore simulates the relational store in memory for testing.
type MockStore struct {
	mu sync.Mutex

	Users      []models.User
	Edges      []models.Follow
	Tweets     []models.Tweet
	Likes      []mockLike
	Replies    []mockReply
	ShouldFail bool // flag to simulate failures

	nextUserID  int64
	nextTweetID int64
}

// NewMock initializes a new mock store
func NewMock() *MockStore {
	return &MockStore{}
}

var errMock = errors.New("mock: store failure")

func (m *MockStore) Close() {}

func (m *MockStore) Ping(ctx context.Context) error {
	if m.ShouldFail {
		return errMock
	}
	return nil
}

func (m *MockStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return nil, errMock
	}
	for _, u := range m.Users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MockStore) CreateUser(ctx context.Context, user models.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return 0, errMock
	}
	for _, u := range m.Users {
		if u.Username == user.Username {
			return 0, ErrUserExists
		}
	}
	m.nextUserID++
	user.ID = m.nextUserID
	m.Users = append(m.Users, user)
	return user.ID, nil
}

func (m *MockStore) AddFollow(ctx context.Context, follow models.Follow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return errMock
	}
	m.Edges = append(m.Edges, follow)
	return nil
}

func (m *MockStore) Follows(ctx context.Context, followerID, followingID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return false, errMock
	}
	return m.follows(followerID, followingID), nil
}

func (m *MockStore) follows(followerID, followingID int64) bool {
	for _, e := range m.Edges {
		if e.FollowerUserID == followerID && e.FollowingUserID == followingID {
			return true
		}
	}
	return false
}

func (m *MockStore) userByID(id int64) models.User {
	for _, u := range m.Users {
		if u.ID == id {
			return u
		}
	}
	return models.User{}
}

func (m *MockStore) GetFollowing(ctx context.Context, userID int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return nil, errMock
	}
	res := []string{}
	for _, e := range m.Edges {
		if e.FollowerUserID == userID {
			res = append(res, m.userByID(e.FollowingUserID).Name)
		}
	}
	return res, nil
}

func (m *MockStore) GetFollowers(ctx context.Context, userID int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return nil, errMock
	}
	res := []string{}
	for _, e := range m.Edges {
		if e.FollowingUserID == userID {
			res = append(res, m.userByID(e.FollowerUserID).Name)
		}
	}
	return res, nil
}

func (m *MockStore) AddTweet(ctx context.Context, tweet models.Tweet) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return 0, errMock
	}
	m.nextTweetID++
	tweet.ID = m.nextTweetID
	m.Tweets = append(m.Tweets, tweet)
	return tweet.ID, nil
}

func (m *MockStore) TweetByID(ctx context.Context, tweetID int64) (*models.Tweet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return nil, errMock
	}
	for _, t := range m.Tweets {
		if t.ID == tweetID {
			t := t
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MockStore) GetUserTweets(ctx context.Context, userID int64) ([]models.Tweet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return nil, errMock
	}
	res := []models.Tweet{}
	for _, t := range m.Tweets {
		if t.UserID == userID {
			res = append(res, t)
		}
	}
	return res, nil
}

// GetFeed retrieves the newest tweets of followed users, limited to limit.
func (m *MockStore) GetFeed(ctx context.Context, userID int64, limit int) ([]models.FeedItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return nil, errMock
	}
	var tweets []models.Tweet
	for _, t := range m.Tweets {
		if m.follows(userID, t.UserID) {
			tweets = append(tweets, t)
		}
	}
	sort.SliceStable(tweets, func(i, j int) bool { return tweets[i].DateTime > tweets[j].DateTime })
	if len(tweets) > limit {
		tweets = tweets[:limit]
	}
	res := []models.FeedItem{}
	for _, t := range tweets {
		res = append(res, models.FeedItem{
			Username: m.userByID(t.UserID).Username,
			Tweet:    t.Tweet,
			DateTime: t.DateTime,
		})
	}
	return res, nil
}

func (m *MockStore) GetTweetStats(ctx context.Context, tweetID int64) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return 0, 0, errMock
	}
	var likes, replies int
	for _, l := range m.Likes {
		if l.TweetID == tweetID {
			likes++
		}
	}
	for _, r := range m.Replies {
		if r.TweetID == tweetID {
			replies++
		}
	}
	return likes, replies, nil
}

func (m *MockStore) DeleteTweetOwnedBy(ctx context.Context, tweetID, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return false, errMock
	}
	for i, t := range m.Tweets {
		if t.ID == tweetID && t.UserID == userID {
			m.Tweets = append(m.Tweets[:i], m.Tweets[i+1:]...)
			likes := m.Likes[:0]
			for _, l := range m.Likes {
				if l.TweetID != tweetID {
					likes = append(likes, l)
				}
			}
			m.Likes = likes
			replies := m.Replies[:0]
			for _, r := range m.Replies {
				if r.TweetID != tweetID {
					replies = append(replies, r)
				}
			}
			m.Replies = replies
			return true, nil
		}
	}
	return false, nil
}

func (m *MockStore) AddLike(ctx context.Context, userID, tweetID int64, dateTime string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return errMock
	}
	m.Likes = append(m.Likes, mockLike{UserID: userID, TweetID: tweetID})
	return nil
}

func (m *MockStore) AddReply(ctx context.Context, userID, tweetID int64, reply, dateTime string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return errMock
	}
	m.Replies = append(m.Replies, mockReply{UserID: userID, TweetID: tweetID, Reply: reply})
	return nil
}

func (m *MockStore) GetLikers(ctx context.Context, tweetID int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return nil, errMock
	}
	res := []string{}
	for _, l := range m.Likes {
		if l.TweetID == tweetID {
			res = append(res, m.userByID(l.UserID).Username)
		}
	}
	return res, nil
}

func (m *MockStore) GetReplies(ctx context.Context, tweetID int64) ([]models.Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return nil, errMock
	}
	res := []models.Reply{}
	for _, r := range m.Replies {
		if r.TweetID == tweetID {
			res = append(res, models.Reply{Name: m.userByID(r.UserID).Name, Reply: r.Reply})
		}
	}
	return res, nil
}

// ---------------------------------------------
// MockStoreFail always returns errors for negative tests
type MockStoreFail struct{}

var errMockFail = errors.New("mock store failed")

func (m *MockStoreFail) Close()                         {}
func (m *MockStoreFail) Ping(ctx context.Context) error { return errMockFail }

func (m *MockStoreFail) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return nil, errMockFail
}

func (m *MockStoreFail) CreateUser(ctx context.Context, user models.User) (int64, error) {
	return 0, errMockFail
}

func (m *MockStoreFail) AddFollow(ctx context.Context, follow models.Follow) error {
	return errMockFail
}

func (m *MockStoreFail) Follows(ctx context.Context, followerID, followingID int64) (bool, error) {
	return false, errMockFail
}

func (m *MockStoreFail) GetFollowing(ctx context.Context, userID int64) ([]string, error) {
	return nil, errMockFail
}

func (m *MockStoreFail) GetFollowers(ctx context.Context, userID int64) ([]string, error) {
	return nil, errMockFail
}

func (m *MockStoreFail) AddTweet(ctx context.Context, tweet models.Tweet) (int64, error) {
	return 0, errMockFail
}

func (m *MockStoreFail) TweetByID(ctx context.Context, tweetID int64) (*models.Tweet, error) {
	return nil, errMockFail
}

func (m *MockStoreFail) GetUserTweets(ctx context.Context, userID int64) ([]models.Tweet, error) {
	return nil, errMockFail
}

func (m *MockStoreFail) GetFeed(ctx context.Context, userID int64, limit int) ([]models.FeedItem, error) {
	return nil, errMockFail
}

func (m *MockStoreFail) GetTweetStats(ctx context.Context, tweetID int64) (int, int, error) {
	return 0, 0, errMockFail
}

func (m *MockStoreFail) DeleteTweetOwnedBy(ctx context.Context, tweetID, userID int64) (bool, error) {
	return false, errMockFail
}

func (m *MockStoreFail) AddLike(ctx context.Context, userID, tweetID int64, dateTime string) error {
	return errMockFail
}

func (m *MockStoreFail) AddReply(ctx context.Context, userID, tweetID int64, reply, dateTime string) error {
	return errMockFail
}

func (m *MockStoreFail) GetLikers(ctx context.Context, tweetID int64) ([]string, error) {
	return nil, errMockFail
}

func (m *MockStoreFail) GetReplies(ctx context.Context, tweetID int64) ([]models.Reply, error) {
	return nil, errMockFail
}

var (
	_ StoreInterface = (*Store)(nil)
	_ StoreInterface = (*MockStore)(nil)
	_ StoreInterface = (*MockStoreFail)(nil)
)

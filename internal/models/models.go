package models

import "time"

// DateTimeLayout is the ISO-8601 form tweets are stamped with. It sorts
// lexically in chronological order.
const DateTimeLayout = "2006-01-02T15:04:05.000Z"

type User struct {
	ID       int64  `json:"user_id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"-"`
	Gender   string `json:"gender"`
}

type Tweet struct {
	ID       int64  `json:"tweet_id"`
	Tweet    string `json:"tweet"`
	UserID   int64  `json:"user_id"`
	DateTime string `json:"dateTime"`
}

type Follow struct {
	FollowerUserID  int64 `json:"follower_user_id"`
	FollowingUserID int64 `json:"following_user_id"`
}

// FeedItem is a tweet joined with its author's username.
type FeedItem struct {
	Username string `json:"username"`
	Tweet    string `json:"tweet"`
	DateTime string `json:"dateTime"`
}

type Reply struct {
	Name  string `json:"name"`
	Reply string `json:"reply"`
}

type TweetDetail struct {
	Tweet    string `json:"tweet"`
	Likes    int    `json:"likes"`
	Replies  int    `json:"replies"`
	DateTime string `json:"dateTime"`
}

// Stamp formats t the way tweets, likes and replies are persisted.
func Stamp(t time.Time) string {
	return t.UTC().Format(DateTimeLayout)
}

const (
	EventTweetCreated = "tweet_created"
	EventTweetDeleted = "tweet_deleted"
)

// TweetEvent records a tweet write. It is published to the broker and
// archived by the worker.
type TweetEvent struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	TweetID  int64  `json:"tweet_id"`
	UserID   int64  `json:"user_id"`
	Tweet    string `json:"tweet,omitempty"`
	DateTime string `json:"date_time"`
}

package access

import (
	"context"
	"errors"
	"time"

	"example.com/twitterfeed/internal/logger"
	"example.com/twitterfeed/internal/models"
	"example.com/twitterfeed/internal/store"
	"github.com/google/uuid"
)

var logg = logger.New()

// FeedLimit is the number of tweets a feed returns.
const FeedLimit = 4

// MsgInvalidRequest is returned for every denied or unknown tweet so callers
// cannot probe which tweets exist.
const MsgInvalidRequest = "Invalid Request"

// Store is the part of the relational store the guarded operations use.
type Store interface {
	FollowGraph
	TweetByID(ctx context.Context, tweetID int64) (*models.Tweet, error)
	GetFeed(ctx context.Context, userID int64, limit int) ([]models.FeedItem, error)
	GetFollowing(ctx context.Context, userID int64) ([]string, error)
	GetFollowers(ctx context.Context, userID int64) ([]string, error)
	GetLikers(ctx context.Context, tweetID int64) ([]string, error)
	GetReplies(ctx context.Context, tweetID int64) ([]models.Reply, error)
	GetTweetStats(ctx context.Context, tweetID int64) (likes, replies int, err error)
	GetUserTweets(ctx context.Context, userID int64) ([]models.Tweet, error)
	AddTweet(ctx context.Context, tweet models.Tweet) (int64, error)
	DeleteTweetOwnedBy(ctx context.Context, tweetID, userID int64) (bool, error)
}

// Publisher receives tweet events after successful writes.
type Publisher interface {
	Publish(ctx context.Context, event models.TweetEvent) error
}

type Service struct {
	store  Store
	events Publisher
	now    func() time.Time
}

// NewService builds the service. events may be nil.
func NewService(st Store, events Publisher) *Service {
	return &Service{store: st, events: events, now: time.Now}
}

// FeedFor returns the newest tweets of the accounts viewer follows.
func (s *Service) FeedFor(ctx context.Context, viewer int64) ([]models.FeedItem, error) {
	feed, err := s.store.GetFeed(ctx, viewer, FeedLimit)
	if err != nil {
		return nil, models.Internal(err)
	}
	return feed, nil
}

func (s *Service) FollowingOf(ctx context.Context, viewer int64) ([]string, error) {
	names, err := s.store.GetFollowing(ctx, viewer)
	if err != nil {
		return nil, models.Internal(err)
	}
	return names, nil
}

func (s *Service) FollowersOf(ctx context.Context, viewer int64) ([]string, error) {
	names, err := s.store.GetFollowers(ctx, viewer)
	if err != nil {
		return nil, models.Internal(err)
	}
	return names, nil
}

// viewableTweet loads tweetID and applies CanViewTweet. Unknown and hidden
// tweets fail the same way.
func (s *Service) viewableTweet(ctx context.Context, viewer, tweetID int64) (*models.Tweet, error) {
	tweet, err := s.store.TweetByID(ctx, tweetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, models.Unauthorized(MsgInvalidRequest)
		}
		return nil, models.Internal(err)
	}

	ok, err := CanViewTweet(ctx, s.store, viewer, *tweet)
	if err != nil {
		return nil, models.Internal(err)
	}
	if !ok {
		return nil, models.Unauthorized(MsgInvalidRequest)
	}
	return tweet, nil
}

// LikesOf returns the usernames that liked a tweet viewer may see.
func (s *Service) LikesOf(ctx context.Context, tweetID, viewer int64) ([]string, error) {
	if _, err := s.viewableTweet(ctx, viewer, tweetID); err != nil {
		return nil, err
	}
	likers, err := s.store.GetLikers(ctx, tweetID)
	if err != nil {
		return nil, models.Internal(err)
	}
	return likers, nil
}

// RepliesOf returns the replies of a tweet viewer may see.
func (s *Service) RepliesOf(ctx context.Context, tweetID, viewer int64) ([]models.Reply, error) {
	if _, err := s.viewableTweet(ctx, viewer, tweetID); err != nil {
		return nil, err
	}
	replies, err := s.store.GetReplies(ctx, tweetID)
	if err != nil {
		return nil, models.Internal(err)
	}
	return replies, nil
}

// TweetDetail returns text, counts and timestamp of a tweet viewer may see.
func (s *Service) TweetDetail(ctx context.Context, tweetID, viewer int64) (*models.TweetDetail, error) {
	tweet, err := s.viewableTweet(ctx, viewer, tweetID)
	if err != nil {
		return nil, err
	}
	likes, replies, err := s.store.GetTweetStats(ctx, tweetID)
	if err != nil {
		return nil, models.Internal(err)
	}
	return &models.TweetDetail{
		Tweet:    tweet.Tweet,
		Likes:    likes,
		Replies:  replies,
		DateTime: tweet.DateTime,
	}, nil
}

// UserTweets lists viewer's own tweets without any visibility rule.
func (s *Service) UserTweets(ctx context.Context, viewer int64) ([]models.Tweet, error) {
	tweets, err := s.store.GetUserTweets(ctx, viewer)
	if err != nil {
		return nil, models.Internal(err)
	}
	return tweets, nil
}

// CreateTweet stamps text with the current time and stores it for viewer.
func (s *Service) CreateTweet(ctx context.Context, viewer int64, text string) (models.Tweet, error) {
	tweet := models.Tweet{
		Tweet:    text,
		UserID:   viewer,
		DateTime: models.Stamp(s.now()),
	}
	id, err := s.store.AddTweet(ctx, tweet)
	if err != nil {
		return models.Tweet{}, models.Internal(err)
	}
	tweet.ID = id

	s.publish(ctx, models.TweetEvent{
		Type:     models.EventTweetCreated,
		TweetID:  tweet.ID,
		UserID:   viewer,
		Tweet:    tweet.Tweet,
		DateTime: tweet.DateTime,
	})
	return tweet, nil
}

// DeleteTweet removes tweetID when actor owns it. The ownership check
// (CanDeleteTweet) and the delete are one store operation.
func (s *Service) DeleteTweet(ctx context.Context, actor, tweetID int64) error {
	deleted, err := s.store.DeleteTweetOwnedBy(ctx, tweetID, actor)
	if err != nil {
		return models.Internal(err)
	}
	if !deleted {
		return models.Unauthorized(MsgInvalidRequest)
	}

	s.publish(ctx, models.TweetEvent{
		Type:     models.EventTweetDeleted,
		TweetID:  tweetID,
		UserID:   actor,
		DateTime: models.Stamp(s.now()),
	})
	return nil
}

// publish is best effort; the store stays the source of truth.
func (s *Service) publish(ctx context.Context, ev models.TweetEvent) {
	if s.events == nil {
		return
	}
	ev.ID = uuid.NewString()
	if err := s.events.Publish(ctx, ev); err != nil {
		logg.Error("access", "Failed to publish tweet event", err)
	}
}

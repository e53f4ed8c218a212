// Package access holds the visibility rules over the social graph and the
// tweet operations they guard.
package access

import (
	"context"

	"example.com/twitterfeed/internal/models"
)

// FollowGraph answers whether one user follows another.
type FollowGraph interface {
	Follows(ctx context.Context, followerID, followingID int64) (bool, error)
}

// CanViewTweet reports whether viewer may read tweet: only when viewer
// follows the tweet's author. Authors get no exception here; their own
// listing bypasses this rule instead.
func CanViewTweet(ctx context.Context, g FollowGraph, viewer int64, tweet models.Tweet) (bool, error) {
	return g.Follows(ctx, viewer, tweet.UserID)
}

// CanDeleteTweet reports whether actor owns tweet. Service.DeleteTweet does
// not call it; DeleteTweetOwnedBy applies the same rule in the delete
// statement itself.
func CanDeleteTweet(actor int64, tweet models.Tweet) bool {
	return tweet.UserID == actor
}

package store

import (
	"context"
	"fmt"

	"example.com/twitterfeed/internal/models"
)

// --- Follow operations ---

// AddFollow records that follow.FollowerUserID follows follow.FollowingUserID.
// Duplicate and self edges are stored as given.
func (s *Store) AddFollow(ctx context.Context, follow models.Follow) error {
	if _, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO follower (follower_user_id, following_user_id) VALUES (?, ?)`),
		follow.FollowerUserID, follow.FollowingUserID,
	); err != nil {
		logg.Error("store", "Failed to create follow relationship", err)
		return fmt.Errorf("failed to add follow: %w", err)
	}
	return nil
}

// Follows reports whether followerID has a follower edge to followingID.
func (s *Store) Follows(ctx context.Context, followerID, followingID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT COUNT(*) FROM follower
		WHERE follower_user_id = ? AND following_user_id = ?`),
		followerID, followingID,
	).Scan(&n)
	if err != nil {
		logg.Error("store", "Failed to check follow relationship", err)
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return n > 0, nil
}

// GetFollowing returns the names of the users userID follows.
func (s *Store) GetFollowing(ctx context.Context, userID int64) ([]string, error) {
	names, err := s.queryStrings(ctx, `
		SELECT u.name
		FROM "user" u
		JOIN follower f ON u.user_id = f.following_user_id
		WHERE f.follower_user_id = ?`,
		userID,
	)
	if err != nil {
		logg.Error("store", "Failed to get following", err)
		return nil, fmt.Errorf("failed to get following: %w", err)
	}
	return names, nil
}

// GetFollowers returns the names of the users following userID.
func (s *Store) GetFollowers(ctx context.Context, userID int64) ([]string, error) {
	names, err := s.queryStrings(ctx, `
		SELECT u.name
		FROM "user" u
		JOIN follower f ON u.user_id = f.follower_user_id
		WHERE f.following_user_id = ?`,
		userID,
	)
	if err != nil {
		logg.Error("store", "Failed to get followers", err)
		return nil, fmt.Errorf("failed to get followers: %w", err)
	}
	return names, nil
}

// --- Like and reply operations ---

func (s *Store) AddLike(ctx context.Context, userID, tweetID int64, dateTime string) error {
	if _, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO "like" (tweet_id, user_id, date_time) VALUES (?, ?, ?)`),
		tweetID, userID, dateTime,
	); err != nil {
		logg.Error("store", "Failed to add like", err)
		return fmt.Errorf("failed to add like: %w", err)
	}
	return nil
}

func (s *Store) AddReply(ctx context.Context, userID, tweetID int64, reply, dateTime string) error {
	if _, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO reply (tweet_id, reply, user_id, date_time) VALUES (?, ?, ?, ?)`),
		tweetID, reply, userID, dateTime,
	); err != nil {
		logg.Error("store", "Failed to add reply", err)
		return fmt.Errorf("failed to add reply: %w", err)
	}
	return nil
}

// GetLikers returns the usernames of everyone who liked tweetID.
func (s *Store) GetLikers(ctx context.Context, tweetID int64) ([]string, error) {
	names, err := s.queryStrings(ctx, `
		SELECT u.username
		FROM "user" u
		JOIN "like" l ON u.user_id = l.user_id
		WHERE l.tweet_id = ?`,
		tweetID,
	)
	if err != nil {
		logg.Error("store", "Failed to get likes", err)
		return nil, fmt.Errorf("failed to get likes: %w", err)
	}
	return names, nil
}

// GetReplies returns replier names with their reply text for tweetID.
func (s *Store) GetReplies(ctx context.Context, tweetID int64) ([]models.Reply, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT u.name, r.reply
		FROM reply r
		JOIN "user" u ON u.user_id = r.user_id
		WHERE r.tweet_id = ?`),
		tweetID,
	)
	if err != nil {
		logg.Error("store", "Failed to get replies", err)
		return nil, fmt.Errorf("failed to get replies: %w", err)
	}
	defer rows.Close()

	res := []models.Reply{}
	for rows.Next() {
		var r models.Reply
		if err := rows.Scan(&r.Name, &r.Reply); err != nil {
			return nil, fmt.Errorf("failed to scan reply: %w", err)
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate replies: %w", err)
	}
	return res, nil
}

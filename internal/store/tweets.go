package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"example.com/twitterfeed/internal/models"
)

// --- Tweet operations ---

// AddTweet persists tweet and returns its tweet_id.
func (s *Store) AddTweet(ctx context.Context, tweet models.Tweet) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO tweet (tweet, user_id, date_time)
		VALUES (?, ?, ?)
		RETURNING tweet_id`),
		tweet.Tweet, tweet.UserID, tweet.DateTime,
	).Scan(&id)
	if err != nil {
		logg.Error("store", "Failed to add tweet", err)
		return 0, fmt.Errorf("failed to add tweet: %w", err)
	}

	logg.Info("store", "Tweet added (content anonymized)")
	return id, nil
}

// TweetByID returns the tweet with tweetID, or ErrNotFound.
func (s *Store) TweetByID(ctx context.Context, tweetID int64) (*models.Tweet, error) {
	t := &models.Tweet{}
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT tweet_id, tweet, user_id, date_time FROM tweet WHERE tweet_id = ?`),
		tweetID,
	).Scan(&t.ID, &t.Tweet, &t.UserID, &t.DateTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		logg.Error("store", "Failed to get tweet", err)
		return nil, fmt.Errorf("failed to get tweet: %w", err)
	}
	return t, nil
}

// GetUserTweets returns every tweet owned by userID.
func (s *Store) GetUserTweets(ctx context.Context, userID int64) ([]models.Tweet, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT tweet_id, tweet, user_id, date_time
		FROM tweet
		WHERE user_id = ?
		ORDER BY tweet_id`),
		userID,
	)
	if err != nil {
		logg.Error("store", "Failed to get user tweets", err)
		return nil, fmt.Errorf("failed to get user tweets: %w", err)
	}
	defer rows.Close()

	res := []models.Tweet{}
	for rows.Next() {
		var t models.Tweet
		if err := rows.Scan(&t.ID, &t.Tweet, &t.UserID, &t.DateTime); err != nil {
			return nil, fmt.Errorf("failed to scan tweet: %w", err)
		}
		res = append(res, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tweets: %w", err)
	}
	return res, nil
}

// GetFeed returns up to limit of the newest tweets written by users userID
// follows, newest first.
func (s *Store) GetFeed(ctx context.Context, userID int64, limit int) ([]models.FeedItem, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT u.username, t.tweet, t.date_time
		FROM tweet t
		JOIN follower f ON f.following_user_id = t.user_id
		JOIN "user" u ON t.user_id = u.user_id
		WHERE f.follower_user_id = ?
		ORDER BY t.date_time DESC
		LIMIT ?`),
		userID, limit,
	)
	if err != nil {
		logg.Error("store", "Failed to retrieve user feed", err)
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}
	defer rows.Close()

	res := []models.FeedItem{}
	for rows.Next() {
		var item models.FeedItem
		if err := rows.Scan(&item.Username, &item.Tweet, &item.DateTime); err != nil {
			return nil, fmt.Errorf("failed to scan feed item: %w", err)
		}
		res = append(res, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feed: %w", err)
	}
	return res, nil
}

// GetTweetStats counts the likes and replies of tweetID.
func (s *Store) GetTweetStats(ctx context.Context, tweetID int64) (likes, replies int, err error) {
	err = s.db.QueryRowContext(ctx, s.rebind(`
		SELECT
			(SELECT COUNT(*) FROM "like" WHERE tweet_id = ?),
			(SELECT COUNT(*) FROM reply WHERE tweet_id = ?)`),
		tweetID, tweetID,
	).Scan(&likes, &replies)
	if err != nil {
		logg.Error("store", "Failed to count tweet stats", err)
		return 0, 0, fmt.Errorf("failed to get tweet stats: %w", err)
	}
	return likes, replies, nil
}

// DeleteTweetOwnedBy removes tweetID if and only if userID owns it, in a
// single statement. It reports whether a row was deleted.
func (s *Store) DeleteTweetOwnedBy(ctx context.Context, tweetID, userID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, s.rebind(
		`DELETE FROM tweet WHERE tweet_id = ? AND user_id = ?`),
		tweetID, userID,
	)
	if err != nil {
		logg.Error("store", "Failed to delete tweet", err)
		return false, fmt.Errorf("failed to delete tweet: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

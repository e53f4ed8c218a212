package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"example.com/twitterfeed/internal/logger"
	"example.com/twitterfeed/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
)

var logg = logger.New()

var (
	// ErrNotFound is returned by single-row lookups that match nothing.
	ErrNotFound = errors.New("not found")
	// ErrUserExists is returned when a username is already taken.
	ErrUserExists = errors.New("user already exists")
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// --- Interfaces ---

type StoreInterface interface {
	// Users
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, user models.User) (int64, error)

	// Social graph
	AddFollow(ctx context.Context, follow models.Follow) error
	Follows(ctx context.Context, followerID, followingID int64) (bool, error)
	GetFollowing(ctx context.Context, userID int64) ([]string, error)
	GetFollowers(ctx context.Context, userID int64) ([]string, error)

	// Tweets
	AddTweet(ctx context.Context, tweet models.Tweet) (int64, error)
	TweetByID(ctx context.Context, tweetID int64) (*models.Tweet, error)
	GetUserTweets(ctx context.Context, userID int64) ([]models.Tweet, error)
	GetFeed(ctx context.Context, userID int64, limit int) ([]models.FeedItem, error)
	GetTweetStats(ctx context.Context, tweetID int64) (likes, replies int, err error)
	DeleteTweetOwnedBy(ctx context.Context, tweetID, userID int64) (bool, error)

	// Likes and replies
	AddLike(ctx context.Context, userID, tweetID int64, dateTime string) error
	AddReply(ctx context.Context, userID, tweetID int64, reply, dateTime string) error
	GetLikers(ctx context.Context, tweetID int64) ([]string, error)
	GetReplies(ctx context.Context, tweetID int64) ([]models.Reply, error)

	Ping(ctx context.Context) error
	Close()
}

// --- Store Implementation ---

// Store is the relational Credential Store. Queries are written with `?`
// placeholders and rebound for the active driver.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the relational store and applies the schema.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if driver == DriverSQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite only supports one writer at a time
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := Migrate(db, driver); err != nil {
		db.Close()
		return nil, err
	}

	logg.Info("store", "Connected to relational store", slog.String("driver", driver))
	return &Store{db: db, driver: driver}, nil
}

// sqliteDSN adds the connection pragmas to dsn. go-sqlite3 applies them to
// every connection it opens, so they survive the pool reconnecting.
func sqliteDSN(dsn string) string {
	params := url.Values{}
	params.Set("_foreign_keys", "on")
	params.Set("_busy_timeout", "5000")
	params.Set("_journal_mode", "WAL")

	base, query, _ := strings.Cut(dsn, "?")
	existing, err := url.ParseQuery(query)
	if err == nil {
		for k, v := range existing {
			params[k] = v
		}
	}
	return base + "?" + params.Encode()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close gracefully closes the database handle.
func (s *Store) Close() {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			logg.Error("store", "Failed to close database", err)
			return
		}
		logg.Info("store", "Database connection closed")
	}
}

// rebind rewrites `?` placeholders into `$n` for Postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// queryStrings runs a query returning a single text column.
func (s *Store) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, rows.Err()
}

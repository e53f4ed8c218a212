package archive

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"time"

	config "example.com/twitterfeed/internal/init"
	"example.com/twitterfeed/internal/logger"
	"example.com/twitterfeed/internal/models"
	"github.com/gocql/gocql"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/cassandra"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

var logg = logger.New()

//go:embed migrations/*.cql
var migrationsFS embed.FS

var keyspaceName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,47}$`)

// Archive stores tweet events for later inspection.
type Archive interface {
	Append(ctx context.Context, ev models.TweetEvent) error
	Close()
}

// Execer runs a single CQL statement.
type Execer interface {
	Exec(ctx context.Context, stmt string, values ...interface{}) error
	Close()
}

type gocqlExecer struct {
	session *gocql.Session
}

func (g gocqlExecer) Exec(ctx context.Context, stmt string, values ...interface{}) error {
	return g.session.Query(stmt, values...).WithContext(ctx).Exec()
}

func (g gocqlExecer) Close() { g.session.Close() }

// CassandraArchive writes every event to a per-user and a per-tweet table.
type CassandraArchive struct {
	Session Execer
}

// NewWithExecer wraps an existing session. Used by tests.
func NewWithExecer(e Execer) *CassandraArchive {
	return &CassandraArchive{Session: e}
}

// Open ensures the keyspace, applies the embedded schema and connects.
func Open(ctx context.Context, cfg *config.Config) (*CassandraArchive, error) {
	if !keyspaceName.MatchString(cfg.CassandraKeyspace) {
		return nil, fmt.Errorf("invalid cassandra keyspace %q", cfg.CassandraKeyspace)
	}

	if err := ensureKeyspace(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to ensure keyspace: %w", err)
	}

	if err := runMigrations(cfg); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	cluster := newCluster(cfg)
	cluster.Keyspace = cfg.CassandraKeyspace
	cluster.Consistency = gocql.Quorum

	sess, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create Cassandra session: %w", err)
	}

	logg.Info("archive", "Connected to Cassandra keyspace (host anonymized)")
	return &CassandraArchive{Session: gocqlExecer{session: sess}}, nil
}

func newCluster(cfg *config.Config) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(cfg.CassandraHost)
	cluster.Timeout = cfg.CassandraTimeout
	cluster.ConnectTimeout = cfg.CassandraTimeout

	if cfg.CassandraUsername != "" && cfg.CassandraPassword != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.CassandraUsername,
			Password: cfg.CassandraPassword,
		}
	}

	if cfg.CassandraDC != "" {
		cluster.PoolConfig.HostSelectionPolicy = gocql.DCAwareRoundRobinPolicy(cfg.CassandraDC)
		cluster.HostFilter = gocql.DataCentreHostFilter(cfg.CassandraDC)
	}
	return cluster
}

// ensureKeyspace creates the keyspace before migrations run against it.
func ensureKeyspace(ctx context.Context, cfg *config.Config) error {
	cluster := newCluster(cfg)
	cluster.Keyspace = "system"
	sess, err := cluster.CreateSession()
	if err != nil {
		return fmt.Errorf("failed to connect to Cassandra system keyspace: %w", err)
	}
	defer sess.Close()

	query := fmt.Sprintf(`
        CREATE KEYSPACE IF NOT EXISTS %s
        WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1};
    `, cfg.CassandraKeyspace)

	if err := sess.Query(query).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("failed to create keyspace: %w", err)
	}

	logg.Info("archive", "Ensured Cassandra keyspace exists (keyspace name anonymized)")
	return nil
}

// migrationURL builds the golang-migrate cassandra URL for cfg.
func migrationURL(cfg *config.Config) string {
	q := url.Values{}
	q.Set("x-migrations-table", "schema_migrations")
	q.Set("x-multi-statement", "true")
	if cfg.CassandraUsername != "" && cfg.CassandraPassword != "" {
		q.Set("username", cfg.CassandraUsername)
		q.Set("password", cfg.CassandraPassword)
	}
	if cfg.CassandraTimeout > 0 {
		q.Set("timeout", cfg.CassandraTimeout.String())
	}
	u := url.URL{
		Scheme:   "cassandra",
		Host:     cfg.CassandraHost,
		Path:     "/" + cfg.CassandraKeyspace,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func runMigrations(cfg *config.Config) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrationURL(cfg))
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		logg.Info("archive", "No new migrations to apply")
	} else {
		logg.Info("archive", "Migrations applied successfully")
	}
	return nil
}

const (
	insertByUser = `INSERT INTO tweet_events_by_user
        (user_id, event_time, event_id, event_type, tweet_id, tweet)
        VALUES (?, ?, ?, ?, ?, ?)`
	insertByTweet = `INSERT INTO tweet_events_by_tweet
        (tweet_id, event_time, event_id, event_type, user_id)
        VALUES (?, ?, ?, ?, ?)`
)

// Append writes ev to both tables. Inserts are idempotent on event id, so a
// redelivered message overwrites its own rows.
func (a *CassandraArchive) Append(ctx context.Context, ev models.TweetEvent) error {
	id, err := gocql.ParseUUID(ev.ID)
	if err != nil {
		return fmt.Errorf("invalid event id: %w", err)
	}
	at, err := time.Parse(models.DateTimeLayout, ev.DateTime)
	if err != nil {
		return fmt.Errorf("invalid event time: %w", err)
	}

	if err := a.Session.Exec(ctx, insertByUser, ev.UserID, at, id, ev.Type, ev.TweetID, ev.Tweet); err != nil {
		return fmt.Errorf("failed to archive event by user: %w", err)
	}
	if err := a.Session.Exec(ctx, insertByTweet, ev.TweetID, at, id, ev.Type, ev.UserID); err != nil {
		return fmt.Errorf("failed to archive event by tweet: %w", err)
	}
	return nil
}

// Close gracefully closes Cassandra session.
func (a *CassandraArchive) Close() {
	if a.Session != nil {
		a.Session.Close()
		logg.Info("archive", "Cassandra session closed")
	}
}

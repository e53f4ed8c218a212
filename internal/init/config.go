package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	ServerAddr  string
	TLSCertFile string
	TLSKeyFile  string
	LogLevel    string

	// Relational store
	DBDriver    string
	DatabaseURL string

	// Auth
	JWTSecret  string
	BcryptCost int

	// Kafka
	EventsEnabled  bool
	KafkaBroker    string
	KafkaTopic     string
	KafkaGroupID   string
	KafkaPartition int
	KafkaReadTO    time.Duration
	KafkaWriteTO   time.Duration

	// Cassandra archive
	CassandraHost     string
	CassandraKeyspace string
	CassandraUsername string
	CassandraPassword string
	CassandraTimeout  time.Duration
	CassandraDC       string

	WorkerCount int
}

// Init loads the config using Viper and returns it
func Init() *Config {
	v := viper.New()

	v.SetDefault("SERVER_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DB_DRIVER", "sqlite3")
	v.SetDefault("DATABASE_URL", "twitterClone.db")

	v.SetDefault("BCRYPT_COST", 10)

	v.SetDefault("EVENTS_ENABLED", false)
	v.SetDefault("KAFKA_BROKER", "localhost:29092")
	v.SetDefault("KAFKA_TOPIC", "tweet-events")
	v.SetDefault("KAFKA_GROUP_ID", "archive-worker")
	v.SetDefault("KAFKA_PARTITION", 0)
	v.SetDefault("KAFKA_READ_TIMEOUT", 10*time.Second)
	v.SetDefault("KAFKA_WRITE_TIMEOUT", 10*time.Second)

	v.SetDefault("CASSANDRA_HOST", "localhost")
	v.SetDefault("CASSANDRA_KEYSPACE", "twitterfeed")
	v.SetDefault("CASSANDRA_TIMEOUT", 10*time.Second)
	// Optional: Cassandra username/password/DC can be empty

	v.SetDefault("WORKER_COUNT", 0)

	// Load env variables
	v.AutomaticEnv()

	// Optional config file support
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // ignore error if no file

	return &Config{
		ServerAddr:        v.GetString("SERVER_ADDR"),
		TLSCertFile:       v.GetString("TLS_CERT_FILE"),
		TLSKeyFile:        v.GetString("TLS_KEY_FILE"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		DBDriver:          v.GetString("DB_DRIVER"),
		DatabaseURL:       v.GetString("DATABASE_URL"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		BcryptCost:        v.GetInt("BCRYPT_COST"),
		EventsEnabled:     v.GetBool("EVENTS_ENABLED"),
		KafkaBroker:       v.GetString("KAFKA_BROKER"),
		KafkaTopic:        v.GetString("KAFKA_TOPIC"),
		KafkaGroupID:      v.GetString("KAFKA_GROUP_ID"),
		KafkaPartition:    v.GetInt("KAFKA_PARTITION"),
		KafkaReadTO:       v.GetDuration("KAFKA_READ_TIMEOUT"),
		KafkaWriteTO:      v.GetDuration("KAFKA_WRITE_TIMEOUT"),
		CassandraHost:     v.GetString("CASSANDRA_HOST"),
		CassandraKeyspace: v.GetString("CASSANDRA_KEYSPACE"),
		CassandraUsername: v.GetString("CASSANDRA_USERNAME"),
		CassandraPassword: v.GetString("CASSANDRA_PASSWORD"),
		CassandraTimeout:  v.GetDuration("CASSANDRA_TIMEOUT"),
		CassandraDC:       v.GetString("CASSANDRA_DC"),
		WorkerCount:       v.GetInt("WORKER_COUNT"),
	}
}

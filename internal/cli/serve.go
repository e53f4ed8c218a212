package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"example.com/twitterfeed/cmd/server"
	"example.com/twitterfeed/internal/access"
	"example.com/twitterfeed/internal/auth"
	appkafka "example.com/twitterfeed/internal/broker"
	config "example.com/twitterfeed/internal/init"
	"example.com/twitterfeed/internal/metrics"
	"example.com/twitterfeed/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

// ErrMissingSecret is returned when serve starts without JWT_SECRET.
var ErrMissingSecret = errors.New("JWT_SECRET must be set")

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Open the store, apply the schema and serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *rootOpts.Config
			if addr != "" {
				cfg.ServerAddr = addr
			}
			return runServe(cmd.Context(), &cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides SERVER_ADDR)")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return ErrMissingSecret
	}

	st, err := store.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer st.Close()

	tokens, err := auth.NewJWTService(cfg.JWTSecret)
	if err != nil {
		return err
	}

	var events access.Publisher
	if cfg.EventsEnabled {
		writer, err := appkafka.NewKafkaWriter(ctx, kafkaConfig(cfg))
		if err != nil {
			return fmt.Errorf("kafka: %w", err)
		}
		pub := appkafka.NewPublisher(writer)
		defer pub.Close()
		events = pub
		logg.Info("cli", "Publishing tweet events to Kafka")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	s := server.New(server.Deps{
		Auth:     auth.NewService(st, auth.NewBcryptHasher(cfg.BcryptCost), tokens),
		Access:   access.NewService(st, events),
		Tokens:   tokens,
		Health:   st,
		Metrics:  m,
		Gatherer: reg,
	})
	return server.Run(ctx, s, cfg.ServerAddr, cfg.TLSCertFile, cfg.TLSKeyFile)
}

func kafkaConfig(cfg *config.Config) appkafka.KafkaConfig {
	return appkafka.KafkaConfig{
		Brokers:      []string{cfg.KafkaBroker},
		Topic:        cfg.KafkaTopic,
		Partition:    cfg.KafkaPartition,
		GroupID:      cfg.KafkaGroupID,
		WriteTimeout: cfg.KafkaWriteTO,
		ReadTimeout:  cfg.KafkaReadTO,
	}
}

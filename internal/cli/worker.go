package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"example.com/twitterfeed/cmd/worker"
	"example.com/twitterfeed/internal/archive"
	appkafka "example.com/twitterfeed/internal/broker"
	config "example.com/twitterfeed/internal/init"
	"example.com/twitterfeed/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func NewWorkerCommand(rootOpts *RootOptions) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Archive tweet events from Kafka into Cassandra",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(cmd.Context(), rootOpts.Config, metricsAddr)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve /metrics on this address (disabled when empty)")
	return cmd
}

func runWorker(ctx context.Context, cfg *config.Config, metricsAddr string) error {
	arch, err := archive.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}

	var m *metrics.Collector
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		m = metrics.New(reg)
		stop := serveMetrics(metricsAddr, reg)
		defer stop()
	}

	w := worker.New(arch, appkafka.NewKafkaReader(kafkaConfig(cfg)), m, cfg.WorkerCount, 0)
	w.Run(ctx)
	return w.Close()
}

// serveMetrics exposes reg on addr until the returned func is called.
func serveMetrics(addr string, reg prometheus.Gatherer) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error("cli", "Metrics server stopped unexpectedly", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

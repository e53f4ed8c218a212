package cli

import (
	"context"
	"errors"

	config "example.com/twitterfeed/internal/init"
	"example.com/twitterfeed/internal/logger"
	"github.com/spf13/cobra"
)

var logg = logger.New()

// RootOptions holds state shared by every subcommand.
type RootOptions struct {
	// Config is loaded before any subcommand runs.
	Config *config.Config
}

// NewRootCommand creates the twitterfeed command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "twitterfeed",
		Short: "twitterfeed - a small Twitter-style REST backend",
		Long: `twitterfeed serves registration, login and a follower-gated tweet API
backed by SQLite or Postgres, and can archive tweet events from Kafka
into Cassandra.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Config == nil {
				opts.Config = config.Init()
			}
			logger.SetLevel(opts.Config.LogLevel)
			return nil
		},
	}

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewWorkerCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))

	return cmd
}

// Execute runs the command tree with ctx and returns the first error.
func Execute(ctx context.Context) error {
	err := NewRootCommand().ExecuteContext(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

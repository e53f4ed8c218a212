package cli

import (
	"fmt"
	"time"

	"example.com/twitterfeed/internal/auth"
	"example.com/twitterfeed/internal/store"
	"github.com/spf13/cobra"
)

func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load users, follows, tweets, likes and replies from a YAML fixture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fx, err := LoadFixture(file)
			if err != nil {
				return err
			}

			cfg := rootOpts.Config
			st, err := store.Open(cmd.Context(), cfg.DBDriver, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("store: %w", err)
			}
			defer st.Close()

			res, err := Seed(cmd.Context(), st, auth.NewBcryptHasher(cfg.BcryptCost), fx, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users, %d follows, %d tweets, %d likes, %d replies\n",
				res.Users, res.Follows, res.Tweets, res.Likes, res.Replies)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "fixture file (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

package cli

import (
	"fmt"

	"example.com/twitterfeed/internal/store"
	"github.com/spf13/cobra"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the relational schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.Config
			// Open applies pending migrations
			st, err := store.Open(cmd.Context(), cfg.DBDriver, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("store: %w", err)
			}
			st.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

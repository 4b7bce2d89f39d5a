package admincli

import (
	"fmt"

	"github.com/dmitrijs2005/investsync/internal/server/repositories/repomanager"
	"github.com/spf13/cobra"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), rootOpts, func(store repomanager.RepositoryManager) error {
				if err := store.RunMigrations(cmd.Context()); err != nil {
					return fmt.Errorf("migrations: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}
}

// Package admincli implements investctl, the operator tool for schema
// migrations, account provisioning and offline exports.
package admincli

import (
	"context"
	"os"

	"github.com/dmitrijs2005/investsync/internal/logging"
	"github.com/dmitrijs2005/investsync/internal/server/config"
	"github.com/dmitrijs2005/investsync/internal/server/repositories/repomanager"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	openStore = func(ctx context.Context, dsn string) (repomanager.RepositoryManager, error) {
		return repomanager.OpenPostgres(ctx, dsn)
	}

	// readPassword is a test seam for term.ReadPassword.
	readPassword = term.ReadPassword
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DatabaseURL string
	Verbose     bool
}

func (o *RootOptions) logger(cmd *cobra.Command) logging.Logger {
	if o.Verbose {
		return logging.New("development", cmd.ErrOrStderr())
	}
	return logging.NewNop()
}

// NewRootCommand creates the investctl root command.
func NewRootCommand() *cobra.Command {
	defaults := &config.Config{}
	defaults.LoadDefaults()
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		defaults.DatabaseDSN = dsn
	}

	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "investctl",
		Short:         "investsync administration",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVarP(&opts.DatabaseURL, "database-url", "d", defaults.DatabaseDSN, "PostgreSQL DSN")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log to stderr")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewCreateUserCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

	return cmd
}

// withStore opens the store, runs fn and closes the store.
func withStore(ctx context.Context, opts *RootOptions, fn func(repomanager.RepositoryManager) error) error {
	store, err := openStore(ctx, opts.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(store)
}

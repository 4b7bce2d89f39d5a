package admincli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/investsync/internal/common"
	"github.com/dmitrijs2005/investsync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/investsync/internal/server/services"
	"github.com/spf13/cobra"
)

type exportOptions struct {
	email  string
	output string
}

func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a user's export snapshot as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.email, "email", "", "account email")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runExport(cmd *cobra.Command, rootOpts *RootOptions, opts *exportOptions) error {
	return withStore(cmd.Context(), rootOpts, func(store repomanager.RepositoryManager) error {
		user, err := store.Users(store.DB()).GetByEmail(cmd.Context(), opts.email)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("user %s not found", opts.email)
			}
			return err
		}

		log := rootOpts.logger(cmd)
		investments := services.NewInvestmentService(store, log)
		sites := services.NewSiteConfigService(store, log)
		snapshot, err := services.NewSyncService(store, investments, sites, nil, log).Export(cmd.Context(), user, false)
		if err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if opts.output != "" {
			f, err := os.Create(opts.output)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}

		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snapshot)
	})
}

package admincli

import (
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/investsync/internal/common"
	"github.com/dmitrijs2005/investsync/internal/server/auth"
	"github.com/dmitrijs2005/investsync/internal/server/config"
	"github.com/dmitrijs2005/investsync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/investsync/internal/server/services"
	"github.com/spf13/cobra"
)

type createUserOptions struct {
	email      string
	name       string
	bcryptCost int
}

func NewCreateUserCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &createUserOptions{}

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an account; the password is read from the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateUser(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.email, "email", "", "account email")
	cmd.Flags().StringVar(&opts.name, "name", "", "display name")
	cmd.Flags().IntVar(&opts.bcryptCost, "bcrypt-cost", 10, "bcrypt work factor")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runCreateUser(cmd *cobra.Command, rootOpts *RootOptions, opts *createUserOptions) error {
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	password, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	var name *string
	if opts.name != "" {
		name = &opts.name
	}

	defaults := &config.Config{}
	defaults.LoadDefaults()
	tokens, err := auth.NewTokenIssuer(defaults.SecretKey, defaults.JWTAlgorithm, defaults.TokenValidityDuration)
	if err != nil {
		return err
	}

	return withStore(cmd.Context(), rootOpts, func(store repomanager.RepositoryManager) error {
		users := services.NewUserService(store, auth.NewPasswordHasher(opts.bcryptCost), tokens, rootOpts.logger(cmd))

		session, err := users.Register(cmd.Context(), opts.email, string(password), name)
		if err != nil {
			if errors.Is(err, common.ErrAlreadyExists) {
				return fmt.Errorf("user %s already exists", opts.email)
			}
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", session.User.ID, session.User.Email)
		return nil
	})
}

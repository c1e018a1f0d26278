package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/repotree/cmd/repotree/opts"
	"gitlab.com/tozd/go/errors"
)

// NewUserCmd creates a new user command
func NewUserCmd(opts *opts.RootOpts, newProvider ProviderFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "user",
		Short: "Show details for the authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "user").Logger().WithContext(ctx)

			provider, err := newProvider(ctx, opts.Config)
			if err != nil {
				return errors.Errorf("creating provider: %w", err)
			}

			user, err := provider.GetUserDetails(ctx)
			if err != nil {
				return errors.Errorf("fetching user details: %w", err)
			}
			if user == nil {
				return errors.New("no user details available")
			}

			fmt.Fprintf(os.Stdout, "Login: %s (id %d)\n", user.Login, user.ID)
			if user.Name != "" {
				fmt.Fprintf(os.Stdout, "Name:  %s\n", user.Name)
			}
			if user.Email != "" {
				fmt.Fprintf(os.Stdout, "Email: %s\n", user.Email)
			}
			return nil
		},
	}
}

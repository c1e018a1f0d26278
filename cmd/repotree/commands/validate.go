package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/repotree/cmd/repotree/opts"
	"gitlab.com/tozd/go/errors"
)

// NewValidateCmd creates a new validate command
func NewValidateCmd(opts *opts.RootOpts, newProvider ProviderFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that the configured credentials are accepted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "validate").Logger().WithContext(ctx)

			provider, err := newProvider(ctx, opts.Config)
			if err != nil {
				return errors.Errorf("creating provider: %w", err)
			}

			if !provider.Authenticate(ctx) {
				opts.Feedback.LogValidation(false, "Credentials rejected", nil)
				return errors.New("authentication failed")
			}

			opts.Feedback.LogValidation(true, "Credentials accepted", nil)
			return nil
		},
	}
}

package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/repotree/cmd/repotree/opts"
	"github.com/walteh/repotree/pkg/remote"
	"gitlab.com/tozd/go/errors"
)

// NewRepoCmd creates a new repo command
func NewRepoCmd(opts *opts.RootOpts, newProvider ProviderFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "repo [repository]",
		Short: "Show details for a repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "repo").Logger().WithContext(ctx)

			repo := opts.Config.Repo
			if len(args) > 0 {
				repo = args[0]
			}
			ref, err := remote.ParseRef(repo)
			if err != nil {
				return errors.Errorf("parsing repository: %w", err)
			}

			provider, err := newProvider(ctx, opts.Config)
			if err != nil {
				return errors.Errorf("creating provider: %w", err)
			}

			info, err := provider.GetRepositoryDetails(ctx, ref.Owner, ref.Repo)
			if err != nil {
				return errors.Errorf("fetching repository details: %w", err)
			}
			if info == nil {
				return errors.Errorf("no details available for %s", ref.Name())
			}

			fmt.Fprintf(os.Stdout, "Repository:     %s\n", info.FullName)
			if info.Description != "" {
				fmt.Fprintf(os.Stdout, "Description:    %s\n", info.Description)
			}
			fmt.Fprintf(os.Stdout, "Default branch: %s\n", info.DefaultBranch)
			fmt.Fprintf(os.Stdout, "Private:        %t\n", info.Private)
			fmt.Fprintf(os.Stdout, "Stars:          %d  Forks: %d\n", info.Stars, info.Forks)
			return nil
		},
	}
}

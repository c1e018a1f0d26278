package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/repotree/cmd/repotree/opts"
	"github.com/walteh/repotree/pkg/auth"
	"github.com/walteh/repotree/pkg/config"
	"github.com/walteh/repotree/pkg/remote"
	"github.com/walteh/repotree/pkg/render"
	"gitlab.com/tozd/go/errors"
)

// ProviderFunc builds a remote provider from the loaded config.
type ProviderFunc func(ctx context.Context, cfg *config.Config) (remote.Provider, error)

// NewFetchCmd creates a new fetch command
func NewFetchCmd(opts *opts.RootOpts, newProvider ProviderFunc) *cobra.Command {
	var (
		asJSON    bool
		startPath string
	)

	cmd := &cobra.Command{
		Use:   "fetch [repository]",
		Short: "Fetch a repository's file tree",
		Long: `Fetch walks the repository's directory structure depth-first and prints
the resulting tree. File contents are downloaded and fingerprinted; entries
that cannot be read are kept in the tree without content.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "fetch").Logger().WithContext(ctx)

			repo := opts.Config.Repo
			if len(args) > 0 {
				repo = args[0]
			}
			if repo == "" {
				return errors.New("no repository given (pass owner/repo or set it in the config)")
			}

			if startPath != "" {
				opts.Config.Path = startPath
			}

			provider, err := newProvider(ctx, opts.Config)
			if err != nil {
				return errors.Errorf("creating provider: %w", err)
			}

			opts.Feedback.LogFetchStart(repo)

			t, err := provider.FetchTree(ctx, repo)
			if err != nil {
				var rle *auth.RateLimitError
				if errors.As(err, &rle) {
					opts.Feedback.LogRateLimited(rle)
				}
				return errors.Errorf("fetching tree: %w", err)
			}

			if asJSON {
				data, err := json.MarshalIndent(t.ToMap(), "", "  ")
				if err != nil {
					return errors.Errorf("encoding tree: %w", err)
				}
				fmt.Fprintln(os.Stdout, string(data))
			} else {
				render.New(os.Stdout).Render(t)
			}

			opts.Feedback.LogFetchDone(repo, t.Len())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the tree as JSON")
	cmd.Flags().StringVar(&startPath, "path", "", "subdirectory to fetch from instead of the repository root")

	return cmd
}

package main

import (
	"context"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/repotree/cmd/repotree/opts"
	"github.com/walteh/repotree/pkg/config"
	"github.com/walteh/repotree/pkg/remote"
	"github.com/walteh/repotree/pkg/remote/github"
	"github.com/walteh/repotree/pkg/render"
	"github.com/walteh/repotree/pkg/request"
	"github.com/walteh/repotree/pkg/tree"
	"gitlab.com/tozd/go/errors"
)

var (
	// Flags
	configFile string
	debug      bool
)

// newRootCmd creates the root command. Logging and config loading happen in
// PersistentPreRunE, after cobra has parsed the persistent flags, so o is
// populated from the actual flag values before any subcommand runs.
func newRootCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repotree",
		Short: "Fetch and inspect repository file trees from remote providers",
		Long: `repotree walks a remote repository (like GitHub) and builds an ordered
tree of its files and directories, fetching file contents and computing
content fingerprints along the way.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogging()
			ctx := logger.WithContext(cmd.Context())
			cmd.SetContext(ctx)

			o.Feedback = render.NewFeedback(ctx)

			cfg, err := config.Load(ctx, configFile)
			if err != nil {
				// A missing config file is fine, everything can come from
				// flags and the environment.
				if !errors.Is(err, fs.ErrNotExist) {
					return errors.Errorf("loading config: %w", err)
				}
				cfg = &config.Config{}
				cfg.ApplyDefaults()
			}
			o.Config = cfg
			return nil
		},
	}

	addRootFlags(cmd)
	return cmd
}

// newProvider builds the configured remote provider.
func newProvider(ctx context.Context, cfg *config.Config) (remote.Provider, error) {
	if cfg.Provider == "" || cfg.Provider == "github" {
		token := cfg.Token
		if token == "" {
			token = os.Getenv(config.EnvToken)
		}
		if token == "" {
			return nil, errors.Errorf("no access token configured (set %s or the token config field)", config.EnvToken)
		}

		var reqOpts []request.Option
		if cfg.MaxRetries > 0 {
			reqOpts = append(reqOpts, request.WithMaxRetries(cfg.MaxRetries))
		}
		if cfg.BackoffBase > 0 {
			reqOpts = append(reqOpts, request.WithBackoffBase(cfg.BackoffBase))
		}

		ghOpts := []github.Option{
			github.WithExecutor(request.NewExecutor(reqOpts...)),
			github.WithTreeOptions(tree.Options{
				IgnorePatterns: cfg.IgnorePatterns,
				Concurrency:    cfg.Concurrency,
			}),
		}
		if cfg.Path != "" {
			ghOpts = append(ghOpts, github.WithStartPath(cfg.Path))
		}

		return github.NewWithToken(token, ghOpts...), nil
	}

	factory, err := remote.Get(cfg.Provider)
	if err != nil {
		return nil, errors.Errorf("resolving provider: %w", err)
	}
	return factory(ctx)
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", ".repotree.yaml", "config file path")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
}

// setupLogging configures zerolog based on flags
func setupLogging() zerolog.Logger {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log
	return log
}

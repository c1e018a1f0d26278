// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package github implements the remote.Provider capability surface against
// the GitHub REST API. One authenticator and one executor are constructed per
// provider instance and shared by every call, so a whole fetch operation runs
// with consistent credentials and retry policy.
//
// Failure policy follows the partial-result contract: a single unavailable
// listing or file is logged and reported as absent, while rate-limit
// exhaustion and cancellation abort the operation.
package github

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/walteh/repotree/pkg/auth"
	"github.com/walteh/repotree/pkg/remote"
	"github.com/walteh/repotree/pkg/request"
	"github.com/walteh/repotree/pkg/tree"
	"gitlab.com/tozd/go/errors"
)

const (
	// DefaultAPIBase is the public GitHub API host.
	DefaultAPIBase = "https://api.github.com"

	// EnvToken is the environment variable the registered factory reads the
	// credential from.
	EnvToken = "GITHUB_OAUTH_TOKEN"
)

func init() {
	remote.Register("github", New)
}

// Provider implements remote.Provider for GitHub.
type Provider struct {
	auth      *auth.TokenAuth
	exec      *request.Executor
	apiBase   string
	treeOpts  tree.Options
	startPath string
}

// Option configures a Provider.
type Option func(*Provider)

// WithAPIBase points the provider at a different API host (GitHub Enterprise,
// test servers).
func WithAPIBase(base string) Option {
	return func(p *Provider) {
		p.apiBase = base
	}
}

// WithExecutor replaces the request executor.
func WithExecutor(exec *request.Executor) Option {
	return func(p *Provider) {
		p.exec = exec
	}
}

// WithTreeOptions sets the assembly options used by FetchTree.
func WithTreeOptions(opts tree.Options) Option {
	return func(p *Provider) {
		p.treeOpts = opts
	}
}

// WithStartPath roots FetchTree at a subdirectory instead of the repository
// root. Depth numbering starts over at the given directory's children.
func WithStartPath(path string) Option {
	return func(p *Provider) {
		p.startPath = path
	}
}

// New creates a provider with the credential from the environment. This is
// the factory registered with the remote registry.
func New(ctx context.Context) (remote.Provider, error) {
	token := os.Getenv(EnvToken)
	if token == "" {
		return nil, errors.Errorf("%s environment variable not set", EnvToken)
	}
	return NewWithToken(token), nil
}

// NewWithToken creates a provider with an explicit credential.
func NewWithToken(token string, opts ...Option) *Provider {
	p := &Provider{
		exec:    request.NewExecutor(),
		apiBase: DefaultAPIBase,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.auth = auth.NewTokenAuth(token, p.exec, p.apiBase)
	return p
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "github"
}

// Authenticate validates the credential against GET /user.
func (p *Provider) Authenticate(ctx context.Context) bool {
	return p.auth.Validate(ctx)
}

// FetchTree walks the repository's directory hierarchy from the root and
// returns it as an ordered tree. Partial trees are expected: nodes whose
// content could not be fetched are kept bare, unlistable branches are
// pruned. Rate-limit exhaustion aborts with a *auth.RateLimitError.
func (p *Provider) FetchTree(ctx context.Context, repo string) (*tree.Tree, error) {
	ref, err := remote.ParseRef(repo)
	if err != nil {
		return nil, errors.Errorf("parsing repository: %w", err)
	}

	ctx = zerolog.Ctx(ctx).With().Str("repo", ref.Name()).Logger().WithContext(ctx)
	zerolog.Ctx(ctx).Debug().Msg("fetching repository tree")

	src := &contentSource{provider: p, ref: ref}
	t, err := tree.NewAssembler(src, p.treeOpts).Assemble(ctx, p.startPath)
	if err != nil {
		return nil, errors.Errorf("assembling tree for %s: %w", ref.Name(), err)
	}

	zerolog.Ctx(ctx).Info().Int("nodes", t.Len()).Msg("fetched repository tree")
	return t, nil
}

// GetUserDetails returns the authenticated user, or (nil, nil) when the
// backend rejects the call.
func (p *Provider) GetUserDetails(ctx context.Context) (*remote.User, error) {
	var user remote.User
	ok, err := p.getJSON(ctx, p.apiBase+"/user", &user)
	if err != nil || !ok {
		return nil, err
	}
	return &user, nil
}

// GetRepositoryDetails returns repository metadata, or (nil, nil) when the
// backend rejects the call.
func (p *Provider) GetRepositoryDetails(ctx context.Context, owner, repo string) (*remote.RepositoryInfo, error) {
	var info remote.RepositoryInfo
	ok, err := p.getJSON(ctx, p.apiBase+"/repos/"+owner+"/"+repo, &info)
	if err != nil || !ok {
		return nil, err
	}
	return &info, nil
}

// getJSON performs one authenticated GET and decodes a 200 response into v.
// It returns (false, nil) for a call-level failure ("absent"), and an error
// only for operation-level aborts (rate limit, cancellation).
func (p *Provider) getJSON(ctx context.Context, url string, v any) (bool, error) {
	logger := zerolog.Ctx(ctx)

	out, err := p.exec.Get(ctx, url, p.auth)
	if err != nil {
		if ctx.Err() != nil {
			return false, errors.Errorf("fetching %s: %w", url, ctx.Err())
		}
		logger.Error().Err(err).Str("url", url).Msg("request failed")
		return false, nil
	}

	if err := p.auth.CheckRateLimit(ctx, out); err != nil {
		return false, err
	}

	if out.StatusCode != http.StatusOK {
		logger.Error().Int("status", out.StatusCode).Str("url", url).Str("body", string(out.Body)).Msg("unexpected status")
		return false, nil
	}

	if err := json.Unmarshal(out.Body, v); err != nil {
		logger.Error().Err(err).Str("url", url).Msg("decoding response")
		return false, nil
	}

	return true, nil
}

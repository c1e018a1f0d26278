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

package remote

import (
	"context"
	"strings"

	"github.com/walteh/repotree/pkg/tree"
	"gitlab.com/tozd/go/errors"
)

// Provider is the capability surface of a remote repository backend. Callers
// never see transport details; every operation returns domain objects or an
// explicit absent/error signal.
type Provider interface {
	// Name returns the provider name (e.g. "github")
	Name() string

	// Authenticate validates the configured credential against the backend
	Authenticate(ctx context.Context) bool

	// FetchTree walks the repository's directory hierarchy and returns it as
	// an ordered tree. repo is a repository URL or an "owner/repo" name.
	FetchTree(ctx context.Context, repo string) (*tree.Tree, error)

	// GetUserDetails returns the authenticated user, or (nil, nil) if the
	// backend rejected the call
	GetUserDetails(ctx context.Context) (*User, error)

	// GetRepositoryDetails returns repository metadata, or (nil, nil) if the
	// backend rejected the call
	GetRepositoryDetails(ctx context.Context, owner, repo string) (*RepositoryInfo, error)
}

// Factory creates a new provider
type Factory func(ctx context.Context) (Provider, error)

var registry = make(map[string]Factory)

// Register registers a provider factory under a name
func Register(name string, factory Factory) {
	registry[name] = factory
}

// Get returns the factory registered under name
func Get(name string) (Factory, error) {
	factory, ok := registry[name]
	if !ok {
		options := make([]string, 0, len(registry))
		for k := range registry {
			options = append(options, k)
		}
		return nil, errors.Errorf("provider %s not found, options: %s", name, strings.Join(options, ", "))
	}
	return factory, nil
}

// Ref identifies a repository as an (owner, name) pair. It is derived once
// per fetch and reused for every call in that operation.
type Ref struct {
	Owner string
	Repo  string
}

// Name returns the "owner/repo" form.
func (r Ref) Name() string {
	return r.Owner + "/" + r.Repo
}

// ParseRef derives a Ref from a repository URL or an "owner/repo" name. The
// owner and repository are the last two path segments; a trailing slash is
// tolerated.
func ParseRef(repo string) (Ref, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(repo), "/")
	if trimmed == "" {
		return Ref{}, errors.New("empty repository name")
	}

	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 {
		return Ref{}, errors.Errorf("invalid repository name: %s", repo)
	}

	owner := strings.TrimSpace(parts[len(parts)-2])
	name := strings.TrimSpace(parts[len(parts)-1])
	if owner == "" || name == "" {
		return Ref{}, errors.Errorf("invalid repository name: %s", repo)
	}

	return Ref{Owner: owner, Repo: name}, nil
}

// User is the authenticated user's identity as reported by the backend.
type User struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RepositoryInfo is the metadata of a single repository.
type RepositoryInfo struct {
	FullName      string `json:"full_name"`
	Description   string `json:"description"`
	DefaultBranch string `json:"default_branch"`
	Private       bool   `json:"private"`
	Stars         int    `json:"stargazers_count"`
	Forks         int    `json:"forks_count"`
}

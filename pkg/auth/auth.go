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

// Package auth holds the credential for a remote backend and injects it into
// outgoing requests. It also owns rate-limit exhaustion detection, since the
// backend reports it through the same authenticated response surface.
package auth

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/walteh/repotree/pkg/request"
)

// TokenAuth signs requests with an opaque token credential. The credential is
// immutable after construction and must never appear in logs.
type TokenAuth struct {
	token   string
	exec    *request.Executor
	apiBase string
}

// NewTokenAuth creates an authenticator for the given API base URL.
func NewTokenAuth(token string, exec *request.Executor, apiBase string) *TokenAuth {
	return &TokenAuth{
		token:   token,
		exec:    exec,
		apiBase: apiBase,
	}
}

// Sign attaches the credential to the request as `Authorization: token <t>`.
func (a *TokenAuth) Sign(req *http.Request) {
	req.Header.Set("Authorization", "token "+a.token)
}

// Validate checks the credential against the backend's "who am I" endpoint.
// It returns true only on a 200 response. Transport and backend failures are
// folded into false with a logged diagnostic, never an error.
func (a *TokenAuth) Validate(ctx context.Context) bool {
	logger := zerolog.Ctx(ctx)

	out, err := a.exec.Get(ctx, a.apiBase+"/user", a)
	if err != nil {
		logger.Error().Err(err).Msg("validating credential")
		return false
	}

	if err := a.CheckRateLimit(ctx, out); err != nil {
		logger.Error().Err(err).Msg("validating credential")
		return false
	}

	if out.StatusCode != http.StatusOK {
		logger.Error().Int("status", out.StatusCode).Str("body", string(out.Body)).Msg("credential rejected")
		return false
	}

	logger.Info().Msg("credential is valid")
	return true
}

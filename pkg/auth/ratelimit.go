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

package auth

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/repotree/pkg/request"
)

const (
	// HeaderRateRemaining is the remaining-requests response header.
	HeaderRateRemaining = "X-RateLimit-Remaining"

	// HeaderRateReset is the reset-time response header (Unix seconds).
	HeaderRateReset = "X-RateLimit-Reset"
)

// RateLimitError signals that the backend's rate limit is exhausted. It is a
// hard abort for the current operation and must not be retried.
type RateLimitError struct {
	ResetAt   time.Time
	Remaining int
}

func (e *RateLimitError) Error() string {
	if e.ResetAt.IsZero() {
		return "rate limit exceeded"
	}
	return fmt.Sprintf("rate limit exceeded, resets at %s", e.ResetAt.Format(time.RFC3339))
}

// CheckRateLimit inspects an outcome for rate-limit exhaustion: a 403 status
// combined with a rate-limit-remaining header. Callers must invoke this on
// every outcome that might be rate-limited, before interpreting the status
// code. Returns a *RateLimitError on exhaustion, nil otherwise.
func (a *TokenAuth) CheckRateLimit(ctx context.Context, out *request.Outcome) error {
	if out == nil || out.StatusCode != http.StatusForbidden {
		return nil
	}
	remaining := out.Header.Get(HeaderRateRemaining)
	if remaining == "" {
		// A plain 403 is a permission problem, not rate limiting.
		return nil
	}

	rlErr := &RateLimitError{}
	if n, err := strconv.Atoi(remaining); err == nil {
		rlErr.Remaining = n
	}
	if reset := out.Header.Get(HeaderRateReset); reset != "" {
		if unix, err := strconv.ParseInt(reset, 10, 64); err == nil {
			rlErr.ResetAt = time.Unix(unix, 0)
		}
	}

	zerolog.Ctx(ctx).Error().
		Time("reset_at", rlErr.ResetAt).
		Int("remaining", rlErr.Remaining).
		Msg("rate limit exceeded")

	return rlErr
}

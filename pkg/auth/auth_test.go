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
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/repotree/pkg/request"
	"gitlab.com/tozd/go/errors"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	logger := zerolog.New(zerolog.TestWriter{T: t})
	return logger.WithContext(context.Background())
}

func TestSignAttachesTokenHeader(t *testing.T) {
	a := NewTokenAuth("s3cr3t", nil, "")

	req, err := http.NewRequest(http.MethodGet, "https://api.example/user", nil)
	require.NoError(t, err, "building request")

	a.Sign(req)
	assert.Equal(t, "token s3cr3t", req.Header.Get("Authorization"), "credential should use the token scheme")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantValid bool
	}{
		{name: "valid_credential", status: 200, wantValid: true},
		{name: "rejected_credential", status: 401, wantValid: false},
		{name: "forbidden", status: 403, wantValid: false},
		{name: "backend_broken", status: 500, wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAuth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/user", r.URL.Path, "validation should hit the who-am-I endpoint")
				gotAuth = r.Header.Get("Authorization")
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			a := NewTokenAuth("s3cr3t", request.NewExecutor(), srv.URL)
			assert.Equal(t, tt.wantValid, a.Validate(testContext(t)), "validation result should match status")
			assert.Equal(t, "token s3cr3t", gotAuth, "validation call should be signed")
		})
	}
}

func TestValidateFoldsTransportFailureIntoFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	a := NewTokenAuth("s3cr3t", request.NewExecutor(request.WithSleep(
		func(ctx context.Context, d time.Duration) error { return nil },
	)), srv.URL)
	assert.False(t, a.Validate(testContext(t)), "transport failure should mean invalid, not panic/error")
}

func TestCheckRateLimit(t *testing.T) {
	reset := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Header.Set canonicalizes keys the way real http.Response headers
	// arrive; a map literal keyed with the raw constant would not.
	rateHeader := func(kv ...string) http.Header {
		h := http.Header{}
		for i := 0; i+1 < len(kv); i += 2 {
			h.Set(kv[i], kv[i+1])
		}
		return h
	}

	tests := []struct {
		name        string
		status      int
		header      http.Header
		wantLimited bool
	}{
		{
			name:   "forbidden_with_ratelimit_header",
			status: 403,
			header: rateHeader(HeaderRateRemaining, "0", HeaderRateReset, "1772366400"),
			wantLimited: true,
		},
		{
			name:        "forbidden_without_ratelimit_header",
			status:      403,
			header:      http.Header{},
			wantLimited: false,
		},
		{
			name:   "ok_with_ratelimit_header",
			status: 200,
			header: rateHeader(HeaderRateRemaining, "0"),
			wantLimited: false,
		},
		{
			name:   "forbidden_with_unparseable_reset",
			status: 403,
			header: rateHeader(HeaderRateRemaining, "0", HeaderRateReset, "soon"),
			wantLimited: true,
		},
	}

	a := NewTokenAuth("s3cr3t", nil, "")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &request.Outcome{StatusCode: tt.status, Header: tt.header}
			err := a.CheckRateLimit(testContext(t), out)

			if !tt.wantLimited {
				assert.NoError(t, err, "should not report rate limiting")
				return
			}

			require.Error(t, err, "should report rate limiting")
			var rlErr *RateLimitError
			require.True(t, errors.As(err, &rlErr), "error should be a *RateLimitError")
			if tt.header.Get(HeaderRateReset) == "1772366400" {
				assert.Equal(t, reset.Unix(), rlErr.ResetAt.Unix(), "reset time should come from the header")
			}
		})
	}
}

func TestCheckRateLimitNilOutcome(t *testing.T) {
	a := NewTokenAuth("s3cr3t", nil, "")
	assert.NoError(t, a.CheckRateLimit(testContext(t), nil), "nil outcome should be a no-op")
}

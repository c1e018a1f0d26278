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

package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/repotree/pkg/remote"
	"github.com/walteh/repotree/pkg/request"
	"github.com/walteh/repotree/pkg/tree"
	"gitlab.com/tozd/go/errors"
)

// wireEntry is one item of a contents listing as the API transmits it.
type wireEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
}

// wireFile is a single file's contents response. The content field is
// Base64-encoded, wrapped with newlines by the backend.
type wireFile struct {
	Content string `json:"content"`
}

// contentSource adapts the contents endpoint of one repository to the
// tree.Source interface. The (owner, repo) ref is fixed for its lifetime.
type contentSource struct {
	provider *Provider
	ref      remote.Ref
}

// contentsURL builds the listing/read URL for a path (empty path = root).
func (s *contentSource) contentsURL(path string) string {
	return s.provider.apiBase + "/repos/" + s.ref.Owner + "/" + s.ref.Repo + "/contents/" + path
}

// ListDirectory returns the entries at path in backend order, or (nil, nil)
// if the listing is unavailable. The returned slice is non-nil for an empty
// but listable directory.
func (s *contentSource) ListDirectory(ctx context.Context, path string) ([]tree.Entry, error) {
	logger := zerolog.Ctx(ctx)

	out, err := s.fetch(ctx, path)
	if err != nil || out == nil {
		return nil, err
	}

	var wire []wireEntry
	if err := json.Unmarshal(out.Body, &wire); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("decoding directory listing")
		return nil, nil
	}

	entries := make([]tree.Entry, 0, len(wire))
	for _, e := range wire {
		entries = append(entries, tree.Entry{
			Path: e.Path,
			Name: e.Name,
			Kind: tree.Kind(e.Type),
		})
	}
	return entries, nil
}

// ReadFile returns the decoded content of the file at path, or (nil, nil) if
// the file or its content is unavailable. Empty decoded content is treated
// as unavailable: the backend does not distinguish an empty file from a
// missing content field.
func (s *contentSource) ReadFile(ctx context.Context, path string) ([]byte, error) {
	logger := zerolog.Ctx(ctx)

	out, err := s.fetch(ctx, path)
	if err != nil || out == nil {
		return nil, err
	}

	var wire wireFile
	if err := json.Unmarshal(out.Body, &wire); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("decoding file response")
		return nil, nil
	}

	content, err := decodeContent(wire.Content)
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("decoding file content")
		return nil, nil
	}
	if len(content) == 0 {
		logger.Error().Str("path", path).Msg("file content is empty")
		return nil, nil
	}

	return content, nil
}

// fetch performs one authenticated contents call. It returns (nil, nil) for
// call-level failures (a missing or forbidden path never aborts the walk) and
// an error only for rate-limit exhaustion or cancellation.
func (s *contentSource) fetch(ctx context.Context, path string) (*request.Outcome, error) {
	logger := zerolog.Ctx(ctx)
	url := s.contentsURL(path)

	out, err := s.provider.exec.Get(ctx, url, s.provider.auth)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Errorf("fetching %s: %w", url, ctx.Err())
		}
		// Retry exhaustion makes this node unavailable, nothing more.
		logger.Error().Err(err).Str("path", path).Msg("contents request failed")
		return nil, nil
	}

	if err := s.provider.auth.CheckRateLimit(ctx, out); err != nil {
		return nil, errors.Errorf("fetching %s: %w", url, err)
	}

	if out.StatusCode != http.StatusOK {
		logger.Error().Int("status", out.StatusCode).Str("path", path).Msg("contents request rejected")
		return nil, nil
	}

	return out, nil
}

// decodeContent decodes the backend's newline-wrapped Base64 payload.
func decodeContent(encoded string) ([]byte, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(encoded), "\n", "")
	if cleaned == "" {
		return nil, nil
	}
	content, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, errors.Errorf("base64 decoding: %w", err)
	}
	return content, nil
}

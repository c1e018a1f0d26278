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

package render

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 📢 Feedback provides user-friendly progress output alongside structured logs
type Feedback struct {
	log zerolog.Logger
}

// 🎯 NewFeedback creates a feedback printer bound to the context logger
func NewFeedback(ctx context.Context) *Feedback {
	return &Feedback{
		log: *zerolog.Ctx(ctx),
	}
}

// 🔍 LogValidation logs credential validation results
func (f *Feedback) LogValidation(valid bool, description string, err error) {
	if valid {
		pterm.Success.WithPrefix(pterm.Prefix{Text: "✅"}).Println(description)
		f.log.Info().Msg(description)
		return
	}
	if err != nil {
		pterm.Error.WithPrefix(pterm.Prefix{Text: "❌"}).Println(description)
		pterm.Error.Println(err)
		f.log.Error().Err(err).Msg(description)
	} else {
		pterm.Warning.WithPrefix(pterm.Prefix{Text: "⚠️"}).Println(description)
		f.log.Warn().Msg(description)
	}
}

// 📦 LogFetchStart announces the start of a repository fetch
func (f *Feedback) LogFetchStart(repo string) {
	msg := fmt.Sprintf("Fetching %s", repo)
	pterm.Info.WithPrefix(pterm.Prefix{Text: "📦"}).Println(msg)
	f.log.Info().Str("repo", repo).Msg("fetch started")
}

// ✨ LogFetchDone summarizes a completed fetch
func (f *Feedback) LogFetchDone(repo string, nodes int) {
	msg := fmt.Sprintf("Fetched %s (%d entries)", repo, nodes)
	pterm.Success.WithPrefix(pterm.Prefix{Text: "✨"}).Println(msg)
	f.log.Info().Str("repo", repo).Int("nodes", nodes).Msg("fetch complete")
}

// ⏳ LogRateLimited reports a rate-limit abort
func (f *Feedback) LogRateLimited(err error) {
	pterm.Error.WithPrefix(pterm.Prefix{Text: "⏳"}).Println("Rate limit exceeded")
	pterm.Error.Println(err)
	f.log.Error().Err(err).Msg("rate limited")
}

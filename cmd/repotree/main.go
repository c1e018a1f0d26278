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

package main

import (
	"context"
	"os"

	"github.com/walteh/repotree/cmd/repotree/commands"
	"github.com/walteh/repotree/cmd/repotree/opts"
	"github.com/walteh/repotree/pkg/render"
)

func main() {
	// Populated by the root command's PersistentPreRunE once flags are parsed
	o := &opts.RootOpts{}

	rootCmd := newRootCmd(o)
	rootCmd.AddCommand(
		commands.NewFetchCmd(o, newProvider),
		commands.NewValidateCmd(o, newProvider),
		commands.NewUserCmd(o, newProvider),
		commands.NewRepoCmd(o, newProvider),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		feedback := o.Feedback
		if feedback == nil {
			// Flag parsing failed before the pre-run hook could run
			feedback = render.NewFeedback(context.Background())
		}
		feedback.LogValidation(false, "Command failed", err)
		os.Exit(1)
	}
}

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

// Package render formats fetched trees for terminal display.
package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/walteh/repotree/pkg/tree"
)

// 🎨 Display configuration
const (
	depthIndent      = 2  // spaces per tree level
	nameWidth        = 40 // base width for entry names
	fingerprintShort = 12 // hex chars of the fingerprint to show
)

// Renderer writes a tree listing to a console.
type Renderer struct {
	out io.Writer
}

// New creates a renderer writing to out.
func New(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

// Render prints one line per node: a kind symbol, the indented name, and for
// files with content a shortened fingerprint.
func (r *Renderer) Render(t *tree.Tree) {
	for _, n := range t.Nodes {
		r.renderNode(n)
	}
	r.renderSummary(t)
}

func (r *Renderer) renderNode(n tree.Node) {
	var symbol string
	var symbolColor color.Attribute
	switch n.Kind {
	case tree.KindDirectory:
		symbol = "▸"
		symbolColor = color.FgCyan
	case tree.KindFile:
		if n.HasContent() {
			symbol = "•"
			symbolColor = color.FgGreen
		} else {
			symbol = "◦"
			symbolColor = color.FgYellow
		}
	default:
		symbol = "?"
		symbolColor = color.FgMagenta
	}

	indent := (n.Depth - 1) * depthIndent
	if indent < 0 {
		indent = 0
	}

	name := fmt.Sprintf("%*s%s", indent, "", n.Name)
	line := fmt.Sprintf("%s %-*s", color.New(symbolColor).Sprint(symbol), nameWidth, name)

	if n.HasContent() {
		line += color.New(color.FgHiBlack).Sprint(shortFingerprint(n.Fingerprint))
	}

	fmt.Fprintln(r.out, line)
}

func (r *Renderer) renderSummary(t *tree.Tree) {
	var files, dirs, withContent int
	for _, n := range t.Nodes {
		switch n.Kind {
		case tree.KindDirectory:
			dirs++
		case tree.KindFile:
			files++
			if n.HasContent() {
				withContent++
			}
		}
	}

	summary := fmt.Sprintf("%d directories, %d files (%d with content)", dirs, files, withContent)
	fmt.Fprintln(r.out, color.New(color.Bold).Sprint(summary))
}

func shortFingerprint(fp string) string {
	if len(fp) <= fingerprintShort {
		return fp
	}
	return fp[:fingerprintShort]
}

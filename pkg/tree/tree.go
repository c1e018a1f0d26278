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

// Package tree models a remote repository's directory hierarchy as an ordered
// collection of typed nodes, and assembles one by walking a content source
// depth-first in pre-order.
package tree

import (
	"crypto/sha256"
	"encoding/hex"
)

// Kind distinguishes files from directories.
type Kind string

const (
	KindFile      Kind = "file"
	KindDirectory Kind = "dir"
)

// Node is one file-system entry. Content and Fingerprint are coupled: a node
// carries a fingerprint iff it carries content. An empty content string means
// absent (the backend does not distinguish an empty file from a missing
// content field).
type Node struct {
	Path        string `json:"path"`
	Name        string `json:"name"`
	Depth       int    `json:"depth"`
	Kind        Kind   `json:"kind"`
	Content     string `json:"content,omitempty"`
	Fingerprint string `json:"content_fingerprint,omitempty"`
}

// HasContent reports whether file content was successfully fetched.
func (n Node) HasContent() bool {
	return n.Content != ""
}

// Entry is one item returned by a directory listing.
type Entry struct {
	Path string
	Name string
	Kind Kind
}

// Tree is an insertion-ordered collection of nodes. Order is discovery order:
// pre-order, depth-first, children in the order the backend listed them. Once
// an assembly returns it, the tree is owned by the caller and never mutated.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Add appends a node in encounter order.
func (t *Tree) Add(n Node) {
	t.Nodes = append(t.Nodes, n)
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.Nodes)
}

// ToMap serializes the tree into a nested mapping, one map per node with a
// "children" slice, preserving pre-order. Suitable for JSON/YAML emission.
func (t *Tree) ToMap() map[string]any {
	root := map[string]any{
		"path":     "",
		"kind":     string(KindDirectory),
		"children": []any{},
	}

	// Directories indexed by path so children can find their parent. The
	// pre-order invariant guarantees a parent is mapped before its children.
	dirs := map[string]map[string]any{"": root}

	for _, n := range t.Nodes {
		m := map[string]any{
			"path":  n.Path,
			"name":  n.Name,
			"depth": n.Depth,
			"kind":  string(n.Kind),
		}
		if n.HasContent() {
			m["content"] = n.Content
			m["content_fingerprint"] = n.Fingerprint
		}
		if n.Kind == KindDirectory {
			m["children"] = []any{}
			dirs[n.Path] = m
		}

		parent, ok := dirs[parentPath(n.Path)]
		if !ok {
			parent = root
		}
		parent["children"] = append(parent["children"].([]any), m)
	}

	return root
}

// Fingerprint computes the deterministic content digest attached to file
// nodes (sha256, hex-encoded).
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func parentPath(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return ""
}

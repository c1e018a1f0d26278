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

package tree

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

// fakeSource serves a canned hierarchy. Paths missing from listings are
// treated as unavailable (nil, nil); hardErr aborts everything.
type fakeSource struct {
	listings map[string][]Entry
	files    map[string][]byte
	hardErr  error

	mu    sync.Mutex
	reads []string
}

func (s *fakeSource) ListDirectory(ctx context.Context, path string) ([]Entry, error) {
	if s.hardErr != nil {
		return nil, s.hardErr
	}
	entries, ok := s.listings[path]
	if !ok {
		return nil, nil
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

func (s *fakeSource) ReadFile(ctx context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	s.reads = append(s.reads, path)
	s.mu.Unlock()
	return s.files[path], nil
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	logger := zerolog.New(zerolog.TestWriter{T: t})
	return logger.WithContext(context.Background())
}

// the repository from the original integration scenario: a README at the
// root and one file inside src/.
func scenarioSource() *fakeSource {
	return &fakeSource{
		listings: map[string][]Entry{
			"": {
				{Path: "README.md", Name: "README.md", Kind: KindFile},
				{Path: "src", Name: "src", Kind: KindDirectory},
			},
			"src": {
				{Path: "src/a.py", Name: "a.py", Kind: KindFile},
			},
		},
		files: map[string][]byte{
			"README.md": []byte("hi"),
			"src/a.py":  []byte("x=1"),
		},
	}
}

func TestAssemblePreOrderDepthFirst(t *testing.T) {
	a := NewAssembler(scenarioSource(), Options{})

	tr, err := a.Assemble(testContext(t), "")
	require.NoError(t, err, "assembly should succeed")
	require.Equal(t, 3, tr.Len(), "tree should have exactly three nodes")

	readme, src, apy := tr.Nodes[0], tr.Nodes[1], tr.Nodes[2]

	assert.Equal(t, "README.md", readme.Path, "first node is the root file")
	assert.Equal(t, 1, readme.Depth, "root children have depth 1")
	assert.Equal(t, KindFile, readme.Kind, "README is a file")
	assert.Equal(t, "hi", readme.Content, "content should be fetched")
	assert.Equal(t, Fingerprint([]byte("hi")), readme.Fingerprint, "fingerprint should match content")

	assert.Equal(t, "src", src.Path, "directory node comes before its children")
	assert.Equal(t, 1, src.Depth, "src is a root child")
	assert.Equal(t, KindDirectory, src.Kind, "src is a directory")
	assert.Empty(t, src.Fingerprint, "directories carry no fingerprint")

	assert.Equal(t, "src/a.py", apy.Path, "subdirectory children follow their directory")
	assert.Equal(t, 2, apy.Depth, "depth increments per directory level")
	assert.Equal(t, "x=1", apy.Content, "nested file content should be fetched")
	assert.NotEmpty(t, apy.Fingerprint, "file with content has a fingerprint")
}

func TestAssembleDepthsFollowParents(t *testing.T) {
	src := &fakeSource{
		listings: map[string][]Entry{
			"": {
				{Path: "a", Name: "a", Kind: KindDirectory},
			},
			"a": {
				{Path: "a/b", Name: "b", Kind: KindDirectory},
				{Path: "a/x.txt", Name: "x.txt", Kind: KindFile},
			},
			"a/b": {
				{Path: "a/b/y.txt", Name: "y.txt", Kind: KindFile},
			},
		},
		files: map[string][]byte{
			"a/x.txt":   []byte("x"),
			"a/b/y.txt": []byte("y"),
		},
	}

	tr, err := NewAssembler(src, Options{}).Assemble(testContext(t), "")
	require.NoError(t, err, "assembly should succeed")

	depths := map[string]int{}
	for _, n := range tr.Nodes {
		depths[n.Path] = n.Depth
	}

	assert.Equal(t, 1, depths["a"], "root child depth")
	assert.Equal(t, 2, depths["a/b"], "child of depth-1 directory")
	assert.Equal(t, 2, depths["a/x.txt"], "sibling of a/b shares its depth")
	assert.Equal(t, 3, depths["a/b/y.txt"], "each directory level adds one")

	wantOrder := []string{"a", "a/b", "a/b/y.txt", "a/x.txt"}
	var gotOrder []string
	for _, n := range tr.Nodes {
		gotOrder = append(gotOrder, n.Path)
	}
	assert.Equal(t, wantOrder, gotOrder, "recursion into a directory happens before the next sibling")
}

func TestAssembleKeepsNodeWhenContentUnavailable(t *testing.T) {
	src := scenarioSource()
	delete(src.files, "README.md") // read returns (nil, nil)

	tr, err := NewAssembler(src, Options{}).Assemble(testContext(t), "")
	require.NoError(t, err, "a missing file body should not abort the fetch")
	require.Equal(t, 3, tr.Len(), "node count should be unchanged")

	readme := tr.Nodes[0]
	assert.False(t, readme.HasContent(), "content should be absent")
	assert.Empty(t, readme.Fingerprint, "fingerprint must never appear without content")
}

func TestAssembleSkipsUnlistableBranch(t *testing.T) {
	src := scenarioSource()
	delete(src.listings, "src") // listing src now 404s

	tr, err := NewAssembler(src, Options{}).Assemble(testContext(t), "")
	require.NoError(t, err, "an unlistable subdirectory should not abort the fetch")
	require.Equal(t, 2, tr.Len(), "src keeps its node but contributes no descendants")

	assert.Equal(t, "README.md", tr.Nodes[0].Path, "siblings before the bad branch survive")
	assert.Equal(t, "src", tr.Nodes[1].Path, "the directory node itself is kept")
}

func TestAssembleAbortsOnHardError(t *testing.T) {
	hard := errors.New("rate limit exceeded")
	src := scenarioSource()
	src.hardErr = hard

	tr, err := NewAssembler(src, Options{}).Assemble(testContext(t), "")
	require.Error(t, err, "hard errors must propagate")
	assert.True(t, errors.Is(err, hard), "the original error should be wrapped, not replaced")
	assert.Nil(t, tr, "no partial tree on hard abort")
}

func TestAssembleEmptyRoot(t *testing.T) {
	src := &fakeSource{listings: map[string][]Entry{"": {}}}

	tr, err := NewAssembler(src, Options{}).Assemble(testContext(t), "")
	require.NoError(t, err, "an empty repository is a valid tree")
	assert.Equal(t, 0, tr.Len(), "tree should be empty")
}

func TestAssembleIgnorePatterns(t *testing.T) {
	src := scenarioSource()
	src.listings[""] = append(src.listings[""], Entry{Path: "vendor", Name: "vendor", Kind: KindDirectory})
	src.listings["vendor"] = []Entry{{Path: "vendor/dep.go", Name: "dep.go", Kind: KindFile}}

	tr, err := NewAssembler(src, Options{IgnorePatterns: []string{"vendor", "**/*.py"}}).Assemble(testContext(t), "")
	require.NoError(t, err, "assembly should succeed")

	var paths []string
	for _, n := range tr.Nodes {
		paths = append(paths, n.Path)
	}
	assert.Equal(t, []string{"README.md", "src"}, paths, "ignored entries and their subtrees should be dropped")
	assert.NotContains(t, src.reads, "src/a.py", "ignored files should not be fetched at all")
}

func TestAssembleConcurrentReadsPreserveOrder(t *testing.T) {
	src := &fakeSource{
		listings: map[string][]Entry{
			"": {
				{Path: "a.txt", Name: "a.txt", Kind: KindFile},
				{Path: "b.txt", Name: "b.txt", Kind: KindFile},
				{Path: "c.txt", Name: "c.txt", Kind: KindFile},
				{Path: "d.txt", Name: "d.txt", Kind: KindFile},
			},
		},
		files: map[string][]byte{
			"a.txt": []byte("a"),
			"b.txt": []byte("b"),
			"c.txt": []byte("c"),
			"d.txt": []byte("d"),
		},
	}

	tr, err := NewAssembler(src, Options{Concurrency: 3}).Assemble(testContext(t), "")
	require.NoError(t, err, "concurrent assembly should succeed")
	require.Equal(t, 4, tr.Len(), "all files present")

	for i, want := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, want+".txt", tr.Nodes[i].Path, "listing order must be preserved")
		assert.Equal(t, want, tr.Nodes[i].Content, "content must land in the right node")
	}
}

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

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// Source lists directories and reads files from a remote backend. Both
// operations return (nil, nil) when the target is unavailable (the assembler
// skips that node or branch and carries on). A non-nil error is a hard abort
// for the whole assembly: rate-limit exhaustion or cancellation.
type Source interface {
	// ListDirectory returns the entries at path, in backend order. Empty
	// path means the repository root.
	ListDirectory(ctx context.Context, path string) ([]Entry, error)

	// ReadFile returns the decoded content of the file at path.
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

// Options tunes an assembly.
type Options struct {
	// IgnorePatterns are doublestar globs matched against entry paths.
	// Matching entries are dropped; matching directories are not descended.
	IgnorePatterns []string

	// Concurrency bounds parallel file-content fetches within a directory.
	// Values below 2 keep the walk fully synchronous. Child ordering in the
	// tree is the listing order regardless.
	Concurrency int
}

// Assembler walks a Source and materializes a Tree. It is the sole writer of
// the tree during assembly.
type Assembler struct {
	src  Source
	opts Options
}

// NewAssembler creates an assembler over the given source.
func NewAssembler(src Source, opts Options) *Assembler {
	return &Assembler{src: src, opts: opts}
}

// Assemble fetches the tree rooted at startPath (empty = repository root).
// The walk is depth-first pre-order: each directory's entries are appended in
// listing order, recursing into a subdirectory immediately after appending
// its node. A failed listing prunes that branch only; a failed file read
// keeps the bare node. The returned depth numbering starts at 1 for the
// start directory's direct children.
func (a *Assembler) Assemble(ctx context.Context, startPath string) (*Tree, error) {
	t := &Tree{}
	if err := a.walk(ctx, startPath, 1, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (a *Assembler) walk(ctx context.Context, path string, depth int, t *Tree) error {
	logger := zerolog.Ctx(ctx)

	entries, err := a.src.ListDirectory(ctx, path)
	if err != nil {
		return errors.Errorf("listing %q: %w", path, err)
	}
	if entries == nil {
		// Listing unavailable: this branch contributes nothing further.
		logger.Debug().Str("path", path).Msg("skipping unavailable branch")
		return nil
	}

	entries = a.filter(ctx, entries)

	contents, err := a.readContents(ctx, entries)
	if err != nil {
		return err
	}

	for i, entry := range entries {
		node := Node{
			Path:  entry.Path,
			Name:  entry.Name,
			Depth: depth,
			Kind:  entry.Kind,
		}
		if entry.Kind == KindFile && len(contents[i]) > 0 {
			node.Content = string(contents[i])
			node.Fingerprint = Fingerprint(contents[i])
		}
		t.Add(node)

		if entry.Kind == KindDirectory {
			if err := a.walk(ctx, entry.Path, depth+1, t); err != nil {
				return err
			}
		}
	}

	return nil
}

// readContents fetches the content of every file entry, index-aligned with
// entries. Directories get a nil slot. With Concurrency > 1 the reads run on
// a bounded errgroup; slot assignment keeps ordering deterministic.
func (a *Assembler) readContents(ctx context.Context, entries []Entry) ([][]byte, error) {
	contents := make([][]byte, len(entries))

	if a.opts.Concurrency > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(a.opts.Concurrency)
		for i, entry := range entries {
			if entry.Kind != KindFile {
				continue
			}
			g.Go(func() error {
				content, err := a.src.ReadFile(gctx, entry.Path)
				if err != nil {
					return errors.Errorf("reading %q: %w", entry.Path, err)
				}
				contents[i] = content
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return contents, nil
	}

	for i, entry := range entries {
		if entry.Kind != KindFile {
			continue
		}
		content, err := a.src.ReadFile(ctx, entry.Path)
		if err != nil {
			return nil, errors.Errorf("reading %q: %w", entry.Path, err)
		}
		contents[i] = content
	}
	return contents, nil
}

func (a *Assembler) filter(ctx context.Context, entries []Entry) []Entry {
	if len(a.opts.IgnorePatterns) == 0 {
		return entries
	}

	kept := entries[:0:0]
	for _, entry := range entries {
		if a.ignored(ctx, entry.Path) {
			continue
		}
		kept = append(kept, entry)
	}
	return kept
}

func (a *Assembler) ignored(ctx context.Context, path string) bool {
	for _, pattern := range a.opts.IgnorePatterns {
		matched, err := doublestar.Match(pattern, path)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("pattern", pattern).Msg("invalid ignore pattern")
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

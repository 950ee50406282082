// Package walk provides deterministic, glob-filtered repository traversal
// for the indexing pipeline.
package walk

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	searcherr "github.com/nilsyn/searchd/internal/errors"
)

// vcsDirs are hidden version-control directories that are always skipped,
// regardless of include/exclude patterns.
var vcsDirs = map[string]bool{
	".git": true,
	".hg":  true,
	".svn": true,
	".bzr": true,
}

// readWorkers bounds the concurrent file-read fan-out during a walk.
const readWorkers = 8

// File is a single file emitted by a walk: its repository-relative,
// POSIX-normalized path and its decoded content.
type File struct {
	RelPath   string
	Bytes     []byte
	SizeBytes int64
}

// Options configures a walk.
type Options struct {
	IncludePatterns  []string
	ExcludePatterns  []string
	MaxFileSizeBytes int64
}

// Walker performs deterministic depth-first directory traversal with glob
// include/exclude filtering, a per-file size cap, and UTF-8 validation.
// Directory order is single-threaded and lexicographic so that doc_ids
// derived from walk order are reproducible; individual file reads are
// dispatched to a bounded worker pool and re-sequenced back into walk
// order before being returned.
type Walker struct {
	globs *globCache
}

// New creates a Walker with its own glob-matcher cache.
func New() *Walker {
	return &Walker{globs: newGlobCache()}
}

// Walk traverses root and returns files in deterministic walk order.
// A failure to open root itself is fatal; per-file I/O errors are logged
// and the file is skipped.
func (w *Walker) Walk(ctx context.Context, root string, opts Options) ([]File, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, searcherr.InvalidPath(root, err)
	}

	paths, err := w.collectPaths(root, opts)
	if err != nil {
		return nil, err
	}

	return w.readAll(ctx, root, paths, opts)
}

// collectPaths walks the tree single-threaded, in lexicographic order,
// applying directory skips and glob filters, and returns the ordered list
// of repository-relative paths to read.
func (w *Walker) collectPaths(root string, opts Options) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			slog.Warn("walk_entry_error", "path", path, "error", err)
			return nil
		}

		if path == root {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if vcsDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		if !w.included(rel, opts) {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			slog.Warn("walk_stat_error", "path", rel, "error", infoErr)
			return nil
		}
		if info.Size() == 0 {
			return nil
		}
		if opts.MaxFileSizeBytes > 0 && info.Size() > opts.MaxFileSizeBytes {
			return nil
		}

		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, searcherr.InvalidPath(root, err)
	}

	sort.Strings(paths)
	return paths, nil
}

// included reports whether rel passes the include/exclude glob filters:
// emitted iff (include_patterns is empty OR any include matches) AND no
// exclude matches.
func (w *Walker) included(rel string, opts Options) bool {
	for _, pat := range opts.ExcludePatterns {
		if w.globs.match(pat, rel) {
			return false
		}
	}
	if len(opts.IncludePatterns) == 0 {
		return true
	}
	for _, pat := range opts.IncludePatterns {
		if w.globs.match(pat, rel) {
			return true
		}
	}
	return false
}

// readAll dispatches file reads across a bounded worker pool and
// re-sequences the results back into walk order.
func (w *Walker) readAll(ctx context.Context, root string, paths []string, opts Options) ([]File, error) {
	results := make([]*File, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(readWorkers)

	for i, rel := range paths {
		i, rel := i, rel
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			full := filepath.Join(root, filepath.FromSlash(rel))
			data, err := os.ReadFile(full)
			if err != nil {
				slog.Warn("walk_read_error", "path", rel, "error", err)
				return nil
			}
			if !utf8.Valid(data) {
				slog.Warn("walk_invalid_utf8", "path", rel)
				return nil
			}
			results[i] = &File{RelPath: rel, Bytes: data, SizeBytes: int64(len(data))}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, searcherr.IoError("walk read cancelled", err)
	}

	files := make([]File, 0, len(results))
	for _, f := range results {
		if f != nil {
			files = append(files, *f)
		}
	}
	return files, nil
}

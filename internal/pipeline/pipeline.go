// Package pipeline drives Walker -> Chunker -> InvertedIndex for a single
// indexing run and updates the session's metadata atomically on success.
package pipeline

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/nilsyn/searchd/internal/chunk"
	searcherr "github.com/nilsyn/searchd/internal/errors"
	"github.com/nilsyn/searchd/internal/index"
	"github.com/nilsyn/searchd/internal/storage"
	"github.com/nilsyn/searchd/internal/walk"
)

// Mode selects how an indexing run treats a session's existing documents.
type Mode string

const (
	ModeCreate  Mode = "create"
	ModeAppend  Mode = "append"
	ModeReplace Mode = "replace"
)

// FileError records a single per-file failure that did not abort the run.
type FileError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Request is a single indexing run's input.
type Request struct {
	SessionID        string
	RootPath         string
	IncludePatterns  []string
	ExcludePatterns  []string
	ChunkSize        int
	Overlap          int
	MaxFileSizeBytes int64
	Mode             Mode
}

// Result is a single indexing run's output.
type Result struct {
	FilesIndexed  int         `json:"files_indexed"`
	ChunksCreated int         `json:"chunks_created"`
	BytesIndexed  int64       `json:"bytes_indexed"`
	DurationMs    int64       `json:"duration_ms"`
	Errors        []FileError `json:"errors"`
}

// Pipeline runs indexing requests against a StorageManager.
type Pipeline struct {
	sessions *storage.Manager
	walker   *walk.Walker
}

// New creates a Pipeline backed by the given session manager.
func New(sessions *storage.Manager) *Pipeline {
	return &Pipeline{sessions: sessions, walker: walk.New()}
}

// Run executes a single indexing request end to end: resolve the root,
// obtain the session, walk and chunk the tree, write and commit the
// index, and persist updated metadata. A failed commit aborts the run and
// leaves metadata untouched; per-file errors are collected but never
// abort the run.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	info, err := os.Stat(req.RootPath)
	if err != nil || !info.IsDir() {
		return nil, searcherr.InvalidPath(req.RootPath, err)
	}

	sess, err := p.openSession(req)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	w, err := sess.Index.Writer()
	if err != nil {
		return nil, err
	}
	defer w.Close()

	scanStart := time.Now()
	files, err := p.walker.Walk(ctx, req.RootPath, walk.Options{
		IncludePatterns:  req.IncludePatterns,
		ExcludePatterns:  req.ExcludePatterns,
		MaxFileSizeBytes: req.MaxFileSizeBytes,
	})
	scanDuration := time.Since(scanStart)
	if err != nil {
		return nil, err
	}

	if req.Mode == ModeReplace {
		if err := w.DeleteAll(); err != nil {
			w.Close()
			return nil, err
		}
	}

	var (
		fileErrors    []FileError
		filesIndexed  int
		bytesIndexed  int64
		indexDuration time.Duration
	)

	chunkStart := time.Now()
	for _, f := range files {
		select {
		case <-ctx.Done():
			w.Close()
			return nil, searcherr.IndexingFailed("indexing cancelled", ctx.Err())
		default:
		}

		chunks, err := chunk.Split(f.RelPath, string(f.Bytes), req.ChunkSize, req.Overlap)
		if err != nil {
			fileErrors = append(fileErrors, FileError{Path: f.RelPath, Message: err.Error()})
			continue
		}

		lang := languageForPath(f.RelPath)
		indexStart := time.Now()
		failed := false
		var fileBytes int64
		for _, c := range chunks {
			doc := index.Document{
				SessionID:  req.SessionID,
				FilePath:   c.FilePath,
				Language:   lang,
				Content:    c.Text,
				ChunkIndex: c.Index,
				StartChar:  c.StartChar,
				EndChar:    c.EndChar,
			}
			if err := w.Add(c.ID, doc); err != nil {
				fileErrors = append(fileErrors, FileError{Path: f.RelPath, Message: err.Error()})
				failed = true
				break
			}
			fileBytes += int64(len(c.Text))
		}
		indexDuration += time.Since(indexStart)

		if !failed {
			filesIndexed++
			bytesIndexed += fileBytes
		}
	}
	chunkDuration := time.Since(chunkStart) - indexDuration

	commitStart := time.Now()
	if err := w.Commit(); err != nil {
		return nil, searcherr.IndexingFailed("commit failed", err)
	}
	commitDuration := time.Since(commitStart)

	docCount, err := sess.Index.DocCount()
	if err != nil {
		return nil, err
	}

	// chunks_created/files_indexed/bytes_indexed are always recomputed from
	// what the index actually holds post-commit, never accumulated across
	// runs: chunk ids are content-addressable, so re-appending an
	// already-indexed file upserts rather than duplicates, and a blind
	// running total would drift away from what validate.Check independently
	// recomputes from the same index.
	actualFiles, actualBytes, err := actualTotals(ctx, sess, docCount)
	if err != nil {
		return nil, err
	}

	meta := sess.Metadata
	meta.UpdatedAt = time.Now().UTC()
	meta.ChunkSize = req.ChunkSize
	meta.ChunkOverlap = req.Overlap
	meta.IncludePatterns = req.IncludePatterns
	meta.ExcludePatterns = req.ExcludePatterns
	meta.MaxFileSizeBytes = req.MaxFileSizeBytes
	meta.ChunksCreated = int(docCount)
	meta.FilesIndexed = actualFiles
	meta.BytesIndexed = actualBytes
	if err := p.sessions.PutMetadata(req.SessionID, meta); err != nil {
		return nil, err
	}

	duration := time.Since(start)

	slog.Info("index_complete",
		"session_id", req.SessionID,
		"mode", string(req.Mode),
		"files_indexed", filesIndexed,
		"chunks_created", int(docCount),
		"bytes_indexed", bytesIndexed,
		"error_count", len(fileErrors),
		"duration_ms", duration.Milliseconds(),
		"scan_ms", scanDuration.Milliseconds(),
		"chunk_ms", chunkDuration.Milliseconds(),
		"index_ms", indexDuration.Milliseconds(),
		"commit_ms", commitDuration.Milliseconds(),
	)

	return &Result{
		FilesIndexed:  filesIndexed,
		ChunksCreated: int(docCount),
		BytesIndexed:  bytesIndexed,
		DurationMs:    duration.Milliseconds(),
		Errors:        fileErrors,
	}, nil
}

func (p *Pipeline) openSession(req Request) (*storage.Session, error) {
	switch req.Mode {
	case ModeCreate:
		return p.sessions.CreateSession(req.SessionID, req.ChunkSize, req.Overlap, req.IncludePatterns, req.ExcludePatterns, req.MaxFileSizeBytes)
	case ModeAppend, ModeReplace:
		return p.sessions.OpenSession(req.SessionID)
	default:
		return nil, searcherr.InvalidQuery(string(req.Mode), nil).
			WithSuggestion("mode must be one of create, append, replace")
	}
}

// actualTotals enumerates sess's just-committed index and returns the
// distinct file count and total stored content bytes it actually holds,
// the same pair validate.Check independently recomputes to catch drift.
func actualTotals(ctx context.Context, sess *storage.Session, docCount uint64) (int, int64, error) {
	if docCount == 0 {
		return 0, 0, nil
	}

	reader, err := sess.Index.Reader()
	if err != nil {
		return 0, 0, err
	}

	hits, err := reader.Search(ctx, index.MatchAll(), int(docCount))
	if err != nil {
		return 0, 0, searcherr.StorageError("enumerate index documents", err)
	}

	seen := make(map[string]struct{}, len(hits))
	var bytes int64
	for _, h := range hits {
		seen[h.FilePath] = struct{}{}
		bytes += int64(len(h.Content))
	}
	return len(seen), bytes, nil
}

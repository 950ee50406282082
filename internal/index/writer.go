package index

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/gofrs/flock"

	searcherr "github.com/nilsyn/searchd/internal/errors"
)

// Writer is the exclusive handle used to append or replace documents in an
// Index. It moves through Idle -> Writing -> Committing -> Idle; only one
// Writer may exist per index directory at a time, enforced by flock on the
// lock file.
type Writer struct {
	idx       *Index
	flock     *flock.Flock
	batch     *bleve.Batch
	deleteAll bool
	done      bool
}

// Add buffers a document for the next Commit. The document is not visible
// to readers until Commit succeeds.
func (w *Writer) Add(id string, doc Document) error {
	if w.done {
		return searcherr.StorageError("writer already closed", nil)
	}
	if err := w.batch.Index(id, doc); err != nil {
		return searcherr.IndexingFailed("buffer document", err)
	}
	return nil
}

// DeleteAll marks every existing document for removal. The deletion is
// made visible on the next Commit, alongside any documents added in the
// same writer session; used by replace-mode reindexing.
func (w *Writer) DeleteAll() error {
	if w.done {
		return searcherr.StorageError("writer already closed", nil)
	}
	w.idx.mu.Lock()
	docCount, err := w.idx.bidx.DocCount()
	w.idx.mu.Unlock()
	if err != nil {
		return searcherr.StorageError("count existing documents", err)
	}
	if docCount == 0 {
		return nil
	}

	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = int(docCount)
	req.Fields = nil

	w.idx.mu.Lock()
	result, err := w.idx.bidx.Search(req)
	w.idx.mu.Unlock()
	if err != nil {
		return searcherr.StorageError("enumerate existing documents", err)
	}

	for _, hit := range result.Hits {
		w.batch.Delete(hit.ID)
	}
	w.deleteAll = true
	return nil
}

// Commit atomically makes the buffered additions and deletions visible to
// new readers and bumps the generation pointer. A failed commit leaves the
// previously committed generation intact.
func (w *Writer) Commit() error {
	if w.done {
		return searcherr.StorageError("writer already closed", nil)
	}

	w.idx.mu.Lock()
	err := w.idx.bidx.Batch(w.batch)
	w.idx.mu.Unlock()
	if err != nil {
		return searcherr.IndexingFailed("commit batch", err)
	}

	if err := w.idx.bumpGeneration(); err != nil {
		return searcherr.IndexingFailed("persist generation pointer", err)
	}

	return w.Close()
}

// Close releases the writer lock without committing, discarding any
// buffered, uncommitted documents. Safe to call after Commit or on a
// cancelled run; idempotent.
func (w *Writer) Close() error {
	if w.done {
		return nil
	}
	w.done = true
	if err := w.flock.Unlock(); err != nil {
		return searcherr.StorageError("release writer lock", err)
	}
	return nil
}

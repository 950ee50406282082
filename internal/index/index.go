// Package index implements the persistent BM25 inverted index over the
// chunk schema, backed by bleve's embedded segment store.
package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/gofrs/flock"

	searcherr "github.com/nilsyn/searchd/internal/errors"
)

// Config holds the BM25 similarity parameters. bleve's own scorer computes
// the actual term weights; these are carried as index metadata for
// observability and to document the ranking model this index implements.
type Config struct {
	K1 float64
	B  float64
}

// DefaultConfig returns the BM25 parameters named by the ranking model:
// k1 = 1.2, b = 0.75.
func DefaultConfig() Config {
	return Config{K1: 1.2, B: 0.75}
}

const lockFileName = ".lock"
const genMetaFileName = "meta.json"

// generationMeta is the sidecar recording the current committed generation
// and schema version, read on open to decide whether a migration is due.
type generationMeta struct {
	SchemaVersion int   `json:"schema_version"`
	Generation    int64 `json:"generation"`
}

// Index is a session's persistent BM25 inverted index directory: segment
// files, a generation pointer, and a lock file, all rooted at dir.
type Index struct {
	mu     sync.Mutex
	dir    string
	bidx   bleve.Index
	config Config
	gen    generationMeta
	closed bool
}

// OpenOrCreate opens an existing index at dir, or creates an empty one.
// If the on-disk schema version is older than schemaVersion, the index is
// migrated in place (today this only bumps the recorded version: the
// schema has had exactly one revision since this core shipped).
func OpenOrCreate(dir string, schemaVersion int) (*Index, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, searcherr.IoError("create index directory", err)
	}

	im, err := buildIndexMapping()
	if err != nil {
		return nil, searcherr.InternalError("build index mapping", err)
	}

	bleveDir := filepath.Join(dir, "bleve")
	bidx, err := bleve.Open(bleveDir)
	if err == bleve.ErrorIndexPathDoesNotExist {
		bidx, err = bleve.New(bleveDir, im)
	}
	if err != nil {
		return nil, searcherr.StorageError("open or create index", err)
	}

	gen, err := readGenerationMeta(dir)
	if err != nil {
		return nil, err
	}
	if gen.SchemaVersion < schemaVersion {
		gen.SchemaVersion = schemaVersion
		if err := writeGenerationMeta(dir, gen); err != nil {
			return nil, err
		}
	}

	return &Index{
		dir:    dir,
		bidx:   bidx,
		config: DefaultConfig(),
		gen:    gen,
	}, nil
}

func readGenerationMeta(dir string) (generationMeta, error) {
	path := filepath.Join(dir, genMetaFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return generationMeta{SchemaVersion: 1, Generation: 0}, nil
	}
	if err != nil {
		return generationMeta{}, searcherr.IoError("read index generation meta", err)
	}
	var gen generationMeta
	if err := json.Unmarshal(data, &gen); err != nil {
		return generationMeta{}, searcherr.SerdeError("parse index generation meta", err)
	}
	return gen, nil
}

func writeGenerationMeta(dir string, gen generationMeta) error {
	data, err := json.Marshal(gen)
	if err != nil {
		return searcherr.SerdeError("marshal index generation meta", err)
	}
	data = append(data, '\n')

	path := filepath.Join(dir, genMetaFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return searcherr.IoError("write index generation meta", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return searcherr.IoError("commit index generation meta", err)
	}
	return nil
}

// Writer acquires the exclusive writer handle for this index. At most one
// writer may hold the lock at a time; a contended acquisition fails fast
// with StorageError rather than blocking, since the pipeline treats a
// locked index as a concurrent-run conflict, not something to wait out.
func (x *Index) Writer() (*Writer, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.closed {
		return nil, searcherr.StorageError("index is closed", nil)
	}

	fl := flock.New(filepath.Join(x.dir, lockFileName))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, searcherr.StorageError("acquire writer lock", err)
	}
	if !locked {
		return nil, searcherr.StorageError("index locked", nil)
	}

	return &Writer{idx: x, flock: fl, batch: x.bidx.NewBatch()}, nil
}

// Reader opens a snapshot view of the index. Bleve's index handle already
// serves a consistent view per search call; readers never take the writer
// lock file, though a search waits on the index mutex while a commit is
// applying its batch.
func (x *Index) Reader() (*Reader, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return nil, searcherr.StorageError("index is closed", nil)
	}
	return &Reader{idx: x}, nil
}

// DocCount returns the number of documents currently visible to new
// readers.
func (x *Index) DocCount() (uint64, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return 0, searcherr.StorageError("index is closed", nil)
	}
	n, err := x.bidx.DocCount()
	if err != nil {
		return 0, searcherr.StorageError("doc count", err)
	}
	return n, nil
}

// Close releases the underlying bleve index handle.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return nil
	}
	x.closed = true
	if err := x.bidx.Close(); err != nil {
		return searcherr.StorageError("close index", err)
	}
	return nil
}

// IsLocked reports whether another process currently holds the writer
// lock. It probes the lock file with a non-blocking try-lock and releases
// it immediately, so calling it never itself blocks a concurrent writer.
func (x *Index) IsLocked() (bool, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.closed {
		return false, searcherr.StorageError("index is closed", nil)
	}

	fl := flock.New(filepath.Join(x.dir, lockFileName))
	locked, err := fl.TryLock()
	if err != nil {
		return false, searcherr.StorageError("probe writer lock", err)
	}
	if !locked {
		return true, nil
	}
	_ = fl.Unlock()
	return false, nil
}

func (x *Index) bumpGeneration() error {
	x.gen.Generation++
	return writeGenerationMeta(x.dir, x.gen)
}

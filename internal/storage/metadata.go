package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	searcherr "github.com/nilsyn/searchd/internal/errors"
)

// MetaFileName is the session sidecar filename, stable across the on-disk
// layout.
const MetaFileName = "meta.json"

// IndexDirName is the subdirectory holding a session's inverted index.
const IndexDirName = "index"

// CurrentIndexFormatVersion is the schema version stamped into new
// sessions and passed to the index on open for migration checks.
const CurrentIndexFormatVersion = 1

// Metadata is the persistent sidecar for a session: { session_id,
// created_at, updated_at, chunk_size, chunk_overlap, include_patterns,
// exclude_patterns, max_file_size_bytes, files_indexed, chunks_created,
// bytes_indexed, index_format_version }.
type Metadata struct {
	SessionID          string    `json:"session_id"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	ChunkSize          int       `json:"chunk_size"`
	ChunkOverlap       int       `json:"chunk_overlap"`
	IncludePatterns    []string  `json:"include_patterns"`
	ExcludePatterns    []string  `json:"exclude_patterns"`
	MaxFileSizeBytes   int64     `json:"max_file_size_bytes"`
	FilesIndexed       int       `json:"files_indexed"`
	ChunksCreated      int       `json:"chunks_created"`
	BytesIndexed       int64     `json:"bytes_indexed"`
	IndexFormatVersion int       `json:"index_format_version"`
}

// readMetadata loads and parses a session's meta.json.
func readMetadata(dir string) (Metadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, MetaFileName))
	if err != nil {
		return Metadata{}, searcherr.IoError("read session metadata", err)
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return Metadata{}, searcherr.SerdeError("parse session metadata", err)
	}
	return m, nil
}

// writeMetadata persists m to dir's meta.json via write-to-temp + rename,
// so a crash mid-write never leaves a half-written sidecar.
func writeMetadata(dir string, m Metadata) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return searcherr.SerdeError("marshal session metadata", err)
	}
	data = append(data, '\n')

	path := filepath.Join(dir, MetaFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return searcherr.IoError("write session metadata", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return searcherr.IoError("commit session metadata", err)
	}
	return nil
}

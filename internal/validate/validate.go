// Package validate reconciles a session's metadata counters against what
// its inverted index actually holds, grounded on the same orphan/missing
// consistency-checking idea as the teacher's index consistency checker,
// trimmed here to a single metadata-vs-index comparison.
package validate

import (
	"context"
	"time"

	searcherr "github.com/nilsyn/searchd/internal/errors"
	"github.com/nilsyn/searchd/internal/index"
	"github.com/nilsyn/searchd/internal/storage"
)

// Report is the outcome of validating one session.
type Report struct {
	SessionID      string `json:"session_id"`
	IsConsistent   bool   `json:"is_consistent"`
	MetadataChunks int    `json:"metadata_chunks"`
	ActualChunks   int    `json:"actual_chunks"`
	MetadataSize   int64  `json:"metadata_size"`
	ActualSize     int64  `json:"actual_size"`
	Repaired       bool   `json:"repaired"`
}

// Validator compares each session's meta.json counters (chunks_created,
// bytes_indexed) against the actual doc count and stored content bytes in
// its index.
type Validator struct {
	sessions *storage.Manager
}

// New returns a Validator backed by sessions.
func New(sessions *storage.Manager) *Validator {
	return &Validator{sessions: sessions}
}

// Check loads id's metadata, opens its index read-only, and reports
// whether the two agree. An index that cannot be read is reported as
// inconsistent whenever metadata claims non-zero counts, without guessing
// at its contents; it is never deleted.
func (v *Validator) Check(ctx context.Context, id string) (Report, error) {
	meta, err := v.sessions.GetMetadata(id)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		SessionID:      id,
		MetadataChunks: meta.ChunksCreated,
		MetadataSize:   meta.BytesIndexed,
	}

	sess, err := v.sessions.OpenSession(id)
	if err != nil {
		return Report{}, err
	}
	defer sess.Close()

	actualChunks, actualSize, err := actualCounts(ctx, sess)
	if err != nil {
		// Index directory exists but is unreadable: report as inconsistent
		// whenever metadata claims non-zero counts, and stop there.
		report.IsConsistent = meta.ChunksCreated == 0 && meta.BytesIndexed == 0
		return report, nil
	}

	report.ActualChunks = actualChunks
	report.ActualSize = actualSize
	report.IsConsistent = actualChunks == meta.ChunksCreated && actualSize == meta.BytesIndexed

	return report, nil
}

// QuickCheck is a count-only probe, comparing doc count against
// chunks_created without reading stored content. Cheap enough to run
// across every session at startup.
func (v *Validator) QuickCheck(ctx context.Context, id string) (bool, error) {
	meta, err := v.sessions.GetMetadata(id)
	if err != nil {
		return false, err
	}

	sess, err := v.sessions.OpenSession(id)
	if err != nil {
		return false, err
	}
	defer sess.Close()

	docCount, err := sess.Index.DocCount()
	if err != nil {
		return false, nil
	}

	return int(docCount) == meta.ChunksCreated, nil
}

// Repair rewrites a session's metadata counters from its index when
// report shows an inconsistency, the index can be opened read-only, and
// no writer currently holds its lock. Any other case returns report
// unchanged: the auto-repair policy never touches metadata it cannot
// independently confirm.
func (v *Validator) Repair(ctx context.Context, report Report) (Report, error) {
	if report.IsConsistent {
		return report, nil
	}

	sess, err := v.sessions.OpenSession(report.SessionID)
	if err != nil {
		return report, err
	}
	defer sess.Close()

	locked, err := sess.Index.IsLocked()
	if err != nil || locked {
		return report, nil
	}

	actualChunks, actualSize, err := actualCounts(ctx, sess)
	if err != nil {
		return report, nil
	}

	meta := sess.Metadata
	meta.ChunksCreated = actualChunks
	meta.BytesIndexed = actualSize
	meta.UpdatedAt = time.Now().UTC()
	if err := v.sessions.PutMetadata(report.SessionID, meta); err != nil {
		return report, err
	}

	report.MetadataChunks = actualChunks
	report.MetadataSize = actualSize
	report.ActualChunks = actualChunks
	report.ActualSize = actualSize
	report.IsConsistent = true
	report.Repaired = true

	return report, nil
}

// actualCounts opens a read-only snapshot of sess's index and sums the
// doc count and stored content bytes it actually holds.
func actualCounts(ctx context.Context, sess *storage.Session) (int, int64, error) {
	docCount, err := sess.Index.DocCount()
	if err != nil {
		return 0, 0, err
	}
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

	var size int64
	for _, h := range hits {
		size += int64(len(h.Content))
	}
	return len(hits), size, nil
}

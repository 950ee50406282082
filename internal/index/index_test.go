package index

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/blevesearch/bleve/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "session", "index")
	idx, err := OpenOrCreate(dir, 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestIndex_WriterAddAndCommit_MakesDocsSearchable(t *testing.T) {
	idx := openTestIndex(t)

	w, err := idx.Writer()
	require.NoError(t, err)
	require.NoError(t, w.Add("c1", Document{SessionID: "s1", FilePath: "a.go", Language: "go", Content: "fn authenticate", ChunkIndex: 0}))
	require.NoError(t, w.Commit())

	count, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	r, err := idx.Reader()
	require.NoError(t, err)
	hits, err := r.Search(context.Background(), FieldMatchQuery("content", "authenticate"), 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].DocID)
}

// S3: a chunk with more occurrences of the query term ranks above one with
// fewer, in a shorter body.
func TestIndex_Search_RanksMoreFrequentTermHigher(t *testing.T) {
	idx := openTestIndex(t)

	w, err := idx.Writer()
	require.NoError(t, err)
	require.NoError(t, w.Add("c1", Document{SessionID: "s1", FilePath: "a.go", Language: "go",
		Content: "fn authenticate performs the login handshake with the remote service over a long winded body of text", ChunkIndex: 0}))
	require.NoError(t, w.Add("c2", Document{SessionID: "s1", FilePath: "b.go", Language: "go",
		Content: "fn authenticate authenticate authenticate", ChunkIndex: 0}))
	require.NoError(t, w.Commit())

	r, err := idx.Reader()
	require.NoError(t, err)
	hits, err := r.Search(context.Background(), FieldMatchQuery("content", "authenticate"), 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "c2", hits[0].DocID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestIndex_SessionFilter_ExcludesOtherSessions(t *testing.T) {
	idx := openTestIndex(t)

	w, err := idx.Writer()
	require.NoError(t, err)
	require.NoError(t, w.Add("c1", Document{SessionID: "s1", FilePath: "a.go", Language: "go", Content: "main loop", ChunkIndex: 0}))
	require.NoError(t, w.Add("c2", Document{SessionID: "s2", FilePath: "a.go", Language: "go", Content: "main loop", ChunkIndex: 0}))
	require.NoError(t, w.Commit())

	r, err := idx.Reader()
	require.NoError(t, err)
	q := bleve.NewConjunctionQuery(FieldMatchQuery("content", "main"), TermFilter("session_id", "s1"))
	hits, err := r.Search(context.Background(), q, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].DocID)
}

func TestIndex_Writer_RejectsConcurrentWriter(t *testing.T) {
	idx := openTestIndex(t)

	w1, err := idx.Writer()
	require.NoError(t, err)
	defer w1.Close()

	_, err = idx.Writer()
	require.Error(t, err)
}

func TestIndex_Writer_DeleteAllThenReplace(t *testing.T) {
	idx := openTestIndex(t)

	w, err := idx.Writer()
	require.NoError(t, err)
	require.NoError(t, w.Add("old1", Document{SessionID: "s1", Content: "stale"}))
	require.NoError(t, w.Commit())

	w2, err := idx.Writer()
	require.NoError(t, err)
	require.NoError(t, w2.DeleteAll())
	require.NoError(t, w2.Add("new1", Document{SessionID: "s1", Content: "fresh"}))
	require.NoError(t, w2.Commit())

	count, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestIndex_Writer_CloseWithoutCommitDiscardsBuffer(t *testing.T) {
	idx := openTestIndex(t)

	w, err := idx.Writer()
	require.NoError(t, err)
	require.NoError(t, w.Add("c1", Document{SessionID: "s1", Content: "never committed"}))
	require.NoError(t, w.Close())

	count, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)

	// lock released, a new writer can be acquired
	w2, err := idx.Writer()
	require.NoError(t, err)
	require.NoError(t, w2.Close())
}

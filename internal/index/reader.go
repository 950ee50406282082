package index

import (
	"context"
	"sort"

	"github.com/blevesearch/bleve/v2"
	bquery "github.com/blevesearch/bleve/v2/search/query"

	searcherr "github.com/nilsyn/searchd/internal/errors"
)

// Reader is a snapshot view of an Index. Multiple Readers may be open
// concurrently; each sees a consistent, already-committed generation.
type Reader struct {
	idx *Index
}

// Hit is a single scored search result with its stored fields materialized,
// ready for snippet formation by the caller.
type Hit struct {
	DocID        string
	Score        float64
	SessionID    string
	FilePath     string
	Language     string
	Content      string
	ChunkIndex   int
	StartChar    int
	EndChar      int
	MatchedTerms []string
}

var storedFields = []string{"session_id", "file_path", "language", "content", "chunk_index", "start_char", "end_char"}

// Search runs q against the index, ranked by BM25 and tie-broken by
// ascending doc_id for determinism, returning at most topK hits.
func (r *Reader) Search(ctx context.Context, q bquery.Query, topK int) ([]Hit, error) {
	req := bleve.NewSearchRequest(q)
	req.Size = topK
	req.Fields = storedFields
	req.IncludeLocations = true
	req.SortBy([]string{"-_score", "_id"})

	r.idx.mu.Lock()
	result, err := r.idx.bidx.SearchInContext(ctx, req)
	r.idx.mu.Unlock()
	if err != nil {
		return nil, searcherr.SearchFailed("execute query", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, dm := range result.Hits {
		h := Hit{DocID: dm.ID, Score: dm.Score}
		if v, ok := dm.Fields["session_id"].(string); ok {
			h.SessionID = v
		}
		if v, ok := dm.Fields["file_path"].(string); ok {
			h.FilePath = v
		}
		if v, ok := dm.Fields["language"].(string); ok {
			h.Language = v
		}
		if v, ok := dm.Fields["content"].(string); ok {
			h.Content = v
		}
		if v, ok := dm.Fields["chunk_index"].(float64); ok {
			h.ChunkIndex = int(v)
		}
		if v, ok := dm.Fields["start_char"].(float64); ok {
			h.StartChar = int(v)
		}
		if v, ok := dm.Fields["end_char"].(float64); ok {
			h.EndChar = int(v)
		}

		if locations, ok := dm.Locations["content"]; ok {
			for term := range locations {
				h.MatchedTerms = append(h.MatchedTerms, term)
			}
			sort.Strings(h.MatchedTerms)
		}

		hits = append(hits, h)
	}

	return hits, nil
}

// Doc retrieves the stored fields of a single document by id.
func (r *Reader) Doc(ctx context.Context, docID string) (Hit, error) {
	hits, err := r.Search(ctx, bleve.NewDocIDQuery([]string{docID}), 1)
	if err != nil {
		return Hit{}, err
	}
	if len(hits) == 0 {
		return Hit{}, searcherr.SearchFailed("document not found: "+docID, nil)
	}
	return hits[0], nil
}

// TermFilter builds an exact-match filter over a keyword field
// (session_id, language). It is a scored term query, but the field holds a
// single token per document, so it adds the same score to every document
// it matches and does not change the relative order of hits.
func TermFilter(field, value string) bquery.Query {
	q := bleve.NewTermQuery(value)
	q.SetField(field)
	return q
}

// FieldMatchQuery builds a BM25-scored match query over a tokenized field
// (content, file_path), using the field's configured analyzer.
func FieldMatchQuery(field, term string) bquery.Query {
	q := bleve.NewMatchQuery(term)
	q.SetField(field)
	return q
}

// MatchAll returns a query matching every document, used for delete_all
// enumeration and consistency checks.
func MatchAll() bquery.Query {
	return bleve.NewMatchAllQuery()
}

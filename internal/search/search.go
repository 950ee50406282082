// Package search implements SearchService: field-scoped BM25 query
// execution over a session's inverted index, bounded by a fixed-size
// goroutine pool and a per-request context deadline.
package search

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/nilsyn/searchd/internal/config"
	searcherr "github.com/nilsyn/searchd/internal/errors"
	"github.com/nilsyn/searchd/internal/storage"
)

const defaultConcurrency = 8

// Result is a single ranked, snippeted search hit.
type Result struct {
	FilePath     string
	Language     string
	Score        float64
	Snippet      string
	ChunkIndex   int
	StartChar    int
	EndChar      int
	MatchedTerms []string
}

// Request is a single search call's input.
type Request struct {
	SessionID string
	Query     string
	TopK      int
}

// Service executes search requests against sessions managed by a
// storage.Manager. A single long-lived, bounded goroutine pool serves every
// request; the pool is never drained with Wait, since Service outlives any
// individual request.
type Service struct {
	sessions  *storage.Manager
	pool      *errgroup.Group
	searchCfg config.SearchConfig
}

// New creates a Service whose concurrent query execution is capped at
// maxConcurrency in-flight searches (a non-positive value falls back to
// defaultConcurrency). searchCfg supplies the §4.6 default_k/max_k that
// Execute clamps every request's TopK against; a non-positive DefaultK or
// MaxK falls back to the built-in config.New() defaults.
func New(sessions *storage.Manager, maxConcurrency int, searchCfg config.SearchConfig) *Service {
	if maxConcurrency <= 0 {
		maxConcurrency = defaultConcurrency
	}
	if searchCfg.DefaultK <= 0 {
		searchCfg.DefaultK = config.New().Search.DefaultK
	}
	if searchCfg.MaxK <= 0 {
		searchCfg.MaxK = config.New().Search.MaxK
	}
	pool := &errgroup.Group{}
	pool.SetLimit(maxConcurrency)
	return &Service{sessions: sessions, pool: pool, searchCfg: searchCfg}
}

type execOutcome struct {
	results []Result
	err     error
}

// Execute runs req against its session's index and returns ranked results.
// If ctx is cancelled or its deadline elapses before the query completes,
// Execute returns a timeout error; it never returns partial results.
func (s *Service) Execute(ctx context.Context, req Request) ([]Result, error) {
	terms, err := parseQuery(req.Query)
	if err != nil {
		return nil, err
	}

	topK := s.searchCfg.ClampK(req.TopK)

	out := make(chan execOutcome, 1)
	s.pool.Go(func() error {
		results, err := s.execute(ctx, req.SessionID, terms, topK)
		out <- execOutcome{results: results, err: err}
		return nil
	})

	select {
	case o := <-out:
		return o.results, o.err
	case <-ctx.Done():
		return nil, searcherr.SearchFailed("search request timed out", ctx.Err())
	}
}

func (s *Service) execute(ctx context.Context, sessionID string, terms []term, topK int) ([]Result, error) {
	sess, err := s.sessions.OpenSession(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	reader, err := sess.Index.Reader()
	if err != nil {
		return nil, err
	}

	q := toBleveQuery(sessionID, terms)
	hits, err := reader.Search(ctx, q, topK)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		results = append(results, Result{
			FilePath:     h.FilePath,
			Language:     h.Language,
			Score:        h.Score,
			Snippet:      buildSnippet(h.Content, h.MatchedTerms),
			ChunkIndex:   h.ChunkIndex,
			StartChar:    h.StartChar,
			EndChar:      h.EndChar,
			MatchedTerms: h.MatchedTerms,
		})
	}
	return results, nil
}

package search

import (
	"strings"

	"github.com/blevesearch/bleve/v2"
	bquery "github.com/blevesearch/bleve/v2/search/query"

	searcherr "github.com/nilsyn/searchd/internal/errors"
	"github.com/nilsyn/searchd/internal/index"
)

// validFields lists the query field scopes the search schema supports.
var validFields = []string{"path", "lang", "content"}

// term is a single field-scoped piece of a parsed query.
type term struct {
	field string // "path", "lang", or "content"
	value string
}

// parseQuery splits a raw query string into field-scoped terms. Terms are
// separated by whitespace outside quotes; a term may be prefixed with
// "field:" to scope it to path, lang, or content (content is the default
// for unscoped terms). A double-quoted value is kept intact as a phrase.
// An unrecognized field prefix fails with InvalidQueryField, carrying a
// nearest-match suggestion when one is close enough to be useful.
func parseQuery(raw string) ([]term, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, searcherr.InvalidQuery(raw, nil).WithSuggestion("query must not be empty")
	}

	fields := splitQueryFields(raw)
	terms := make([]term, 0, len(fields))
	for _, f := range fields {
		field, value := "content", f

		if idx := strings.Index(f, ":"); idx > 0 && !strings.HasPrefix(f, `"`) {
			candidate := f[:idx]
			rest := f[idx+1:]
			if isQueryField(candidate) {
				field, value = candidate, rest
			} else if !isQuoted(f) {
				suggestion := closestField(candidate, validFields, 2)
				return nil, searcherr.InvalidQueryField(candidate, validFields, suggestion)
			}
		}

		value = strings.Trim(value, `"`)
		if value == "" {
			continue
		}
		terms = append(terms, term{field: field, value: value})
	}

	if len(terms) == 0 {
		return nil, searcherr.InvalidQuery(raw, nil).WithSuggestion("query must not be empty")
	}

	return terms, nil
}

func isQueryField(name string) bool {
	for _, f := range validFields {
		if f == name {
			return true
		}
	}
	return false
}

func isQuoted(s string) bool {
	return strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) && len(s) >= 2
}

// splitQueryFields splits on whitespace while keeping double-quoted
// substrings (including any "field:" prefix preceding the quote) intact.
func splitQueryFields(raw string) []string {
	var fields []string
	var b strings.Builder
	inQuotes := false

	flush := func() {
		if b.Len() > 0 {
			fields = append(fields, b.String())
			b.Reset()
		}
	}

	for _, r := range raw {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			b.WriteRune(r)
		case r == ' ' && !inQuotes:
			flush()
		default:
			b.WriteRune(r)
		}
	}
	flush()

	return fields
}

// fieldBleveName maps a query field scope to the document field it targets.
func fieldBleveName(field string) string {
	switch field {
	case "path":
		return "file_path"
	case "lang":
		return "language"
	default:
		return "content"
	}
}

// toBleveQuery translates parsed terms plus the implicit session filter
// into a single bleve query. A lang: term filters by exact match (see
// index.TermFilter: it adds the same score to every hit, so it does not
// change their order); path:/content: terms are BM25-scored matches, and a
// value containing a space (a quoted phrase) must match as an adjacent
// token sequence.
func toBleveQuery(sessionID string, terms []term) bquery.Query {
	queries := []bquery.Query{index.TermFilter("session_id", sessionID)}

	for _, t := range terms {
		if t.field != "lang" && strings.ContainsRune(t.value, ' ') {
			pq := bleve.NewMatchPhraseQuery(t.value)
			pq.SetField(fieldBleveName(t.field))
			queries = append(queries, pq)
			continue
		}
		switch t.field {
		case "lang":
			queries = append(queries, index.TermFilter(fieldBleveName(t.field), strings.ToLower(t.value)))
		case "path":
			queries = append(queries, index.FieldMatchQuery(fieldBleveName(t.field), t.value))
		default:
			queries = append(queries, index.FieldMatchQuery(fieldBleveName(t.field), t.value))
		}
	}

	return bleve.NewConjunctionQuery(queries...)
}

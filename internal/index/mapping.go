package index

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Document is the on-disk shape of a Chunk document. Field names match the
// externally observable schema: content and file_path are tokenized with
// the code analyzer and BM25-scored; language and session_id are exact
// keyword fields used only to filter; chunk_index, start_char and end_char
// are stored, non-scored, for snippet reconstruction and ordering.
type Document struct {
	SessionID  string `json:"session_id"`
	FilePath   string `json:"file_path"`
	Language   string `json:"language"`
	Content    string `json:"content"`
	ChunkIndex int    `json:"chunk_index"`
	StartChar  int    `json:"start_char"`
	EndChar    int    `json:"end_char"`
}

func buildIndexMapping() (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()

	if err := im.AddCustomAnalyzer(CodeAnalyzerName, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     CodeTokenizerName,
		"token_filters": []string{lowercase.Name},
	}); err != nil {
		return nil, fmt.Errorf("add code analyzer: %w", err)
	}
	im.DefaultAnalyzer = CodeAnalyzerName
	// bleve scores with tf-idf unless the mapping selects BM25.
	im.ScoringModel = "bm25"

	docMapping := bleve.NewDocumentMapping()

	textField := func(analyzer string, includeTermVectors bool) *mapping.FieldMapping {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = analyzer
		fm.Store = true
		fm.IncludeInAll = false
		fm.IncludeTermVectors = includeTermVectors
		return fm
	}
	numField := func() *mapping.FieldMapping {
		fm := bleve.NewNumericFieldMapping()
		fm.Store = true
		fm.Index = false
		fm.IncludeInAll = false
		return fm
	}

	docMapping.AddFieldMappingsAt("content", textField(CodeAnalyzerName, true))
	docMapping.AddFieldMappingsAt("file_path", textField(CodeAnalyzerName, true))
	docMapping.AddFieldMappingsAt("language", textField(keyword.Name, false))
	docMapping.AddFieldMappingsAt("session_id", textField(keyword.Name, false))
	docMapping.AddFieldMappingsAt("chunk_index", numField())
	docMapping.AddFieldMappingsAt("start_char", numField())
	docMapping.AddFieldMappingsAt("end_char", numField())

	im.DefaultMapping = docMapping
	return im, nil
}

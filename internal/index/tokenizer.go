package index

import (
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/registry"
)

const (
	// minTokenLength and maxTokenLength bound emitted token length; code
	// identifiers outside this range are either noise (single punctuation
	// left over from a bad split) or pathological (minified blobs).
	minTokenLength = 1
	maxTokenLength = 40

	// CodeTokenizerName is the name under which the code-aware tokenizer is
	// registered with bleve's analyzer registry.
	CodeTokenizerName = "code_tokenizer"

	// CodeAnalyzerName is the analyzer built from CodeTokenizerName plus the
	// lowercase filter, used for every tokenized field in the schema.
	CodeAnalyzerName = "code_analyzer"
)

func init() {
	_ = registry.RegisterTokenizer(CodeTokenizerName, codeTokenizerConstructor)
}

// Tokenize splits text on any non-alphanumeric rune and lowercases the
// result, emitting tokens of length [minTokenLength, maxTokenLength].
// Deliberately no stemming and no camelCase splitting: code identifiers
// must match literally, so "getUserById" is one token, not four. An
// underscore is non-alphanumeric, so "authenticate_user" yields
// "authenticate" and "user".
func Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		tok := current.String()
		current.Reset()
		n := len([]rune(tok))
		if n < minTokenLength || n > maxTokenLength {
			return
		}
		tokens = append(tokens, strings.ToLower(tok))
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return tokens
}

func codeTokenizerConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.Tokenizer, error) {
	return &codeTokenizer{}, nil
}

// codeTokenizer implements analysis.Tokenizer by delegating to Tokenize and
// recovering byte offsets for each emitted token.
type codeTokenizer struct{}

func (t *codeTokenizer) Tokenize(input []byte) analysis.TokenStream {
	text := string(input)
	lower := strings.ToLower(text)
	tokens := Tokenize(text)

	stream := make(analysis.TokenStream, 0, len(tokens))
	pos := 1
	offset := 0
	for _, tok := range tokens {
		start := strings.Index(lower[offset:], tok)
		if start == -1 {
			start = offset
		} else {
			start += offset
		}
		end := start + len(tok)
		stream = append(stream, &analysis.Token{
			Term:     []byte(tok),
			Start:    start,
			End:      end,
			Position: pos,
			Type:     analysis.AlphaNumeric,
		})
		pos++
		if end <= len(text) {
			offset = end
		}
	}
	return stream
}

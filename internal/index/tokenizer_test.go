package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize_LowercasesAndSplitsOnNonAlphanumeric(t *testing.T) {
	tokens := Tokenize("fn authenticate_user(path/to/File.go)")
	assert.Equal(t, []string{"fn", "authenticate", "user", "path", "to", "file", "go"}, tokens)
}

func TestTokenize_NoCamelCaseSplitting(t *testing.T) {
	tokens := Tokenize("getUserById")
	assert.Equal(t, []string{"getuserbyid"}, tokens)
}

func TestTokenize_FiltersTokensOutsideLengthBounds(t *testing.T) {
	long := ""
	for i := 0; i < 41; i++ {
		long += "a"
	}
	tokens := Tokenize("x " + long + " ok")
	assert.Contains(t, tokens, "x")
	assert.Contains(t, tokens, "ok")
	assert.NotContains(t, tokens, long)
}

func TestTokenize_EmptyInputYieldsNoTokens(t *testing.T) {
	assert.Empty(t, Tokenize(""))
	assert.Empty(t, Tokenize("   ...---   "))
}

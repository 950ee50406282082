package walk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlobCache_Match(t *testing.T) {
	g := newGlobCache()

	cases := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"*.go", "main.go", true},
		{"*.go", "sub/main.go", false},
		{"**/*.go", "sub/main.go", true},
		{"**/*.go", "main.go", true},
		{"vendor/**", "vendor/dep/dep.go", true},
		{"vendor/**", "notvendor/dep.go", false},
		{"src/?.go", "src/a.go", true},
		{"src/?.go", "src/ab.go", false},
		{"test[12].go", "test1.go", true},
		{"test[12].go", "test3.go", false},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, g.match(c.pattern, c.path), "pattern=%q path=%q", c.pattern, c.path)
	}
}

func TestGlobCache_CachesCompiledPattern(t *testing.T) {
	g := newGlobCache()
	assert.True(t, g.match("*.go", "a.go"))
	re, ok := g.cache.Get("*.go")
	assert.True(t, ok)
	assert.NotNil(t, re)
}

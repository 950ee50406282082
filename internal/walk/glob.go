package walk

import (
	"regexp"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// globCacheSize is the maximum number of compiled glob matchers cached per
// Walker, mirroring the reference scanner's gitignore matcher cache.
const globCacheSize = 1000

// globCache compiles glob patterns to regexes on demand and caches the
// compiled form, so a large walk never recompiles the same pattern twice.
type globCache struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *regexp.Regexp]
}

func newGlobCache() *globCache {
	c, err := lru.New[string, *regexp.Regexp](globCacheSize)
	if err != nil {
		// Only invalid (non-positive) sizes return an error; globCacheSize
		// is a positive constant so this is unreachable.
		panic(err)
	}
	return &globCache{cache: c}
}

// match reports whether path matches pattern, caching the compiled regex.
func (g *globCache) match(pattern, path string) bool {
	re := g.compile(pattern)
	return re.MatchString(path)
}

func (g *globCache) compile(pattern string) *regexp.Regexp {
	g.mu.Lock()
	defer g.mu.Unlock()

	if re, ok := g.cache.Get(pattern); ok {
		return re
	}
	re := regexp.MustCompile("^" + globToRegex(pattern) + "$")
	g.cache.Add(pattern, re)
	return re
}

// globToRegex translates a glob pattern (*, **, ?, character classes) into
// an equivalent regex fragment, matched against a POSIX-normalized,
// repository-relative path. Adapted from the gitignore pattern compiler
// used elsewhere in this codebase, trimmed of negation and directory-only
// handling: include/exclude globs here always match the whole path, with
// no notion of a rule being "anchored" or "negated".
func globToRegex(pattern string) string {
	var result strings.Builder

	i := 0
	for i < len(pattern) {
		c := pattern[i]

		switch c {
		case '*':
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				if i+2 < len(pattern) && pattern[i+2] == '/' {
					result.WriteString("(?:.*/)?")
					i += 3
					continue
				}
				result.WriteString(".*")
				i += 2
				continue
			}
			result.WriteString("[^/]*")
			i++

		case '?':
			result.WriteString("[^/]")
			i++

		case '[':
			j := i + 1
			for j < len(pattern) && pattern[j] != ']' {
				j++
			}
			if j < len(pattern) {
				result.WriteString(pattern[i : j+1])
				i = j + 1
			} else {
				result.WriteString(regexp.QuoteMeta(string(c)))
				i++
			}

		case '\\':
			if i+1 < len(pattern) {
				result.WriteString(regexp.QuoteMeta(string(pattern[i+1])))
				i += 2
			} else {
				result.WriteString(regexp.QuoteMeta(string(c)))
				i++
			}

		case '.', '+', '^', '$', '(', ')', '{', '}', '|':
			result.WriteString(regexp.QuoteMeta(string(c)))
			i++

		default:
			result.WriteString(string(c))
			i++
		}
	}

	return result.String()
}

package storage

import (
	"regexp"

	searcherr "github.com/nilsyn/searchd/internal/errors"
)

// maxSessionIDLength is the upper bound on a session id's length.
const maxSessionIDLength = 128

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidateSessionID reports whether id is a well-formed session
// identifier: non-empty, filesystem-safe, matching
// [A-Za-z0-9_-]{1,128}, and not one of the reserved names "." or "..".
func ValidateSessionID(id string) error {
	if id == "" {
		return searcherr.InvalidSession(id, nil).WithSuggestion("session id must not be empty")
	}
	if id == "." || id == ".." {
		return searcherr.InvalidSession(id, nil).WithSuggestion("\".\" and \"..\" are reserved session ids")
	}
	if len(id) > maxSessionIDLength {
		return searcherr.InvalidSession(id, nil).WithSuggestion("session id must be at most 128 characters")
	}
	if !sessionIDPattern.MatchString(id) {
		return searcherr.InvalidSession(id, nil).
			WithSuggestion("session id must match [A-Za-z0-9_-]{1,128}")
	}
	return nil
}

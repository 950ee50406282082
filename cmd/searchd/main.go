// Command searchd is a thin, non-interactive CLI over the session-isolated
// full-text code search core: index, search, sessions, and validate.
package main

import (
	"os"

	"github.com/nilsyn/searchd/cmd/searchd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

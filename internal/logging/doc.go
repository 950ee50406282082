// Package logging provides opt-in, size-rotating structured logging for
// the indexing and search core. When a log file path is configured,
// comprehensive JSON logs are written there for debugging and
// troubleshooting; otherwise logging goes to stderr only.
package logging

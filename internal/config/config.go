// Package config loads the process-wide, read-only configuration this
// core consumes: the sessions storage root, default indexing parameters,
// search result bounds, and the ambient logging setup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	searcherr "github.com/nilsyn/searchd/internal/errors"
)

// Config is the complete configuration surface named in §6: storage,
// indexing, search, plus the logging and sessions sections that carry the
// ambient stack regardless of the spec's Non-goals.
type Config struct {
	Storage  StorageConfig  `yaml:"storage" json:"storage"`
	Indexing IndexingConfig `yaml:"indexing" json:"indexing"`
	Search   SearchConfig   `yaml:"search" json:"search"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
	Sessions SessionsConfig `yaml:"sessions" json:"sessions"`
}

// StorageConfig configures where session directories live.
type StorageConfig struct {
	// IndexDir is the data root passed to storage.NewManager; sessions
	// live at {IndexDir}/sessions/{id}/.
	IndexDir string `yaml:"index_dir" json:"index_dir"`
}

// IndexingConfig configures default chunking and walk parameters, applied
// when an IndexRequest does not override them.
type IndexingConfig struct {
	ChunkSize       int      `yaml:"chunk_size" json:"chunk_size"`
	Overlap         int      `yaml:"overlap" json:"overlap"`
	MaxFileSizeMB   int      `yaml:"max_file_size_mb" json:"max_file_size_mb"`
	IncludePatterns []string `yaml:"include_patterns" json:"include_patterns"`
	ExcludePatterns []string `yaml:"exclude_patterns" json:"exclude_patterns"`
}

// MaxFileSizeBytes converts the configured MB cap to bytes for the Walker.
func (c IndexingConfig) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

// SearchConfig bounds SearchService's result cap.
type SearchConfig struct {
	DefaultK int `yaml:"default_k" json:"default_k"`
	MaxK     int `yaml:"max_k" json:"max_k"`
}

// ClampK applies the configured default/max to a caller-supplied top_k: a
// non-positive value falls back to DefaultK, and any value above MaxK is
// clamped down to it.
func (c SearchConfig) ClampK(requested int) int {
	k := requested
	if k <= 0 {
		k = c.DefaultK
	}
	if k > c.MaxK {
		k = c.MaxK
	}
	if k < 1 {
		k = 1
	}
	return k
}

// LoggingConfig mirrors internal/logging.Config's shape so it can be
// loaded the same way the rest of this configuration is.
type LoggingConfig struct {
	Level         string `yaml:"level" json:"level"`
	FilePath      string `yaml:"file_path" json:"file_path"`
	MaxSizeMB     int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles      int    `yaml:"max_files" json:"max_files"`
	WriteToStderr bool   `yaml:"write_to_stderr" json:"write_to_stderr"`
}

// SessionsConfig configures the StorageManager's optional maintenance
// sweep (§4.4's prune_sessions).
type SessionsConfig struct {
	MaxSessions int    `yaml:"max_sessions" json:"max_sessions"`
	MaxAge      string `yaml:"max_age" json:"max_age"`
}

// MaxAgeDuration parses MaxAge, returning 0 (disabled) if it is empty or
// unparsable.
func (c SessionsConfig) MaxAgeDuration() time.Duration {
	if c.MaxAge == "" {
		return 0
	}
	d, err := time.ParseDuration(c.MaxAge)
	if err != nil {
		return 0
	}
	return d
}

var defaultExcludePatterns = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/vendor/**",
	"**/__pycache__/**",
	"**/dist/**",
	"**/build/**",
}

// New returns a Config populated with built-in defaults.
func New() *Config {
	return &Config{
		Storage: StorageConfig{
			IndexDir: defaultIndexDir(),
		},
		Indexing: IndexingConfig{
			ChunkSize:       800,
			Overlap:         100,
			MaxFileSizeMB:   5,
			IncludePatterns: nil,
			ExcludePatterns: append([]string(nil), defaultExcludePatterns...),
		},
		Search: SearchConfig{
			DefaultK: 10,
			MaxK:     100,
		},
		Logging: LoggingConfig{
			Level:         "info",
			MaxSizeMB:     10,
			MaxFiles:      5,
			WriteToStderr: true,
		},
		Sessions: SessionsConfig{
			MaxSessions: 0,
			MaxAge:      "",
		},
	}
}

func defaultIndexDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "searchd")
	}
	return filepath.Join(home, ".searchd")
}

// Load builds a Config from, in increasing order of precedence: compiled-in
// defaults, an optional YAML file at {dir}/searchd.yaml (or .yml), and
// SEARCHD_* environment variable overrides. The result is validated before
// being returned.
func Load(dir string) (*Config, error) {
	cfg := New()

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{"searchd.yaml", "searchd.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return c.loadYAML(path)
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return searcherr.ConfigError(fmt.Sprintf("read config file %s", path), err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return searcherr.TomlError(fmt.Sprintf("parse config file %s", path), err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith overlays other's non-zero fields onto c.
func (c *Config) mergeWith(other *Config) {
	if other.Storage.IndexDir != "" {
		c.Storage.IndexDir = other.Storage.IndexDir
	}

	if other.Indexing.ChunkSize != 0 {
		c.Indexing.ChunkSize = other.Indexing.ChunkSize
	}
	if other.Indexing.Overlap != 0 {
		c.Indexing.Overlap = other.Indexing.Overlap
	}
	if other.Indexing.MaxFileSizeMB != 0 {
		c.Indexing.MaxFileSizeMB = other.Indexing.MaxFileSizeMB
	}
	if len(other.Indexing.IncludePatterns) > 0 {
		c.Indexing.IncludePatterns = other.Indexing.IncludePatterns
	}
	if len(other.Indexing.ExcludePatterns) > 0 {
		c.Indexing.ExcludePatterns = other.Indexing.ExcludePatterns
	}

	if other.Search.DefaultK != 0 {
		c.Search.DefaultK = other.Search.DefaultK
	}
	if other.Search.MaxK != 0 {
		c.Search.MaxK = other.Search.MaxK
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.FilePath != "" {
		c.Logging.FilePath = other.Logging.FilePath
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}

	if other.Sessions.MaxSessions != 0 {
		c.Sessions.MaxSessions = other.Sessions.MaxSessions
	}
	if other.Sessions.MaxAge != "" {
		c.Sessions.MaxAge = other.Sessions.MaxAge
	}
}

// applyEnvOverrides applies SEARCHD_* environment variable overrides, the
// handful of values operators tune most often.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SEARCHD_INDEX_DIR"); v != "" {
		c.Storage.IndexDir = v
	}
	if v := os.Getenv("SEARCHD_DEFAULT_K"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			c.Search.DefaultK = k
		}
	}
	if v := os.Getenv("SEARCHD_MAX_K"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			c.Search.MaxK = k
		}
	}
	if v := os.Getenv("SEARCHD_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("SEARCHD_LOG_FILE"); v != "" {
		c.Logging.FilePath = v
	}
}

// Validate rejects a configuration that could not drive the core
// correctly.
func (c *Config) Validate() error {
	if c.Storage.IndexDir == "" {
		return searcherr.ConfigError("storage.index_dir must not be empty", nil)
	}
	if c.Indexing.ChunkSize < 1 {
		return searcherr.ConfigError(fmt.Sprintf("indexing.chunk_size must be >= 1, got %d", c.Indexing.ChunkSize), nil)
	}
	if c.Indexing.Overlap < 0 || c.Indexing.Overlap >= c.Indexing.ChunkSize {
		return searcherr.ConfigError(fmt.Sprintf("indexing.overlap must satisfy 0 <= overlap < chunk_size, got %d (chunk_size %d)", c.Indexing.Overlap, c.Indexing.ChunkSize), nil)
	}
	if c.Indexing.MaxFileSizeMB < 0 {
		return searcherr.ConfigError(fmt.Sprintf("indexing.max_file_size_mb must be >= 0, got %d", c.Indexing.MaxFileSizeMB), nil)
	}
	if c.Search.DefaultK < 1 {
		return searcherr.ConfigError(fmt.Sprintf("search.default_k must be >= 1, got %d", c.Search.DefaultK), nil)
	}
	if c.Search.MaxK < c.Search.DefaultK {
		return searcherr.ConfigError(fmt.Sprintf("search.max_k must be >= default_k, got max_k=%d default_k=%d", c.Search.MaxK, c.Search.DefaultK), nil)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return searcherr.ConfigError(fmt.Sprintf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level), nil)
	}

	return nil
}

// WriteYAML persists c to path, for tooling that wants to materialize a
// starter configuration file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

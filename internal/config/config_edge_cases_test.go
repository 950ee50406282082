package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidate_RejectsEmptyIndexDir(t *testing.T) {
	cfg := New()
	cfg.Storage.IndexDir = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty index_dir")
	}
}

func TestValidate_RejectsNonPositiveChunkSize(t *testing.T) {
	cfg := New()
	cfg.Indexing.ChunkSize = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for chunk_size 0")
	}
}

func TestValidate_RejectsNegativeOverlap(t *testing.T) {
	cfg := New()
	cfg.Indexing.Overlap = -1

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative overlap")
	}
}

func TestValidate_RejectsOverlapGreaterOrEqualChunkSize(t *testing.T) {
	cfg := New()
	cfg.Indexing.ChunkSize = 100
	cfg.Indexing.Overlap = 100

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when overlap equals chunk_size")
	}
}

func TestValidate_RejectsNegativeMaxFileSize(t *testing.T) {
	cfg := New()
	cfg.Indexing.MaxFileSizeMB = -1

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative max_file_size_mb")
	}
}

func TestValidate_RejectsNonPositiveDefaultK(t *testing.T) {
	cfg := New()
	cfg.Search.DefaultK = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for default_k 0")
	}
}

func TestValidate_RejectsMaxKBelowDefaultK(t *testing.T) {
	cfg := New()
	cfg.Search.DefaultK = 50
	cfg.Search.MaxK = 10

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when max_k < default_k")
	}
}

func TestValidate_RejectsUnknownLogLevel(t *testing.T) {
	cfg := New()
	cfg.Logging.Level = "verbose"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unrecognized log level")
	}
}

func TestValidate_AcceptsEachKnownLogLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "DEBUG", "Info"} {
		cfg := New()
		cfg.Logging.Level = level
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected level %q to validate, got: %v", level, err)
		}
	}
}

func TestLoad_InvalidMergedConfig_ReturnsValidationError(t *testing.T) {
	dir := t.TempDir()
	yamlContent := "search:\n  default_k: -1\n"
	if err := os.WriteFile(filepath.Join(dir, "searchd.yaml"), []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if _, err := Load(dir); err == nil {
		t.Fatal("expected Load to reject a config that fails Validate")
	}
}

func TestLoad_DirectoryWithoutConfigFile_ReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	// A directory with no searchd.yaml/.yml behaves as if unconfigured.
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Search.DefaultK != 10 {
		t.Errorf("expected defaults, got DefaultK=%d", cfg.Search.DefaultK)
	}
}

func TestLoad_EmptyYamlFile_BehavesAsDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "searchd.yaml"), []byte(""), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Indexing.ChunkSize != 800 {
		t.Errorf("expected defaults preserved for empty file, got %d", cfg.Indexing.ChunkSize)
	}
}

func TestMergeWith_PreservesExcludePatternsWhenFileOmitsThem(t *testing.T) {
	base := New()
	overlay := &Config{}
	overlay.Indexing.ChunkSize = 1000

	base.mergeWith(overlay)

	if len(base.Indexing.ExcludePatterns) == 0 {
		t.Error("expected default exclude patterns to survive a merge that doesn't set them")
	}
	if base.Indexing.ChunkSize != 1000 {
		t.Errorf("expected overlay chunk_size to win, got %d", base.Indexing.ChunkSize)
	}
}

func TestMergeWith_OverridesIncludePatternsWhenFileSetsThem(t *testing.T) {
	base := New()
	overlay := &Config{}
	overlay.Indexing.IncludePatterns = []string{"**/*.go"}

	base.mergeWith(overlay)

	if len(base.Indexing.IncludePatterns) != 1 || base.Indexing.IncludePatterns[0] != "**/*.go" {
		t.Errorf("expected include_patterns override, got %v", base.Indexing.IncludePatterns)
	}
}

package walk

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestWalker_Walk_EmitsLexicographicOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.go", "package b")
	writeFile(t, root, "a.go", "package a")
	writeFile(t, root, "sub/c.go", "package c")

	w := New()
	files, err := w.Walk(context.Background(), root, Options{})
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "a.go", files[0].RelPath)
	assert.Equal(t, "b.go", files[1].RelPath)
	assert.Equal(t, "sub/c.go", files[2].RelPath)
}

func TestWalker_Walk_FiltersByIncludeExclude(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main")
	writeFile(t, root, "README.md", "# readme")
	writeFile(t, root, "vendor/dep.go", "package dep")

	w := New()
	files, err := w.Walk(context.Background(), root, Options{
		IncludePatterns: []string{"**/*.go"},
		ExcludePatterns: []string{"vendor/**"},
	})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "main.go", files[0].RelPath)
}

func TestWalker_Walk_SkipsHiddenVCSDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".git/HEAD", "ref: refs/heads/main")
	writeFile(t, root, "main.go", "package main")

	w := New()
	files, err := w.Walk(context.Background(), root, Options{})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "main.go", files[0].RelPath)
}

func TestWalker_Walk_SkipsEmptyAndOversizedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "empty.go", "")
	writeFile(t, root, "big.go", "0123456789")
	writeFile(t, root, "small.go", "ok")

	w := New()
	files, err := w.Walk(context.Background(), root, Options{MaxFileSizeBytes: 5})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "small.go", files[0].RelPath)
}

func TestWalker_Walk_SkipsSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require elevated privileges on windows")
	}
	root := t.TempDir()
	writeFile(t, root, "real.go", "package real")
	require.NoError(t, os.Symlink(filepath.Join(root, "real.go"), filepath.Join(root, "link.go")))

	w := New()
	files, err := w.Walk(context.Background(), root, Options{})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "real.go", files[0].RelPath)
}

func TestWalker_Walk_FatalOnMissingRoot(t *testing.T) {
	w := New()
	_, err := w.Walk(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"), Options{})
	require.Error(t, err)
}

func TestWalker_Walk_SkipsInvalidUTF8(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "ok.go", "package ok")
	require.NoError(t, os.WriteFile(filepath.Join(root, "bad.bin"), []byte{0xff, 0xfe, 0xfd}, 0o644))

	w := New()
	files, err := w.Walk(context.Background(), root, Options{})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "ok.go", files[0].RelPath)
}

package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilsyn/searchd/pkg/version"
)

func execRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func writeRepoFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestVersionCmd_DefaultOutput(t *testing.T) {
	out, _, err := execRoot(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "searchd")
	assert.Contains(t, out, version.Version)
}

func TestVersionCmd_ShortOutput(t *testing.T) {
	out, _, err := execRoot(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version.Version, strings.TrimSpace(out))
}

func TestVersionCmd_JSONOutput(t *testing.T) {
	out, _, err := execRoot(t, "version", "--json")
	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.Version, info["version"])
}

func TestSessionsList_EmptyDataDir(t *testing.T) {
	dataDir := t.TempDir()
	out, _, err := execRoot(t, "--data-dir", dataDir, "sessions", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no sessions")
}

func TestIndexSearchValidateSessionsFlow(t *testing.T) {
	dataDir := t.TempDir()
	repo := t.TempDir()
	writeRepoFile(t, repo, "a.go", "package main\n\nfunc authenticate() {}\n")
	writeRepoFile(t, repo, "b.go", "package main\n\nfunc helper() {}\n")

	_, errOut, err := execRoot(t, "--data-dir", dataDir, "index", "--session", "s1", repo)
	require.NoError(t, err, errOut)

	listOut, _, err := execRoot(t, "--data-dir", dataDir, "--json", "sessions", "list")
	require.NoError(t, err)
	var rows []struct {
		SessionID     string `json:"session_id"`
		ChunksCreated int    `json:"chunks_created"`
	}
	require.NoError(t, json.Unmarshal([]byte(listOut), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "s1", rows[0].SessionID)
	assert.Greater(t, rows[0].ChunksCreated, 0)

	searchOut, _, err := execRoot(t, "--data-dir", dataDir, "--json", "search", "--session", "s1", "authenticate")
	require.NoError(t, err)
	var searchResp struct {
		Results   []map[string]any `json:"results"`
		TotalHits int               `json:"total_hits"`
	}
	require.NoError(t, json.Unmarshal([]byte(searchOut), &searchResp))
	assert.GreaterOrEqual(t, searchResp.TotalHits, 1)

	validateOut, _, err := execRoot(t, "--data-dir", dataDir, "--json", "validate", "s1")
	require.NoError(t, err)
	var report struct {
		IsConsistent bool `json:"is_consistent"`
	}
	require.NoError(t, json.Unmarshal([]byte(validateOut), &report))
	assert.True(t, report.IsConsistent)

	rmOut, _, err := execRoot(t, "--data-dir", dataDir, "sessions", "rm", "s1")
	require.NoError(t, err)
	assert.Contains(t, rmOut, "removed session")

	afterOut, _, err := execRoot(t, "--data-dir", dataDir, "sessions", "list")
	require.NoError(t, err)
	assert.Contains(t, afterOut, "no sessions")
}

func TestSearchCmd_RequiresSession(t *testing.T) {
	_, _, err := execRoot(t, "search", "foo")
	assert.Error(t, err)
}

func TestIndexCmd_RequiresSession(t *testing.T) {
	_, _, err := execRoot(t, "index", t.TempDir())
	assert.Error(t, err)
}

func TestValidateCmd_UnknownSession_ReturnsError(t *testing.T) {
	dataDir := t.TempDir()
	_, _, err := execRoot(t, "--data-dir", dataDir, "validate", "does-not-exist")
	assert.Error(t, err)
}

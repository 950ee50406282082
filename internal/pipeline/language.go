package pipeline

import (
	"path/filepath"
	"strings"
)

// extToLang maps a lowercased file extension to the language name stored
// on each chunk's language field. Unrecognized extensions fall back to
// "unknown".
var extToLang = map[string]string{
	".go":    "go",
	".rs":    "rust",
	".py":    "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".java":  "java",
	".c":     "c",
	".h":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".hpp":   "cpp",
	".rb":    "ruby",
	".php":   "php",
	".cs":    "csharp",
	".kt":    "kotlin",
	".swift": "swift",
	".sh":    "shell",
	".sql":   "sql",
	".md":    "markdown",
	".yaml":  "yaml",
	".yml":   "yaml",
	".json":  "json",
	".toml":  "toml",
	".html":  "html",
	".css":   "css",
}

// languageForPath infers a chunk's language field from its file extension.
func languageForPath(relPath string) string {
	ext := strings.ToLower(filepath.Ext(relPath))
	if lang, ok := extToLang[ext]; ok {
		return lang
	}
	return "unknown"
}

package buildpipeline

import (
	"path/filepath"
	"sort"
	"strings"
)

// DisplayPath is the name progress events use for file: relative to baseDir
// when it lies below it, slash-separated.
func DisplayPath(file, baseDir string) string {
	path := filepath.Clean(file)
	base := strings.TrimSpace(baseDir)
	if base != "" {
		if abs, err := filepath.Abs(base); err == nil {
			base = abs
		}
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if rel, err := filepath.Rel(base, path); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			path = rel
		}
	}
	return filepath.ToSlash(path)
}

// DisplayPaths maps files through DisplayPath, dropping empties and
// duplicates, sorted.
func DisplayPaths(files []string, baseDir string) []string {
	if len(files) == 0 {
		return files
	}
	normalized := make([]string, 0, len(files))
	seen := make(map[string]struct{}, len(files))
	for _, file := range files {
		if file == "" {
			continue
		}
		path := DisplayPath(file, baseDir)
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		normalized = append(normalized, path)
	}
	sort.Strings(normalized)
	return normalized
}

// uniqueFiles drops repeated mentions of the same file, keeping the first.
func uniqueFiles(files []string) []string {
	out := make([]string, 0, len(files))
	seen := make(map[string]struct{}, len(files))
	for _, file := range files {
		if file == "" {
			continue
		}
		key := filepath.Clean(file)
		if abs, err := filepath.Abs(key); err == nil {
			key = abs
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, file)
	}
	return out
}

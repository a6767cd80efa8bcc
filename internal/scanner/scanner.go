// Package scanner resolves the path setting of a configured source into the
// concrete export files to import. A path may name a single file, a glob, or
// a directory that is walked for known export formats.
package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// exportExtensions are the file formats the institution parsers read.
var exportExtensions = map[string]struct{}{
	".csv":  {},
	".xlsx": {},
	".ofx":  {},
	".qfx":  {},
}

// IsExportFile reports whether the path carries a known export extension.
func IsExportFile(path string) bool {
	_, ok := exportExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Expand resolves a configured source path into the export files it names,
// sorted for deterministic import order.
//
// Resolution order: a directory is walked recursively for export files; a
// glob returns its matches; anything else comes back verbatim so the caller's
// read error names the missing file.
func Expand(path string) []string {
	path = expandHome(path)

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return scanDir(path)
	}

	if matches, err := filepath.Glob(path); err == nil && len(matches) > 0 {
		sort.Strings(matches)
		return matches
	}

	return []string{path}
}

func scanDir(root string) []string {
	var files []string
	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		if IsExportFile(path) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

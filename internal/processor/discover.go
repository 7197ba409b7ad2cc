package processor

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"vid2audio/pkg/mediafmt"
)

// Discover expands root into candidates. A path that is not a directory is
// returned as given, even when it is missing or its extension is unsupported,
// so the converter can report it. A directory yields its supported files in lexical order; subdirectories are
// walked only when recursive is set, and exclude (typically the output
// directory) is pruned when it lies inside root.
func Discover(root string, recursive bool, exclude string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return []string{root}, nil
	}

	var excludeAbs string
	if exclude != "" {
		if abs, err := filepath.Abs(exclude); err == nil {
			excludeAbs = filepath.Clean(abs)
		}
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			if !recursive {
				return fs.SkipDir
			}
			if excludeAbs != "" {
				if abs, err := filepath.Abs(path); err == nil && isWithin(abs, excludeAbs) {
					return fs.SkipDir
				}
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if mediafmt.IsSupportedInput(mediafmt.Ext(path)) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// DiscoverAll expands every argument in order, dropping duplicates.
func DiscoverAll(roots []string, recursive bool, exclude string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, root := range roots {
		files, err := Discover(root, recursive, exclude)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			key := filepath.Clean(f)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, f)
		}
	}
	return out, nil
}

func isWithin(path string, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

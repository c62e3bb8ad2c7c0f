// Package scanner discovers test documents for a project suite from
// include/exclude glob patterns.
package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gar1t/groktest/internal/domain"
)

// Scan walks basepath and returns the sorted file paths matching any
// include pattern and no exclude pattern. Patterns are glob patterns
// relative to basepath; `**` matches across directory levels.
func Scan(basepath string, include, exclude []string) ([]string, error) {
	var files []string
	seen := map[string]bool{}

	err := filepath.WalkDir(basepath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relPath, relErr := filepath.Rel(basepath, path)
		if relErr != nil {
			relPath = path
		}

		if d.IsDir() {
			for _, exc := range exclude {
				if relPath != "." && matchGlob(relPath, exc) {
					return filepath.SkipDir
				}
			}
			return nil
		}

		for _, exc := range exclude {
			if matchGlob(relPath, exc) {
				return nil
			}
		}
		for _, pattern := range include {
			if matchGlob(relPath, pattern) {
				if !seen[path] {
					seen[path] = true
					files = append(files, path)
				}
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, domain.NewError("scan", basepath, 0, "failed to scan project", err)
	}

	sort.Strings(files)
	return files, nil
}

// matchGlob reports whether a path relative to the suite root matches
// an include/exclude pattern. Patterns use filepath.Match syntax, with
// two extensions suite configs rely on: `**` spans any number of
// directory levels, and a pattern may name just a file's base name.
func matchGlob(path, pattern string) bool {
	if star := strings.Index(pattern, "**"); star >= 0 {
		return matchDoubleStar(path, pattern[:star], pattern[star+2:])
	}
	if ok, _ := filepath.Match(pattern, path); ok {
		return true
	}
	ok, _ := filepath.Match(pattern, filepath.Base(path))
	return ok
}

// matchDoubleStar matches a pattern split at its first `**`. The text
// before the `**` must be a directory prefix of the path; whatever
// follows must match some tail of the remaining path segments, which
// is what lets `docs/**/*.md` reach arbitrarily nested documents.
func matchDoubleStar(path, before, after string) bool {
	sep := string(filepath.Separator)
	if prefix := strings.TrimSuffix(before, sep); prefix != "" {
		if path != prefix && !strings.HasPrefix(path, prefix+sep) {
			return false
		}
		path = strings.TrimPrefix(strings.TrimPrefix(path, prefix), sep)
	}
	tail := strings.TrimPrefix(after, sep)
	if tail == "" {
		return true
	}
	segments := strings.Split(path, sep)
	for i := range segments {
		if ok, _ := filepath.Match(tail, strings.Join(segments[i:], sep)); ok {
			return true
		}
	}
	return false
}

package expander

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Glob expands doublestar patterns into regular files. A pattern starting
// with "!" removes whatever it matches from the result.
type Glob struct{}

func NewGlob() *Glob {
	return &Glob{}
}

func (g *Glob) Expand(patterns []string) ([]string, error) {
	var includes, excludes []string
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		switch {
		case pattern == "":
		case strings.HasPrefix(pattern, "!"):
			excludes = append(excludes, filepath.ToSlash(filepath.Clean(strings.TrimPrefix(pattern, "!"))))
		default:
			includes = append(includes, pattern)
		}
	}

	for _, pattern := range append(includes, excludes...) {
		if !doublestar.ValidatePathPattern(strings.TrimPrefix(pattern, "!")) {
			return nil, fmt.Errorf("invalid glob pattern %q", pattern)
		}
	}

	seen := make(map[string]struct{})
	var files []string
	for _, pattern := range includes {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to expand %q: %w", pattern, err)
		}

		for _, match := range matches {
			if _, dup := seen[match]; dup {
				continue
			}
			if isExcluded(match, excludes) || !isRegular(match) {
				continue
			}
			seen[match] = struct{}{}
			files = append(files, match)
		}
	}

	sort.Strings(files)
	return files, nil
}

func isExcluded(path string, excludes []string) bool {
	path = filepath.ToSlash(path)
	for _, pattern := range excludes {
		if matched, err := doublestar.Match(pattern, path); err == nil && matched {
			return true
		}
	}
	return false
}

func isRegular(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

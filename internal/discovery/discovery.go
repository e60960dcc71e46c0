// Package discovery finds candidate tabular files under a replication
// directory, profiles each one, and picks the primary analysis dataset.
package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Configuration-class errors. These cross the package boundary; per-file
// read failures never do (they land in the candidate's Error field).
var (
	ErrDirectoryNotFound = errors.New("data directory not found")
	ErrNoFilesFound      = errors.New("no tabular files found")
	ErrPrimaryNotFound   = errors.New("primary file not found in catalog")
	ErrNoReadableFiles   = errors.New("no readable tabular files")
)

// Enumerate walks root recursively and returns every file whose base name
// matches at least one glob pattern, deduplicated and sorted by path.
func Enumerate(root string, patterns []string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, root)
	}

	seen := map[string]struct{}{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		for _, pat := range patterns {
			ok, err := filepath.Match(pat, d.Name())
			if err != nil {
				return fmt.Errorf("pattern %q: %w", pat, err)
			}
			if ok {
				seen[path] = struct{}{}
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("%w in %s with patterns %v", ErrNoFilesFound, root, patterns)
	}

	files := make([]string, 0, len(seen))
	for p := range seen {
		files = append(files, p)
	}
	sort.Strings(files)
	return files, nil
}

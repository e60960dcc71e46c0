package discovery

import (
	"fmt"
	"path/filepath"
	"sort"
)

// SelectPrimary picks the analysis dataset and records it on the catalog.
//
// With an override, the first record matching by exact path or by basename
// wins, whatever its score or error state. Without one, errored records
// are dropped and the rest are ranked by (score, rows, size) descending;
// ties at every level keep discovery order, so the result is deterministic
// for a fixed directory.
func (c *Catalog) SelectPrimary(override string) (string, error) {
	if override != "" {
		base := filepath.Base(override)
		for i := range c.Files {
			f := &c.Files[i]
			if f.Path == override || filepath.Base(f.Path) == base {
				c.Selected = f.Path
				return f.Path, nil
			}
		}
		return "", fmt.Errorf("%w: %s", ErrPrimaryNotFound, override)
	}

	valid := make([]*Candidate, 0, len(c.Files))
	for i := range c.Files {
		if c.Files[i].Readable() {
			valid = append(valid, &c.Files[i])
		}
	}
	if len(valid) == 0 {
		return "", ErrNoReadableFiles
	}

	sort.SliceStable(valid, func(i, j int) bool {
		a, b := valid[i], valid[j]
		if a.score() != b.score() {
			return a.score() > b.score()
		}
		if a.rows() != b.rows() {
			return a.rows() > b.rows()
		}
		return a.SizeBytes > b.SizeBytes
	})
	c.Selected = valid[0].Path
	return valid[0].Path, nil
}

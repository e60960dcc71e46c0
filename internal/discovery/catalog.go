package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/panelscout/panelscout/internal/sampler"
	"github.com/panelscout/panelscout/internal/utils"
)

// maxColumnSample caps how many column names a candidate record carries.
const maxColumnSample = 20

// Candidate is the record kept for one discovered file. Either Error is
// set, or the full shape/score group is; never both.
type Candidate struct {
	Path      string   `json:"path"`
	Ext       string   `json:"ext"`
	SizeBytes int64    `json:"size"`
	Rows      *int     `json:"nrows,omitempty"`
	Cols      *int     `json:"ncols,omitempty"`
	Columns   []string `json:"columns,omitempty"`
	Score     *float64 `json:"score,omitempty"`
	Signals   *Signals `json:"signals,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Readable reports whether the candidate was sampled successfully.
func (c *Candidate) Readable() bool { return c.Error == "" }

func (c *Candidate) rows() int {
	if c.Rows == nil {
		return 0
	}
	return *c.Rows
}

func (c *Candidate) score() float64 {
	if c.Score == nil {
		return 0
	}
	return *c.Score
}

// Catalog is one discovery run over a replication directory. Files keeps
// discovery order; Selected is filled in by SelectPrimary before the
// catalog is persisted.
type Catalog struct {
	DataDir  string      `json:"data_dir"`
	Patterns []string    `json:"patterns"`
	Selected string      `json:"selected"`
	Files    []Candidate `json:"files"`
}

// Options tunes a discovery run.
type Options struct {
	// Workers bounds concurrent file probes. Values below 2 mean
	// sequential probing, which is the reference behavior.
	Workers int
}

// Build enumerates root with the given glob patterns and probes every
// match. Probing never fails a run: unreadable files become error records.
// The returned catalog lists candidates in enumeration order regardless of
// worker count.
func Build(root string, patterns []string, opts Options) (*Catalog, error) {
	files, err := Enumerate(root, patterns)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}

	records := make([]Candidate, len(files))
	if opts.Workers < 2 {
		for i, path := range files {
			records[i] = probe(path)
		}
	} else {
		var wg sync.WaitGroup
		sem := make(chan struct{}, opts.Workers)
		for i, path := range files {
			wg.Add(1)
			go func(i int, path string) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				records[i] = probe(path)
			}(i, path)
		}
		wg.Wait()
	}

	return &Catalog{DataDir: abs, Patterns: patterns, Files: records}, nil
}

// probe samples one file and scores it. All failures are captured in the
// record; probe itself never returns an error.
func probe(path string) Candidate {
	c := Candidate{
		Path: path,
		Ext:  strings.ToLower(filepath.Ext(path)),
	}
	if info, err := os.Stat(path); err == nil {
		c.SizeBytes = info.Size()
	}

	s, err := sampler.SampleFile(path)
	if err != nil {
		c.Error = err.Error()
		return c
	}

	// Signals use every column name; the stored sample is capped.
	score, sig := ScoreColumns(s.Columns, s.Rows, s.Cols)
	cols := s.Columns
	if len(cols) > maxColumnSample {
		cols = cols[:maxColumnSample]
	}
	c.Rows = &s.Rows
	c.Cols = &s.Cols
	c.Columns = cols
	c.Score = &score
	c.Signals = &sig
	return c
}

// Save persists the catalog as a timestamped JSON artifact under dir and
// returns the artifact path. Callers decide whether failure is fatal; for
// the pipeline it is diagnostic-only and a warning suffices.
func (c *Catalog) Save(dir string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir catalog dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("dataset_catalog_%s.json", utils.Timestamp(now)))
	b, err := utils.PrettyJSON(c)
	if err != nil {
		return "", err
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return "", fmt.Errorf("write catalog: %w", err)
	}
	return path, nil
}

// Package sampler extracts the shape of tabular data files without reading
// them in full. Each supported format registers a Sampler for its
// extensions; everything else is reported as unsupported.
package sampler

import (
	"errors"
	"path/filepath"
	"strings"
)

// MaxSampleRows bounds how many data rows a sampler may read for formats
// that support partial reads (CSV, Stata). Columnar formats report their
// exact row count from file metadata instead.
const MaxSampleRows = 200

// Sample is the shape observed for one file.
type Sample struct {
	Rows    int
	Cols    int
	Columns []string // all column names, original order
}

// Sampler reads the shape of one tabular format.
type Sampler interface {
	Extensions() []string
	Sample(path string) (*Sample, error)
}

// ErrUnsupported is reported verbatim for extensions with no registered
// sampler; catalog records depend on this exact string.
var ErrUnsupported = errors.New("unsupported_ext")

var registry = map[string]Sampler{}

// Register adds a sampler for each extension it claims. Extensions are
// lowercase and include the leading dot.
func Register(s Sampler) {
	for _, ext := range s.Extensions() {
		registry[ext] = s
	}
}

// SampleFile dispatches on the lowercase file extension and returns the
// observed shape, or ErrUnsupported when no sampler claims the extension.
func SampleFile(path string) (*Sample, error) {
	ext := strings.ToLower(filepath.Ext(path))
	s, ok := registry[ext]
	if !ok {
		return nil, ErrUnsupported
	}
	return s.Sample(path)
}

func init() {
	Register(csvSampler{})
	Register(parquetSampler{})
	Register(featherSampler{})
	Register(stataSampler{})
}

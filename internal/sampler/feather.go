package sampler

import (
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

type featherSampler struct{}

func (featherSampler) Extensions() []string { return []string{".feather"} }

// Sample walks every record batch in the Arrow IPC file. Feather has no
// cheap partial read, so the count covers the whole file.
func (featherSampler) Sample(path string) (*Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feather: %w", err)
	}
	defer f.Close()

	r, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		return nil, fmt.Errorf("read feather: %w", err)
	}
	defer r.Close()

	schema := r.Schema()
	cols := make([]string, schema.NumFields())
	for i := 0; i < schema.NumFields(); i++ {
		cols[i] = schema.Field(i).Name
	}

	rows := 0
	for i := 0; i < r.NumRecords(); i++ {
		rec, err := r.Record(i)
		if err != nil {
			return nil, fmt.Errorf("read feather batch %d: %w", i, err)
		}
		rows += int(rec.NumRows())
	}
	return &Sample{Rows: rows, Cols: len(cols), Columns: cols}, nil
}

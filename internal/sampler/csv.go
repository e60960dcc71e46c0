package sampler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

type csvSampler struct{}

func (csvSampler) Extensions() []string { return []string{".csv"} }

// Sample reads the header plus at most MaxSampleRows data rows.
func (csvSampler) Sample(path string) (*Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty csv file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make([]string, len(header))
	copy(cols, header)

	rows := 0
	for rows < MaxSampleRows {
		if _, err := r.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", rows+1, err)
		}
		rows++
	}
	return &Sample{Rows: rows, Cols: len(cols), Columns: cols}, nil
}

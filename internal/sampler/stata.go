package sampler

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// stataSampler reads .dta headers directly: variable count, observation
// count and variable names all live in a fixed layout before any data, so
// the first "chunk" can be described without decoding a single value (and
// value labels are never touched).
type stataSampler struct{}

func (stataSampler) Extensions() []string { return []string{".dta"} }

// Header plus varname table for the widest supported layout (release 119,
// 32767 vars * 129 bytes) fits well under this cap.
const stataReadCap = 8 << 20

func (stataSampler) Sample(path string) (*Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dta: %w", err)
	}
	defer f.Close()

	buf, err := io.ReadAll(io.LimitReader(f, stataReadCap))
	if err != nil {
		return nil, fmt.Errorf("read dta: %w", err)
	}
	if len(buf) < 10 {
		return nil, errors.New("truncated dta file")
	}
	if buf[0] == '<' {
		return sampleStataModern(buf)
	}
	return sampleStataLegacy(buf)
}

// sampleStataLegacy handles releases 113-115 (Stata 8-12): a fixed binary
// header of release, byte order, nvar, nobs, an 81-byte label, an 18-byte
// timestamp, the type list, then 33-byte null-terminated variable names.
func sampleStataLegacy(b []byte) (*Sample, error) {
	release := int(b[0])
	if release < 113 || release > 115 {
		return nil, fmt.Errorf("unsupported dta release %d", release)
	}
	order, err := stataByteOrder(b[1])
	if err != nil {
		return nil, err
	}
	nvar := int(order.Uint16(b[4:6]))
	nobs := int(int32(order.Uint32(b[6:10])))
	if nvar < 0 || nobs < 0 {
		return nil, errors.New("corrupt dta header")
	}

	off := 10 + 81 + 18 // label + timestamp
	off += nvar         // typlist
	if len(b) < off+nvar*33 {
		return nil, errors.New("truncated dta header")
	}
	cols := make([]string, nvar)
	for i := range cols {
		cols[i] = cString(b[off+i*33 : off+(i+1)*33])
	}
	return &Sample{Rows: chunkRows(uint64(nobs)), Cols: nvar, Columns: cols}, nil
}

// sampleStataModern handles releases 117-119 (Stata 13+), which wrap the
// same information in XML-like tags with binary payloads: <K> is the
// variable count (2 bytes, 4 for 119), <N> the observation count (4 bytes,
// 8 for 118+), and <varnames> a table of fixed-width entries (33 bytes,
// 129 for 118+).
func sampleStataModern(b []byte) (*Sample, error) {
	rel, err := tagValue(b, "<release>", "</release>")
	if err != nil {
		return nil, err
	}
	release, err := strconv.Atoi(rel)
	if err != nil || release < 117 || release > 119 {
		return nil, fmt.Errorf("unsupported dta release %q", rel)
	}
	bo, err := tagValue(b, "<byteorder>", "</byteorder>")
	if err != nil {
		return nil, err
	}
	var order binary.ByteOrder
	switch bo {
	case "MSF":
		order = binary.BigEndian
	case "LSF":
		order = binary.LittleEndian
	default:
		return nil, fmt.Errorf("bad dta byte order %q", bo)
	}

	kRaw, err := tagPayload(b, "<K>", 2+2*boolToInt(release == 119))
	if err != nil {
		return nil, err
	}
	nvar := 0
	if len(kRaw) == 2 {
		nvar = int(order.Uint16(kRaw))
	} else {
		nvar = int(order.Uint32(kRaw))
	}

	nSize := 4
	if release >= 118 {
		nSize = 8
	}
	nRaw, err := tagPayload(b, "<N>", nSize)
	if err != nil {
		return nil, err
	}
	var nobs uint64
	if nSize == 4 {
		nobs = uint64(order.Uint32(nRaw))
	} else {
		nobs = order.Uint64(nRaw)
	}

	width := 33
	if release >= 118 {
		width = 129
	}
	names, err := tagPayload(b, "<varnames>", nvar*width)
	if err != nil {
		return nil, err
	}
	cols := make([]string, nvar)
	for i := range cols {
		cols[i] = cString(names[i*width : (i+1)*width])
	}
	return &Sample{Rows: chunkRows(nobs), Cols: nvar, Columns: cols}, nil
}

// chunkRows mirrors a chunked read of MaxSampleRows: the first chunk holds
// min(MaxSampleRows, nobs) observations.
func chunkRows(nobs uint64) int {
	if nobs > MaxSampleRows {
		return MaxSampleRows
	}
	return int(nobs)
}

func stataByteOrder(b byte) (binary.ByteOrder, error) {
	switch b {
	case 0x01:
		return binary.BigEndian, nil
	case 0x02:
		return binary.LittleEndian, nil
	}
	return nil, fmt.Errorf("bad dta byte order 0x%02x", b)
}

// tagValue extracts the text between an open and close tag.
func tagValue(b []byte, open, close string) (string, error) {
	i := bytes.Index(b, []byte(open))
	if i < 0 {
		return "", fmt.Errorf("dta tag %s not found", open)
	}
	rest := b[i+len(open):]
	j := bytes.Index(rest, []byte(close))
	if j < 0 {
		return "", fmt.Errorf("dta tag %s not closed", open)
	}
	return string(rest[:j]), nil
}

// tagPayload returns the size binary bytes following an open tag.
func tagPayload(b []byte, open string, size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("corrupt dta payload for %s", open)
	}
	i := bytes.Index(b, []byte(open))
	if i < 0 {
		return nil, fmt.Errorf("dta tag %s not found", open)
	}
	start := i + len(open)
	if len(b) < start+size {
		return nil, fmt.Errorf("truncated dta payload for %s", open)
	}
	return b[start : start+size], nil
}

// cString reads a null-terminated string from a fixed-width field.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

package record

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/teranos/globi/errors"
)

// Source yields records one at a time; Next returns io.EOF when exhausted.
// Sources are single pass.
type Source interface {
	Next() (Record, error)
}

// Format names a record file layout.
type Format string

const (
	FormatAuto  Format = "auto"
	FormatJSONL Format = "jsonl"
	FormatTSV   Format = "tsv"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatAuto, FormatJSONL, FormatTSV:
		return f, nil
	case "":
		return FormatAuto, nil
	default:
		return "", errors.Newf("unknown record format %q (want auto, jsonl or tsv)", s)
	}
}

// DetectFormat picks a format from the file extension; unknown extensions are TSV.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson", ".json":
		return FormatJSONL
	default:
		return FormatTSV
	}
}

// OpenFile opens path as a record source. The returned closer releases the file.
func OpenFile(path string, format Format) (Source, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open %s", path)
	}
	if format == FormatAuto || format == "" {
		format = DetectFormat(path)
	}

	var src Source
	switch format {
	case FormatJSONL:
		src = NewJSONLSource(f)
	case FormatTSV:
		src, err = NewTSVSource(f)
	default:
		err = errors.Newf("unsupported format %q", format)
	}
	if err != nil {
		f.Close()
		return nil, nil, errors.Wrapf(err, "read %s", path)
	}
	return src, f, nil
}

// JSONLSource reads one JSON object per line. Non-string scalar values are
// rendered as strings; nested values are kept as JSON text.
type JSONLSource struct {
	scanner *bufio.Scanner
	line    int
}

// NewJSONLSource reads records from r.
func NewJSONLSource(r io.Reader) *JSONLSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &JSONLSource{scanner: scanner}
}

// Next returns the next record.
func (s *JSONLSource) Next() (Record, error) {
	for s.scanner.Scan() {
		s.line++
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		var raw map[string]json.RawMessage
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			return nil, errors.Wrapf(err, "line %d", s.line)
		}
		rec := make(Record, len(raw))
		for k, v := range raw {
			rec[k] = jsonScalar(v)
		}
		return rec, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "line %d", s.line)
	}
	return nil, io.EOF
}

func jsonScalar(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	trimmed := strings.TrimSpace(string(v))
	if trimmed == "null" {
		return ""
	}
	return trimmed
}

// TSVSource reads a tab-separated file whose first row names the fields.
type TSVSource struct {
	reader *csv.Reader
	header []string
}

// NewTSVSource reads the header row from r.
func NewTSVSource(r io.Reader) (*TSVSource, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("empty file: missing header row")
	}
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return &TSVSource{reader: reader, header: cols}, nil
}

// Next returns the next row; short rows leave trailing fields unset.
func (s *TSVSource) Next() (Record, error) {
	row, err := s.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, errors.Wrap(err, "read row")
	}
	rec := make(Record, len(s.header))
	for i, name := range s.header {
		if i < len(row) && name != "" {
			rec[name] = row[i]
		}
	}
	return rec, nil
}

// SliceSource serves records from memory.
type SliceSource struct {
	records []Record
	pos     int
}

// NewSliceSource wraps records.
func NewSliceSource(records ...Record) *SliceSource {
	return &SliceSource{records: records}
}

// Next returns the next record.
func (s *SliceSource) Next() (Record, error) {
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	r := s.records[s.pos]
	s.pos++
	return r, nil
}

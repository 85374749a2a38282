// Package rowsource reads delimited text into column headers and rows that
// can be handed to the inserter. Every row has exactly as many values as
// there are headers.
package rowsource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	// ErrNoHeader is returned when the input has no header record.
	ErrNoHeader = errors.New("missing header row")
	// ErrRowWidth is returned when a record has a different number of fields than the header.
	ErrRowWidth = errors.New("row width does not match header")
)

const utf8BOM = "\uFEFF"

// Options configures how records are read.
type Options struct {
	// Comma is the field delimiter. When zero, ',' is used.
	Comma rune
	// Comment, if not zero, marks lines to skip.
	Comment rune
	// TrimSpace trims leading and trailing white space from every field.
	TrimSpace bool
	// NullString, if set, is read as SQL NULL (a nil value).
	NullString string
	// SkipEmpty drops records whose fields are all empty.
	SkipEmpty bool
}

// Table is the parsed content of a source.
type Table struct {
	Headers []string
	Rows    [][]any
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Skip returns a Table without its first n rows. It is used to resume a load
// whose first n rows are already committed.
func (t *Table) Skip(n int) *Table {
	n = min(max(n, 0), len(t.Rows))
	return &Table{Headers: t.Headers, Rows: t.Rows[n:]}
}

// Records returns every row as a map keyed by header.
func (t *Table) Records() []map[string]any {
	out := make([]map[string]any, len(t.Rows))
	for i, row := range t.Rows {
		rec := make(map[string]any, len(t.Headers))
		for j, h := range t.Headers {
			rec[h] = row[j]
		}
		out[i] = rec
	}
	return out
}

// Open reads the file at path.
func Open(path string, opts Options) (*Table, error) {
	const op = "rowsource.Open"

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = f.Close()
	}()

	t, err := ReadCSV(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, path, err)
	}
	return t, nil
}

// ReadCSV reads a header record followed by data records from r.
func ReadCSV(r io.Reader, opts Options) (*Table, error) {
	const op = "rowsource.ReadCSV"

	cr := csv.NewReader(r)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.Comment = opts.Comment
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", op, ErrNoHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", op, err)
	}

	headers := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		headers[i] = strings.TrimSpace(h)
	}

	t := &Table{Headers: headers}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if opts.SkipEmpty && isEmpty(rec) {
			continue
		}
		if len(rec) != len(headers) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%s: line %d: %w: got %d fields, want %d",
				op, line, ErrRowWidth, len(rec), len(headers))
		}
		t.Rows = append(t.Rows, opts.values(rec))
	}

	return t, nil
}

func (o Options) values(rec []string) []any {
	row := make([]any, len(rec))
	for i, field := range rec {
		if o.TrimSpace {
			field = strings.TrimSpace(field)
		}
		if o.NullString != "" && field == o.NullString {
			row[i] = nil
			continue
		}
		row[i] = field
	}
	return row
}

func isEmpty(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

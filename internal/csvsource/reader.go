// Package csvsource reads header-having CSV sources in a single forward pass.
package csvsource

import (
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrNoHeader is returned by Header when the source has no records at all.
var ErrNoHeader = errors.New("source has no header row")

// Reader yields the header and then each data row of a CSV source.
// Rows may have any number of fields. A Reader is consumed once.
type Reader struct {
	name    string
	csv     *csv.Reader
	closers []io.Closer

	header     []string
	headerRead bool
	line       int
}

// Open opens the CSV file at path. Files ending in ".gz" are decompressed.
// The caller must Close the returned Reader.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}

	var src io.Reader = f
	closers := []io.Closer{f}
	if strings.EqualFold(filepath.Ext(path), ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip source: %w", err)
		}
		src = gz
		closers = append([]io.Closer{gz}, closers...)
	}

	r := NewReader(path, src)
	r.closers = closers
	return r, nil
}

// NewReader wraps src. A leading byte order mark is removed, and UTF-16
// input with a BOM is decoded to UTF-8.
func NewReader(name string, src io.Reader) *Reader {
	decoded := transform.NewReader(src, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1

	return &Reader{name: name, csv: cr}
}

// Name returns the name the reader was created with, usually the file path.
func (r *Reader) Name() string {
	return r.name
}

// Header reads and returns the first record. Subsequent calls return the same
// slice without reading.
func (r *Reader) Header() ([]string, error) {
	if r.headerRead {
		return r.header, nil
	}
	record, err := r.csv.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	r.header = record
	r.headerRead = true
	r.line, _ = r.csv.FieldPos(0)
	return record, nil
}

// Next returns the next data row, or io.EOF after the last one.
// The header is consumed first if Header has not been called.
func (r *Reader) Next() ([]string, error) {
	if !r.headerRead {
		if _, err := r.Header(); err != nil {
			return nil, err
		}
	}
	record, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read row: %w", err)
	}
	r.line, _ = r.csv.FieldPos(0)
	return record, nil
}

// Line returns the input line on which the most recently read record
// started, or 0 before the first record.
func (r *Reader) Line() int {
	return r.line
}

// Close releases the underlying file, if any.
func (r *Reader) Close() error {
	var errs []error
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

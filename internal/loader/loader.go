package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/yravipati/countydata/internal/csvsource"
	"github.com/yravipati/countydata/internal/ident"
	"github.com/yravipati/countydata/internal/store"
)

// Loader loads CSV sources into a store as all-TEXT tables, one table per
// source. Each load fully replaces the target table in one transaction.
//
// A Loader holds no per-run state. Loads of the same table name must be
// serialized by the caller.
type Loader struct {
	store  *store.Store
	logger *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for load progress. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// New creates a Loader writing into st. The caller owns st and closes it.
func New(st *store.Store, opts ...Option) *Loader {
	l := &Loader{store: st, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Result summarizes a successful load.
type Result struct {
	Source    string         `json:"source"`
	Table     string         `json:"table"`
	Columns   []ident.Column `json:"columns"`
	Rows      int64          `json:"rows"`
	Padded    int64          `json:"padded"`
	Truncated int64          `json:"truncated"`
	Duration  time.Duration  `json:"duration_ns"`
}

// Load loads the CSV file at path into the table derived from its file name.
func (l *Loader) Load(ctx context.Context, path string) (*Result, error) {
	return l.LoadAs(ctx, path, "")
}

// LoadAs loads the CSV file at path into table. An empty table derives the
// name from path; a non-empty one must already be a valid table name.
func (l *Loader) LoadAs(ctx context.Context, path, table string) (*Result, error) {
	src, err := csvsource.Open(path)
	if err != nil {
		return nil, NewSchemaError(path, path, "cannot open source", err)
	}
	defer src.Close()

	return l.LoadReader(ctx, src, table)
}

// LoadAll loads each path in order into its derived table, stopping at the
// first failure. Results for the sources loaded before the failure are
// returned alongside the error.
func (l *Loader) LoadAll(ctx context.Context, paths []string) ([]*Result, error) {
	results := make([]*Result, 0, len(paths))
	for _, path := range paths {
		res, err := l.Load(ctx, path)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// LoadReader loads an opened source. The table name is derived from
// src.Name() when table is empty.
//
// The header is read and sanitized and the table name resolved before the
// store is touched, so SchemaError and NameError never modify the store.
func (l *Loader) LoadReader(ctx context.Context, src *csvsource.Reader, table string) (*Result, error) {
	start := time.Now()
	source := src.Name()

	header, err := src.Header()
	if err != nil {
		if errors.Is(err, csvsource.ErrNoHeader) {
			return nil, NewSchemaError(source, "", "header row is missing", err)
		}
		return nil, NewSchemaError(source, lineInput(err, 1), "cannot read header", err)
	}

	columns, err := ident.SanitizeColumns(header)
	if err != nil {
		return nil, NewSchemaError(source, strings.Join(header, ","), "invalid header", err)
	}

	name, err := resolveTableName(source, table)
	if err != nil {
		return nil, err
	}

	l.logger.Debug("loading source",
		"source", source,
		"table", name,
		"columns", ident.Names(columns),
	)

	width := len(columns)
	res := &Result{Source: source, Table: name, Columns: columns}

	rows := func(yield func([]any) error) error {
		for {
			row, err := src.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return NewSchemaError(source, lineInput(err, src.Line()+1), "malformed CSV row", err)
			}

			switch {
			case len(row) < width:
				res.Padded++
			case len(row) > width:
				res.Truncated++
			}

			if err := yield(Normalize(row, width).Values()); err != nil {
				return err
			}
		}
	}

	inserted, err := l.store.ReplaceTable(ctx, store.Table{Name: name, Columns: ident.Names(columns)}, rows)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			l.logger.Error("load failed", "source", source, "table", name, "kind", le.Kind, "error", err)
			return nil, le
		}
		l.logger.Error("load failed", "source", source, "table", name, "kind", KindStore, "error", err)
		return nil, NewStoreError(source, name, err)
	}

	res.Rows = inserted
	res.Duration = time.Since(start)

	l.logger.Info("table loaded",
		"source", source,
		"table", name,
		"columns", width,
		"rows", res.Rows,
		"padded", res.Padded,
		"truncated", res.Truncated,
		"duration", res.Duration,
	)

	return res, nil
}

// resolveTableName validates an explicit table name or derives one from source.
func resolveTableName(source, table string) (string, error) {
	if table != "" {
		if err := ident.ValidateTableName(table); err != nil {
			return "", NewNameError(source, table, err)
		}
		return table, nil
	}

	name, err := ident.DeriveTableName(source)
	if err != nil {
		return "", NewNameError(source, filepath.Base(source), err)
	}
	return name, nil
}

// lineInput names the CSV line of a parse error, falling back to line.
func lineInput(err error, line int) string {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		line = pe.Line
	}
	return fmt.Sprintf("line %d", line)
}

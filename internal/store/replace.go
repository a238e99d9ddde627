package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/yravipati/countydata/internal/ident"
)

// Table describes an all-TEXT table: its name and column names in order.
type Table struct {
	Name    string
	Columns []string
}

// RowSource streams the rows to insert. It calls yield once per row, in
// order, and must stop and return the first non-nil error yield returns.
// Every row passed to yield must have exactly len(Table.Columns) values.
type RowSource func(yield func(values []any) error) error

// ReplaceTable drops any existing table named t.Name, creates it afresh with
// one TEXT column per entry of t.Columns, and inserts every row from rows.
//
// Everything runs in a single transaction committed after the last row. On
// any error (including one returned by rows itself) the transaction rolls
// back and the previous table, if any, is left untouched.
//
// Returns the number of rows inserted.
func (s *Store) ReplaceTable(ctx context.Context, t Table, rows RowSource) (int64, error) {
	if len(t.Columns) == 0 {
		return 0, fmt.Errorf("replace table %s: no columns", t.Name)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("replace table %s: begin tx: %w", t.Name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, BuildDropTable(t.Name)); err != nil {
		return 0, fmt.Errorf("replace table %s: drop: %w", t.Name, err)
	}
	if _, err := tx.ExecContext(ctx, BuildCreateTable(t)); err != nil {
		return 0, fmt.Errorf("replace table %s: create: %w", t.Name, err)
	}

	stmt, err := tx.PrepareContext(ctx, BuildInsert(t))
	if err != nil {
		return 0, fmt.Errorf("replace table %s: prepare insert: %w", t.Name, err)
	}
	defer stmt.Close()

	var inserted int64
	err = rows(func(values []any) error {
		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			return fmt.Errorf("insert row %d: %w", inserted+1, err)
		}
		inserted++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("replace table %s: %w", t.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("replace table %s: commit: %w", t.Name, err)
	}

	return inserted, nil
}

// BuildDropTable returns the DROP TABLE IF EXISTS statement for name.
func BuildDropTable(name string) string {
	return "DROP TABLE IF EXISTS " + ident.Quote(name)
}

// BuildCreateTable returns the CREATE TABLE statement for t, every column
// typed TEXT, in column order.
func BuildCreateTable(t Table) string {
	parts := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		parts[i] = ident.Quote(col) + " TEXT"
	}
	return "CREATE TABLE " + ident.Quote(t.Name) + " (" + strings.Join(parts, ", ") + ")"
}

// BuildInsert returns the parameterized INSERT statement for t.
func BuildInsert(t Table) string {
	cols := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		cols[i] = ident.Quote(col)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.Columns)), ", ")
	return "INSERT INTO " + ident.Quote(t.Name) +
		" (" + strings.Join(cols, ", ") + ") VALUES (" + placeholders + ")"
}

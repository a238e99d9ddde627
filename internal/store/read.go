package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/yravipati/countydata/internal/ident"
)

// ColumnInfo is one row of PRAGMA table_info.
type ColumnInfo struct {
	Position   int    `json:"position"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	NotNull    bool   `json:"not_null"`
	PrimaryKey bool   `json:"primary_key"`
}

// TableExists reports whether a table named name exists.
func (s *Store) TableExists(ctx context.Context, name string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sqlite_master
		WHERE type = 'table' AND name = ?
	`, name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", name, err)
	}
	return count > 0, nil
}

// Tables returns the names of all user tables, sorted by name.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return names, nil
}

// Columns returns the columns of table name in declaration order.
// Returns an empty slice if the table does not exist.
func (s *Store) Columns(ctx context.Context, name string) ([]ColumnInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cid, name, type, "notnull", pk
		FROM pragma_table_info(?)
		ORDER BY cid
	`, name)
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", name, err)
	}
	defer rows.Close()

	columns := []ColumnInfo{}
	for rows.Next() {
		var (
			col     ColumnInfo
			notNull int
			pk      int
		)
		if err := rows.Scan(&col.Position, &col.Name, &col.Type, &notNull, &pk); err != nil {
			return nil, fmt.Errorf("scan table info %s: %w", name, err)
		}
		col.NotNull = notNull == 1
		col.PrimaryKey = pk > 0
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table info %s: %w", name, err)
	}
	return columns, nil
}

// CountRows returns the number of rows in table name.
func (s *Store) CountRows(ctx context.Context, name string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+ident.Quote(name)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count rows %s: %w", name, err)
	}
	return count, nil
}

// ReadTable returns up to limit rows of table name in insertion order.
// A limit <= 0 returns every row. NULL cells have Valid == false.
func (s *Store) ReadTable(ctx context.Context, name string, limit int) ([][]sql.NullString, error) {
	query := "SELECT * FROM " + ident.Quote(name) + " ORDER BY rowid"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read table %s: columns: %w", name, err)
	}

	result := [][]sql.NullString{}
	for rows.Next() {
		record := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range record {
			ptrs[i] = &record[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("read table %s: scan: %w", name, err)
		}
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read table %s: iterate: %w", name, err)
	}
	return result, nil
}

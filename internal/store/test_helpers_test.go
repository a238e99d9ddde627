package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// sliceSource returns a RowSource yielding rows in order.
func sliceSource(rows ...[]any) RowSource {
	return func(yield func([]any) error) error {
		for _, row := range rows {
			if err := yield(row); err != nil {
				return err
			}
		}
		return nil
	}
}

// mustReplace loads rows into table or fails the test.
func mustReplace(t *testing.T, s *Store, table Table, rows ...[]any) int64 {
	t.Helper()
	n, err := s.ReplaceTable(context.Background(), table, sliceSource(rows...))
	if err != nil {
		t.Fatalf("ReplaceTable(%s) failed: %v", table.Name, err)
	}
	return n
}

// cells flattens a stored table into strings, "<NULL>" for NULL cells.
func cells(t *testing.T, s *Store, name string) [][]string {
	t.Helper()
	rows, err := s.ReadTable(context.Background(), name, 0)
	if err != nil {
		t.Fatalf("ReadTable(%s) failed: %v", name, err)
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = make([]string, len(row))
		for j, c := range row {
			if c.Valid {
				out[i][j] = c.String
			} else {
				out[i][j] = "<NULL>"
			}
		}
	}
	return out
}

package loader

import "database/sql"

// Record is a data row normalized to the header width. Cells past the end
// of a short source row are NULL.
type Record []sql.NullString

// Normalize fits row to width n: shorter rows are padded with NULL cells,
// longer rows are truncated to their first n cells.
func Normalize(row []string, n int) Record {
	rec := make(Record, n)
	for i := 0; i < n && i < len(row); i++ {
		rec[i] = sql.NullString{String: row[i], Valid: true}
	}
	return rec
}

// Values returns the record as statement arguments.
func (r Record) Values() []any {
	values := make([]any, len(r))
	for i, c := range r {
		values[i] = c
	}
	return values
}

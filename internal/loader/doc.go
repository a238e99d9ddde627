// Package loader loads header-having CSV sources into SQLite as all-TEXT
// tables.
//
// A load run reads the header, sanitizes it into column names, derives the
// table name from the source file name and then, inside one store
// transaction, drops and recreates the table and inserts every data row.
// Rows are normalized to the header width: short rows are padded with NULL,
// long rows are truncated.
//
// Every failure is reported as a *LoadError of one of three kinds:
//
//	SCHEMA_ERROR  header missing, empty or colliding; unreadable or malformed CSV
//	NAME_ERROR    the table name is not a usable identifier
//	STORE_ERROR   SQLite rejected the load
//
// The store is left exactly as it was before a failed run.
package loader

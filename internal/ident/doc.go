// Package ident turns CSV header cells and source file names into SQLite
// identifiers.
//
// Sanitization is purely per value:
//   - NFC-normalize, then lowercase
//   - every rune outside [a-z0-9_] becomes a single '_'
//
// Nothing is trimmed or collapsed, so Sanitize(Sanitize(x)) == Sanitize(x).
//
// Header sets are checked as a whole after sanitization: an empty header, an
// empty sanitized name, a rowid alias, or two cells sharing a sanitized name
// are rejected.
// Table names must additionally start with a letter or underscore and must
// not be a reserved SQLite keyword, so they can be used unquoted by readers.
//
// Generated SQL always quotes identifiers with Quote regardless.
package ident

package ident

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Header errors.
var (
	ErrEmptyHeader     = errors.New("header row is missing or empty")
	ErrEmptyColumn     = errors.New("header cell sanitizes to an empty name")
	ErrDuplicateColumn = errors.New("header cells sanitize to the same name")
	ErrRowidColumn     = errors.New("header cell sanitizes to a rowid alias")
)

// rowidAliases name SQLite's implicit row key; a real column with one of
// these names shadows it and breaks load-order reads.
var rowidAliases = map[string]struct{}{"rowid": {}, "oid": {}, "_rowid_": {}}

// Table name errors.
var (
	ErrEmptyName    = errors.New("table name is empty")
	ErrInvalidName  = errors.New("table name must match ^[a-z_][a-z0-9_]*$")
	ErrReservedName = errors.New("table name is a reserved SQLite keyword")
)

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Column pairs a header cell with its sanitized identifier.
type Column struct {
	Raw  string `json:"raw"`
	Name string `json:"name"`
}

// Sanitize lowercases name and replaces every rune outside [a-z0-9_] with '_'.
func Sanitize(name string) string {
	lowered := strings.ToLower(norm.NFC.String(name))

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if isIdentRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func isIdentRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_'
}

// SanitizeColumns sanitizes every header cell, preserving order.
//
// Returns ErrEmptyHeader when header has no cells or only empty cells,
// ErrEmptyColumn when a single cell is empty, ErrRowidColumn when a cell
// becomes rowid, oid or _rowid_, and ErrDuplicateColumn when two cells share
// a sanitized name. Errors name the offending cells.
func SanitizeColumns(header []string) ([]Column, error) {
	if isBlank(header) {
		return nil, ErrEmptyHeader
	}

	columns := make([]Column, len(header))
	seen := make(map[string]int, len(header))
	for i, raw := range header {
		name := Sanitize(raw)
		if name == "" {
			return nil, fmt.Errorf("%w: column %d", ErrEmptyColumn, i+1)
		}
		if _, ok := rowidAliases[name]; ok {
			return nil, fmt.Errorf("%w: %q (column %d) becomes %q", ErrRowidColumn, raw, i+1, name)
		}
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: %q (column %d) and %q (column %d) both become %q",
				ErrDuplicateColumn, header[prev], prev+1, raw, i+1, name)
		}
		seen[name] = i
		columns[i] = Column{Raw: raw, Name: name}
	}
	return columns, nil
}

func isBlank(header []string) bool {
	for _, cell := range header {
		if cell != "" {
			return false
		}
	}
	return true
}

// Names returns the sanitized names of columns in order.
func Names(columns []Column) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names
}

// DeriveTableName derives a table name from a source path: the final path
// component with its extension removed, sanitized. A trailing ".gz" is removed
// together with the extension before it.
func DeriveTableName(path string) (string, error) {
	base := filepath.Base(path)
	if strings.EqualFold(filepath.Ext(base), ".gz") {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))

	name := Sanitize(base)
	if err := ValidateTableName(name); err != nil {
		return "", fmt.Errorf("derive table name from %q: %w", path, err)
	}
	return name, nil
}

// ValidateTableName reports whether name is usable as an unquoted SQLite
// table identifier.
func ValidateTableName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if IsReserved(name) {
		return fmt.Errorf("%w: %q", ErrReservedName, name)
	}
	return nil
}

// Quote returns name as a double-quoted SQL identifier.
func Quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

package loader

import (
	"errors"
	"fmt"
)

// LoadError represents a failure of a single load run.
//
// Load errors are fatal to the run. The transaction is rolled back before
// the error is returned, so no partially loaded table is ever visible.
//
//   - SchemaError: missing/empty/duplicate header, unreadable or malformed CSV
//   - NameError: the derived table name is not a usable identifier
//   - StoreError: SQLite rejected DDL/DML, disk full, locked database
//
// SchemaError and NameError need the input fixed. StoreError may succeed when
// the whole run is retried after the underlying condition is addressed.
type LoadError struct {
	// Kind identifies the error category.
	Kind ErrorKind

	// Source is the source path of the failed run.
	Source string

	// Input is the offending value: a header cell, table name or line.
	Input string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorKind categorizes load errors.
type ErrorKind string

const (
	// KindSchema indicates a missing, empty or invalid header, or malformed CSV.
	KindSchema ErrorKind = "SCHEMA_ERROR"

	// KindName indicates the table name derived from the source is unusable.
	KindName ErrorKind = "NAME_ERROR"

	// KindStore indicates the store rejected an operation.
	KindStore ErrorKind = "STORE_ERROR"
)

// Error implements the error interface.
func (e *LoadError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Input != "" {
		msg += fmt.Sprintf(" (input=%q)", e.Input)
	}
	if e.Source != "" {
		msg += fmt.Sprintf(" (source=%s)", e.Source)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Retryable reports whether re-running the whole load may succeed without
// changing the input.
func (e *LoadError) Retryable() bool {
	return e.Kind == KindStore
}

// IsSchemaError returns true if err is a LoadError of kind KindSchema.
// Uses errors.As to handle wrapped errors.
func IsSchemaError(err error) bool {
	return kindOf(err) == KindSchema
}

// IsNameError returns true if err is a LoadError of kind KindName.
func IsNameError(err error) bool {
	return kindOf(err) == KindName
}

// IsStoreError returns true if err is a LoadError of kind KindStore.
func IsStoreError(err error) bool {
	return kindOf(err) == KindStore
}

func kindOf(err error) ErrorKind {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}

// NewSchemaError creates a LoadError for header or CSV problems.
func NewSchemaError(source, input, message string, err error) *LoadError {
	return &LoadError{Kind: KindSchema, Source: source, Input: input, Message: message, Err: err}
}

// NewNameError creates a LoadError for an unusable table name.
func NewNameError(source, input string, err error) *LoadError {
	return &LoadError{Kind: KindName, Source: source, Input: input, Message: "unusable table name", Err: err}
}

// NewStoreError creates a LoadError for a store failure.
func NewStoreError(source, table string, err error) *LoadError {
	return &LoadError{Kind: KindStore, Source: source, Input: table, Message: "store rejected load", Err: err}
}

package lookup

import (
	"errors"
	"fmt"
)

// Error is a lookup failure the caller should report to the client as is.
// Store failures are not Errors; they are returned wrapped and unclassified.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is the client-facing description.
	Message string
}

// ErrorCode categorizes lookup errors.
type ErrorCode string

const (
	// CodeBadRequest indicates the request failed validation. No table was read.
	CodeBadRequest ErrorCode = "BAD_REQUEST"

	// CodeNotFound indicates the ZIP or the county/measure pair has no rows.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeTeapot indicates the client asked for coffee.
	CodeTeapot ErrorCode = "TEAPOT"
)

// ErrTeapot is returned for every request with Coffee set to "teapot".
var ErrTeapot = &Error{Code: CodeTeapot, Message: "I'm a teapot"}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func badRequest(message string) *Error {
	return &Error{Code: CodeBadRequest, Message: message}
}

func notFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

// IsBadRequest returns true if err is a lookup Error with CodeBadRequest.
// Uses errors.As to handle wrapped errors.
func IsBadRequest(err error) bool {
	return codeOf(err) == CodeBadRequest
}

// IsNotFound returns true if err is a lookup Error with CodeNotFound.
func IsNotFound(err error) bool {
	return codeOf(err) == CodeNotFound
}

// IsTeapot returns true if err is a lookup Error with CodeTeapot.
func IsTeapot(err error) bool {
	return codeOf(err) == CodeTeapot
}

func codeOf(err error) ErrorCode {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

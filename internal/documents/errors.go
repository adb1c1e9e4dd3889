package documents

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateDocument is matched by errors for a name that is already loaded
	ErrDuplicateDocument = errors.New("document already exists")
	// ErrNotFound is matched by errors for an unknown document name
	ErrNotFound = errors.New("document not found")
	// ErrOperationNotFound is matched by errors for an unknown operation id
	ErrOperationNotFound = errors.New("operation not found")
	// ErrParse is matched by errors for a location that could not be parsed
	ErrParse = errors.New("failed to parse OpenAPI document")
	// ErrInvalidDocument is matched by errors for a malformed add request
	ErrInvalidDocument = errors.New("invalid document")
)

// documentError carries a caller facing message while matching a sentinel
type documentError struct {
	kind error
	msg  string
	err  error
}

func (e *documentError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *documentError) Is(target error) bool {
	return target == e.kind
}

func (e *documentError) Unwrap() error {
	return e.err
}

func duplicateError(name string) error {
	return &documentError{
		kind: ErrDuplicateDocument,
		msg:  fmt.Sprintf("OpenAPI document with name '%s' already exists", name),
	}
}

func notFoundError(name string) error {
	return &documentError{kind: ErrNotFound, msg: "OpenAPI document not found: " + name}
}

func operationNotFoundError(id string) error {
	return &documentError{kind: ErrOperationNotFound, msg: "Operation not found: " + id}
}

func parseError(location string, err error) error {
	return &documentError{kind: ErrParse, msg: "failed to parse OpenAPI document from " + location, err: err}
}

func invalidError(msg string) error {
	return &documentError{kind: ErrInvalidDocument, msg: msg}
}

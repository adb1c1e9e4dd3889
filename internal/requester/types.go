// Package requester turns tool calls into HTTP requests against the backend
// described by an operation's document.
package requester

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrOperationNotFound is returned before any network call for an unknown operation id
	ErrOperationNotFound = errors.New("operation not found")
	// ErrConfiguration is returned when no base URL can be determined
	ErrConfiguration = errors.New("configuration error")
)

// Invoker executes the operation behind a tool with the caller's arguments
type Invoker interface {
	Invoke(ctx context.Context, operationID string, args map[string]any) (any, error)
}

// AuthManager handles request authentication
type AuthManager interface {
	ApplyAuth(req *http.Request) error
}

// InvocationError wraps any failure after the operation was found
type InvocationError struct {
	OperationID string
	Err         error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("Error invoking %s : %v", e.OperationID, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// StatusError is returned for backend responses with a status of 400 or above
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

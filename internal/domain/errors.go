package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the archive client. Callers match on these with
// errors.Is; the concrete *DomainError carries the user-facing message.
var (
	// ErrInvalidQuery marks a query rejected before any HTTP call was made
	ErrInvalidQuery = errors.New("invalid query")
	// ErrNotFound marks a missing remote resource (job, product, archive)
	ErrNotFound = errors.New("resource not found")
	// ErrRemote marks a non-2xx response from an archive service
	ErrRemote = errors.New("remote service error")
	// ErrJobFailed marks a TAP job that ended in the ERROR phase
	ErrJobFailed = errors.New("job failed")
	// ErrJobAborted marks a TAP job that ended in the ABORTED phase
	ErrJobAborted = errors.New("job aborted")
	// ErrInternal marks an internal client error
	ErrInternal = errors.New("internal error")
)

// DomainError wraps a sentinel with a code and a user-facing message
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface (used for logs and error chains)
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// UserMessage returns the message without internal detail
func (e *DomainError) UserMessage() string {
	return e.Message
}

// Unwrap returns the wrapped sentinel
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewInvalidQueryError rejects a malformed query or parameter combination
func NewInvalidQueryError(message string) error {
	return &DomainError{
		Code:    "INVALID_QUERY",
		Message: message,
		Err:     ErrInvalidQuery,
	}
}

// NewNotFoundError reports a missing remote resource
func NewNotFoundError(resourceType, name string) error {
	return &DomainError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s '%s' not found", resourceType, name),
		Err:     ErrNotFound,
	}
}

// NewRemoteError surfaces an HTTP error status from an archive service
func NewRemoteError(statusCode int, body string) error {
	msg := fmt.Sprintf("service returned HTTP %d", statusCode)
	if body != "" {
		msg = fmt.Sprintf("%s: %s", msg, truncate(body, 200))
	}
	return &DomainError{
		Code:    "REMOTE_ERROR",
		Message: msg,
		Err:     ErrRemote,
	}
}

// NewJobFailedError surfaces a TAP job ERROR phase with the server summary
func NewJobFailedError(jobID, summary string) error {
	if summary == "" {
		summary = "no error summary provided by service"
	}
	return &DomainError{
		Code:    "JOB_FAILED",
		Message: fmt.Sprintf("job %s failed: %s", jobID, summary),
		Err:     ErrJobFailed,
	}
}

// NewJobAbortedError reports a job that was aborted before completion
func NewJobAbortedError(jobID string) error {
	return &DomainError{
		Code:    "JOB_ABORTED",
		Message: fmt.Sprintf("job %s was aborted", jobID),
		Err:     ErrJobAborted,
	}
}

// NewInternalError wraps an unexpected client-side failure
func NewInternalError(err error) error {
	return &DomainError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Err:     fmt.Errorf("%w: %v", ErrInternal, err),
	}
}

// IsInvalidQuery reports whether err is a rejected query
func IsInvalidQuery(err error) bool {
	return errors.Is(err, ErrInvalidQuery)
}

// IsNotFound reports whether err is a missing resource
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRemote reports whether err carries a remote HTTP failure
func IsRemote(err error) bool {
	return errors.Is(err, ErrRemote)
}

// IsJobFailed reports whether err is a TAP ERROR phase
func IsJobFailed(err error) bool {
	return errors.Is(err, ErrJobFailed)
}

// IsJobAborted reports whether err is a TAP ABORTED phase
func IsJobAborted(err error) bool {
	return errors.Is(err, ErrJobAborted)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Package errors provides structured error handling for the transaction
// commit core.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents a specific error type
type ErrorCode string

// Error implements the error interface for ErrorCode
func (e ErrorCode) Error() string {
	return string(e)
}

// Predefined error codes (spec §7 taxonomy).
const (
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrOutOfMemory     ErrorCode = "out_of_memory"
	ErrInterrupted     ErrorCode = "interrupted"
	ErrIO              ErrorCode = "io_error"
	ErrControlPlane    ErrorCode = "control_plane_error"
)

// ErrorSource indicates where the error originated
type ErrorSource string

// Predefined error sources
const (
	SourceHold          ErrorSource = "hold"
	SourceTrack         ErrorSource = "track"
	SourceCommitPipeline ErrorSource = "commit_pipeline"
	SourceControlPlane  ErrorSource = "control_plane"
	SourceSegmentWriter ErrorSource = "segment_writer"
	SourceInodeWriteback ErrorSource = "inode_writeback"
	SourceItemStore     ErrorSource = "item_store"
)

// ErrorDetails contains structured information about an error
type ErrorDetails struct {
	// Timestamp when the error occurred
	Timestamp time.Time

	// ActorID of the caller involved in the error, if any
	ActorID string

	// Segno of the segment being committed when the error occurred, if any
	Segno uint64

	// WriteCount at the time of the error, for correlating with commit attempts
	WriteCount uint64

	// AdditionalInfo contains any extra information
	AdditionalInfo map[string]string
}

// Error is a structured error type for the commit core.
type Error struct {
	// Code identifies the error type
	Code ErrorCode

	// Message is a human-readable error message
	Message string

	// Source indicates where the error originated
	Source ErrorSource

	// Details contains additional error information
	Details *ErrorDetails

	// Cause is the underlying error
	Cause error
}

// New creates a new structured error
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Details: &ErrorDetails{
			Timestamp:      time.Now(),
			AdditionalInfo: make(map[string]string),
		},
	}
}

// WithSource adds a source to the error
func (e *Error) WithSource(source ErrorSource) *Error {
	e.Source = source
	return e
}

// WithCause adds a cause to the error
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithDetails adds details to the error
func (e *Error) WithDetails(details *ErrorDetails) *Error {
	if details != nil {
		// Preserve timestamp if not set in the new details
		if details.Timestamp.IsZero() && e.Details != nil {
			details.Timestamp = e.Details.Timestamp
		}
		e.Details = details
	}
	return e
}

// WithCommitInfo adds commit pipeline context to the error details.
func (e *Error) WithCommitInfo(actorID string, segno, writeCount uint64) *Error {
	if e.Details == nil {
		e.Details = &ErrorDetails{
			Timestamp:      time.Now(),
			AdditionalInfo: make(map[string]string),
		}
	}
	e.Details.ActorID = actorID
	e.Details.Segno = segno
	e.Details.WriteCount = writeCount
	return e
}

// AddInfo adds additional info to the error
func (e *Error) AddInfo(key, value string) *Error {
	if e.Details == nil {
		e.Details = &ErrorDetails{
			Timestamp:      time.Now(),
			AdditionalInfo: make(map[string]string),
		}
	}
	e.Details.AdditionalInfo[key] = value
	return e
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, so errors.Is and errors.As can
// reach it.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode reports whether err is an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	e, ok := err.(*Error)
	return ok && e.Code == code
}

package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// WithStack adds stack trace information to the error
func (e *Error) WithStack() *Error {
	if e.Details == nil {
		e.Details = &ErrorDetails{
			Timestamp:      time.Now(),
			AdditionalInfo: make(map[string]string),
		}
	}

	// Capture stack trace (skip this function and caller)
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(2, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	// Format stack trace
	var stackBuilder strings.Builder
	frameCount := 0

	for {
		frame, more := frames.Next()
		if !more || frameCount >= 10 { // Limit to 10 frames
			break
		}

		// Skip runtime functions
		if strings.Contains(frame.Function, "runtime.") {
			continue
		}

		fmt.Fprintf(&stackBuilder, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		frameCount++
	}

	e.Details.AdditionalInfo["stack_trace"] = stackBuilder.String()
	return e
}

// WithField adds a custom field to the error
func (e *Error) WithField(key, value string) *Error {
	return e.AddInfo(key, value)
}

// WithFields adds multiple custom fields to the error
func (e *Error) WithFields(fields map[string]string) *Error {
	if e.Details == nil {
		e.Details = &ErrorDetails{
			Timestamp:      time.Now(),
			AdditionalInfo: make(map[string]string),
		}
	}

	for k, v := range fields {
		e.Details.AdditionalInfo[k] = v
	}

	return e
}

type ctxKey string

const ctxKeyActorID ctxKey = "txncore_actor_id"

// WithActor returns a context carrying the given actor ID, recoverable by
// (*Error).WithContext.
func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, ctxKeyActorID, actorID)
}

// WithContext extracts the acting actor ID from ctx, if present.
func (e *Error) WithContext(ctx context.Context) *Error {
	if actorID, ok := ctx.Value(ctxKeyActorID).(string); ok && actorID != "" {
		if e.Details == nil {
			e.Details = &ErrorDetails{
				Timestamp:      time.Now(),
				AdditionalInfo: make(map[string]string),
			}
		}
		e.Details.ActorID = actorID
	}
	return e
}

// IsInterrupted checks if the error represents an interrupted wait.
func IsInterrupted(err error) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code == ErrInterrupted
	}
	return false
}

// IsControlPlane checks if the error originated from a control-plane RPC.
func IsControlPlane(err error) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code == ErrControlPlane || e.Source == SourceControlPlane
	}
	return false
}

// RetryAfter extracts a retry-after hint (seconds) if one was recorded.
func RetryAfter(err error) (int, bool) {
	var e *Error
	if stderrors.As(err, &e) && e.Details != nil {
		if val, ok := e.Details.AdditionalInfo["retry_after_seconds"]; ok {
			var seconds int
			if _, scanErr := fmt.Sscanf(val, "%d", &seconds); scanErr == nil {
				return seconds, true
			}
		}
	}
	return 0, false
}

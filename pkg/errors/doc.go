/*
Package errors provides standardized error handling for the transaction commit core.

This package implements a structured error system with:

  - Strongly typed error codes (invalid argument, out of memory, interrupted,
    I/O, control plane)
  - Error sourcing (which component raised it)
  - Commit-pipeline context preservation (actor, segno, write count)
  - Error wrapping and unwrapping via the standard errors.As/errors.Is machinery

Usage example:

	err := errors.New(errors.ErrControlPlane, "alloc_segno failed").
		WithSource(errors.SourceControlPlane).
		WithCause(rpcErr)

	if errors.IsControlPlane(err) {
	    // retry or surface to caller
	}
*/
package errors

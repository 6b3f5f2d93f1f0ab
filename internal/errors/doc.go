// Package errors defines error types for the session engine.
//
// This package provides structured error types for the failure scenarios of
// spawning, streaming, and cancelling Claude CLI sessions. All error types
// support error unwrapping and can be checked using errors.Is, errors.As, and
// errors.AsType.
package errors

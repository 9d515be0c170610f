// Package errors provides foundational, type-safe error primitives used across docmirror.
//
// This package contains classified error types and helpers for robust error handling,
// including a fluent builder API for constructing ClassifiedError values with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (not_found, network, filesystem, render, etc.)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - RetryStrategy: Retry behavior (never, immediate, backoff)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - HTTP and CLI adapters for error presentation
//
// Example usage:
//
//	err := errors.NetworkError("raw content request failed").
//		WithCause(originalErr).
//		WithContext("url", rawURL).
//		Build()
package errors

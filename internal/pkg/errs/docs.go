// Package errs defines the error taxonomy shared across the order lifecycle.
//
// Each kind of failure comes in two parts: a sentinel (ErrObjectNotFound,
// ErrInvalidStateTransition, ErrUpstreamUnavailable, ...) that callers match
// with errors.Is, and a typed error carrying the detail, whose Unwrap points
// at the sentinel. The HTTP layer maps sentinels to status codes, so handlers
// return typed errors and never shape responses themselves.
package errs

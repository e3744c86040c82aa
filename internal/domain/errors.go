package domain

import (
	"errors"
	"fmt"
	"time"
)

// Machine-readable error codes carried across the tool boundary. The host
// process dispatches on these, so they are part of the public contract and
// must stay stable.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeRateLimited  = "RATE_LIMIT_EXCEEDED"
	CodeUpstream     = "UPSTREAM_ERROR"
	CodeInvalidInput = "INVALID_INPUT"
)

// NotFoundError reports that a requested resource does not exist upstream,
// or that an identifier/name could not be resolved.
type NotFoundError struct {
	Resource string // e.g. "application", "contract"
	ID       string // the identifier or name as supplied by the caller
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Code() string { return CodeNotFound }

// UnauthorizedError reports a rejected credential.
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	if e.Reason == "" {
		return "unauthorized"
	}
	return "unauthorized: " + e.Reason
}

func (e *UnauthorizedError) Code() string { return CodeUnauthorized }

// RateLimitError reports that the upstream throttled the request. ResetAt
// is the decoded reset hint when the upstream supplied one, zero otherwise.
type RateLimitError struct {
	Limit   int
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	if e.ResetAt.IsZero() {
		return "upstream rate limit exceeded"
	}
	return fmt.Sprintf("upstream rate limit exceeded, resets at %s", e.ResetAt.Format(time.RFC3339))
}

func (e *RateLimitError) Code() string { return CodeRateLimited }

// UpstreamError wraps any upstream failure that does not map to a more
// specific kind. Status is zero when the failure happened before a
// response was received.
type UpstreamError struct {
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream error (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("upstream error: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Code() string { return CodeUpstream }

// InvalidInputError reports a caller-supplied parameter the adapter
// rejected before reaching the upstream.
type InvalidInputError struct {
	Param  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input %q: %s", e.Param, e.Reason)
}

func (e *InvalidInputError) Code() string { return CodeInvalidInput }

// Coder is implemented by every error in the taxonomy.
type Coder interface {
	error
	Code() string
}

// ErrorCode extracts the stable code from err, or CodeUpstream when err is
// outside the taxonomy.
func ErrorCode(err error) string {
	var c Coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return CodeUpstream
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

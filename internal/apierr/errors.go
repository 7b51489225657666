// Package apierr defines the error taxonomy shared by every outbound
// API client and the shorts pipeline. Each failure carries a type so
// callers can distinguish permanent rejections from transient transport
// conditions that are safe to retry.
package apierr

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorType int

const (
	// ErrValidation covers bad input rejected before any network call
	// (unsupported file type, oversized file, empty parameters).
	ErrValidation ErrorType = iota
	// ErrAuth maps HTTP 401 responses.
	ErrAuth
	// ErrQuota maps HTTP 402 and 429 responses.
	ErrQuota
	// ErrInvalidRequest maps HTTP 422 responses.
	ErrInvalidRequest
	// ErrTransient covers timeouts, network failures, and 5xx
	// responses. Safe to retry at the caller's discretion.
	ErrTransient
	// ErrUpstream means the provider accepted the job and then reported
	// a job-level failure with a message.
	ErrUpstream
	// ErrTimeout means a polling loop exhausted its attempt ceiling.
	ErrTimeout
	ErrUnknown
)

func (t ErrorType) String() string {
	switch t {
	case ErrValidation:
		return "Validation"
	case ErrAuth:
		return "Auth"
	case ErrQuota:
		return "Quota"
	case ErrInvalidRequest:
		return "InvalidRequest"
	case ErrTransient:
		return "Transient"
	case ErrUpstream:
		return "Upstream"
	case ErrTimeout:
		return "Timeout"
	default:
		return "Unknown"
	}
}

// Error is a typed failure with optional structured context and cause.
type Error struct {
	Type    ErrorType
	Message string
	Context map[string]any
	Cause   error
}

func New(errorType ErrorType, message string) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
	}
}

func Newf(errorType ErrorType, format string, args ...any) *Error {
	return New(errorType, fmt.Sprintf(format, args...))
}

func Wrap(err error, errorType ErrorType, message string) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
		Cause:   err,
	}
}

func (e *Error) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s", e.Type.String(), e.Message))

	if len(e.Context) > 0 {
		var ctxParts []string
		for k, v := range e.Context {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("context: %s", strings.Join(ctxParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) WithContext(key string, value any) *Error {
	e.Context[key] = value
	return e
}

// IsType reports whether err is (or wraps) an *Error of the given type.
func IsType(err error, errorType ErrorType) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Type == errorType
	}
	return false
}

// TypeOf extracts the error type, falling back to ErrUnknown for
// untyped errors.
func TypeOf(err error) ErrorType {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Type
	}
	return ErrUnknown
}

// FromStatus translates an HTTP status code from a provider into the
// taxonomy. Callers pass the provider name so the message identifies
// which upstream rejected the call.
func FromStatus(status int, provider, body string) *Error {
	switch {
	case status == 401:
		return Newf(ErrAuth, "%s rejected credentials", provider).WithContext("status", status)
	case status == 402 || status == 429:
		return Newf(ErrQuota, "%s quota exceeded", provider).WithContext("status", status)
	case status == 422:
		return Newf(ErrInvalidRequest, "%s rejected request format", provider).
			WithContext("status", status).
			WithContext("body", truncate(body, 200))
	case status >= 500:
		return Newf(ErrTransient, "%s returned server error", provider).WithContext("status", status)
	default:
		return Newf(ErrUpstream, "%s returned unexpected status", provider).
			WithContext("status", status).
			WithContext("body", truncate(body, 200))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

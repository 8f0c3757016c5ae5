package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for provider operations.
var (
	// ErrUnknownProvider indicates no factory is registered for a kind.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrIncompleteConfig indicates a profile is missing required fields.
	ErrIncompleteConfig = errors.New("incomplete provider configuration")

	// ErrInvalidProfile indicates a profile whose variant does not match its kind.
	ErrInvalidProfile = errors.New("invalid provider profile")

	// ErrAuth indicates the service rejected the credentials.
	ErrAuth = errors.New("authentication failed")

	// ErrUnavailable indicates the LLM service is unavailable.
	ErrUnavailable = errors.New("LLM service unavailable")

	// ErrContextTooLong indicates the input exceeds the context window.
	ErrContextTooLong = errors.New("context exceeds maximum length")

	// ErrRateLimited indicates the request was rate limited.
	ErrRateLimited = errors.New("rate limited")

	// ErrInvalidRequest indicates the request is malformed.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrTimeout indicates the request timed out.
	ErrTimeout = errors.New("request timed out")

	// ErrMalformedResponse indicates a response without any choices.
	ErrMalformedResponse = errors.New("malformed response")
)

// Error wraps provider errors with context.
type Error struct {
	Provider   string // Provider kind ("azure", "openai")
	Op         string // Operation that failed ("complete")
	StatusCode int    // HTTP status, 0 when no response was received
	Err        error  // Underlying error
	Retryable  bool   // Whether the error is likely transient
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new provider error.
func NewError(provider, op string, err error, retryable bool) *Error {
	return &Error{
		Provider:  provider,
		Op:        op,
		Err:       err,
		Retryable: retryable,
	}
}

// StatusError classifies an HTTP error status from the service. cause is
// kept in the chain next to the matching sentinel.
func StatusError(provider, op string, status int, cause error) *Error {
	var sentinel error
	retryable := false
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		sentinel = ErrAuth
	case status == http.StatusTooManyRequests:
		sentinel, retryable = ErrRateLimited, true
	case status >= 500:
		sentinel, retryable = ErrUnavailable, true
	default:
		sentinel = ErrInvalidRequest
	}

	err := sentinel
	if cause != nil {
		err = fmt.Errorf("%w: %w", sentinel, cause)
	}
	return &Error{
		Provider:   provider,
		Op:         op,
		StatusCode: status,
		Err:        err,
		Retryable:  retryable,
	}
}

// IsRetryable checks if an error is likely transient and worth retrying.
func IsRetryable(err error) bool {
	var provErr *Error
	if errors.As(err, &provErr) {
		return provErr.Retryable
	}

	// Check for known retryable sentinel errors
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrTimeout)
}

// IsAuthError checks if an error is authentication-related.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuth)
}

// IsConfigError checks if an error means the profile must be fixed before
// anything can be submitted.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrIncompleteConfig) ||
		errors.Is(err, ErrInvalidProfile) ||
		errors.Is(err, ErrUnknownProvider)
}

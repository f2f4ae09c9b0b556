// Package api provides clients and error types for the breach lookup services.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Sentinel errors. An *APIError unwraps to the sentinel matching its status,
// so callers can test with errors.Is and still read the status code.
var (
	// ErrNotFound indicates the service has no record of the account or hash.
	// For breach lookups this is the good outcome.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates the API key was missing or rejected (401, 403).
	ErrUnauthorized = errors.New("unauthorized: API key rejected")

	// ErrRateLimited indicates the service answered 429 after all retries.
	ErrRateLimited = errors.New("rate limited")

	// ErrMissingAPIKey is returned without a request when a key-only endpoint
	// is called with no key configured.
	ErrMissingAPIKey = errors.New("API key not configured")

	// ErrInvalidPrefix indicates a malformed hash prefix for a range query.
	ErrInvalidPrefix = errors.New("invalid hash prefix")
)

// APIError is a non-2xx response from a breach service.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	// RetryAfter is the server's requested wait, when it sent one.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: API error %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: API error %d", e.Provider, e.StatusCode)
}

// Unwrap maps well-known statuses to their sentinel.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return nil
	}
}

// IsNotFound reports whether err means the account or hash is unknown to the service.
func IsNotFound(err error) bool {
	return err != nil && errors.Is(err, ErrNotFound)
}

// IsUnauthorized reports whether err means the API key was rejected.
func IsUnauthorized(err error) bool {
	return err != nil && errors.Is(err, ErrUnauthorized)
}

// IsRateLimited reports whether err is a 429 that survived retries.
func IsRateLimited(err error) bool {
	return err != nil && errors.Is(err, ErrRateLimited)
}

// IsMissingAPIKey reports whether err means no key was configured.
func IsMissingAPIKey(err error) bool {
	return err != nil && errors.Is(err, ErrMissingAPIKey)
}

// StatusCode returns the HTTP status carried by err, or 0 if err is not an *APIError.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

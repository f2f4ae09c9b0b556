package http

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"math/rand"
	nethttp "net/http"
	"strconv"
	"strings"
	"time"

	"github.com/breachnotifier/breach-notifier/internal/constants"
)

// ErrorType represents different classes of errors for retry strategy
type ErrorType int

const (
	// ErrorTypeSuccess indicates the service gave a definitive answer (2xx, 404)
	ErrorTypeSuccess ErrorType = iota
	// ErrorTypeCredential indicates the API key was rejected (401, 403)
	ErrorTypeCredential
	// ErrorTypeNetwork indicates network/connection issues (timeouts, connection refused, etc.)
	ErrorTypeNetwork
	// ErrorTypeRetryable indicates server errors that can be retried (429, 500, 502, 503, 504)
	ErrorTypeRetryable
	// ErrorTypeFatal indicates client errors that should not be retried (400, invalid request)
	ErrorTypeFatal
)

// Config holds retry parameters for ExecuteWithRetry
type Config struct {
	// MaxRetries is the maximum number of attempts
	MaxRetries int
	// InitialDelay is the base delay for exponential backoff
	InitialDelay time.Duration
	// MaxDelay is the maximum delay between retries
	MaxDelay time.Duration
	// OnRetry is an optional callback invoked before each retry attempt
	OnRetry func(attempt int, err error, errorType ErrorType)
}

// DefaultConfig returns a Config matching the API client's retry policy.
func DefaultConfig() Config {
	return Config{
		MaxRetries:   constants.DefaultMaxRetries + 1,
		InitialDelay: constants.RetryWaitMin,
		MaxDelay:     constants.RetryWaitMax,
	}
}

// ClassifyError determines the error type of a transport-level error.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeSuccess
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeFatal
	}

	var unknownAuthority x509.UnknownAuthorityError
	var hostname x509.HostnameError
	if errors.As(err, &unknownAuthority) || errors.As(err, &hostname) {
		return ErrorTypeFatal
	}

	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "forbidden") {
		return ErrorTypeCredential
	}

	// Network errors - retryable with backoff
	if strings.Contains(errStr, "tls handshake timeout") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "i/o timeout") ||
		strings.Contains(errStr, "eof") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "timeout") {
		return ErrorTypeNetwork
	}

	if strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "bad gateway") ||
		strings.Contains(errStr, "server error") {
		return ErrorTypeRetryable
	}

	// Unknown errors - treat as fatal to avoid retrying unexpected errors
	return ErrorTypeFatal
}

// ClassifyResponse determines the error type of a completed round trip.
func ClassifyResponse(resp *nethttp.Response, err error) ErrorType {
	if err != nil {
		return ClassifyError(err)
	}
	if resp == nil {
		return ErrorTypeFatal
	}

	switch code := resp.StatusCode; {
	case code < 400, code == nethttp.StatusNotFound:
		return ErrorTypeSuccess
	case code == nethttp.StatusUnauthorized, code == nethttp.StatusForbidden:
		return ErrorTypeCredential
	case code == nethttp.StatusTooManyRequests, code == nethttp.StatusRequestTimeout:
		return ErrorTypeRetryable
	case code == nethttp.StatusNotImplemented:
		return ErrorTypeFatal
	case code >= 500:
		return ErrorTypeRetryable
	default:
		return ErrorTypeFatal
	}
}

// CheckRetry is a retryablehttp.CheckRetry policy. Network failures, 429 and
// 5xx are retried. A 429 is returned to the caller at once, so it can fall
// back to another provider, when its Retry-After exceeds RetryAfterMax or
// outlasts the request's deadline.
func CheckRetry(ctx context.Context, resp *nethttp.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	switch ClassifyResponse(resp, err) {
	case ErrorTypeNetwork:
		return true, nil
	case ErrorTypeRetryable:
		if resp != nil && resp.StatusCode == nethttp.StatusTooManyRequests {
			if wait, ok := ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()); ok {
				if wait > constants.RetryAfterMax {
					return false, nil
				}
				if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= wait {
					return false, nil
				}
			}
		}
		return true, nil
	default:
		return false, nil
	}
}

// Backoff is a retryablehttp.Backoff. It honours Retry-After on 429 and 503
// responses and otherwise uses exponential backoff with full jitter.
func Backoff(minWait, maxWait time.Duration, attemptNum int, resp *nethttp.Response) time.Duration {
	if resp != nil && (resp.StatusCode == nethttp.StatusTooManyRequests || resp.StatusCode == nethttp.StatusServiceUnavailable) {
		if wait, ok := ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()); ok {
			if wait > constants.RetryAfterMax {
				wait = constants.RetryAfterMax
			}
			return wait
		}
	}

	wait := CalculateBackoff(attemptNum+1, minWait, maxWait)
	if wait < minWait {
		wait = minWait
	}
	return wait
}

// ParseRetryAfter parses a Retry-After header given either as delay seconds
// or as an HTTP date.
func ParseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if t, err := nethttp.ParseTime(value); err == nil {
		wait := t.Sub(now)
		if wait < 0 {
			wait = 0
		}
		return wait, true
	}
	return 0, false
}

// CalculateBackoff returns exponential backoff duration with full jitter
// Full jitter prevents synchronized retries from several clients.
//
// Formula: random(0, min(maxDelay, initialDelay * 2^attempt))
func CalculateBackoff(attempt int, initialDelay, maxDelay time.Duration) time.Duration {
	if attempt <= 0 || initialDelay <= 0 {
		return 0
	}
	if attempt > 30 {
		attempt = 30
	}

	base := time.Duration(1<<uint(attempt)) * initialDelay
	if base > maxDelay || base <= 0 {
		base = maxDelay
	}
	if base <= 0 {
		return 0
	}

	return time.Duration(rand.Int63n(int64(base)))
}

// ExecuteWithRetry runs an operation with the same classification as the API client.
//
// Retry strategy:
//   - Network/Retryable errors: Exponential backoff with full jitter
//   - Credential and fatal errors: Return immediately without retry
//   - Context cancellation: Return immediately, including during a backoff sleep
func ExecuteWithRetry(ctx context.Context, config Config, operation func() error) error {
	var lastErr error

	for attempt := 0; attempt < config.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		errType := ClassifyError(err)
		switch errType {
		case ErrorTypeSuccess:
			return nil

		case ErrorTypeFatal, ErrorTypeCredential:
			return err

		case ErrorTypeNetwork, ErrorTypeRetryable:
			if attempt >= config.MaxRetries-1 {
				break
			}
			backoff := CalculateBackoff(attempt, config.InitialDelay, config.MaxDelay)

			// Don't start a sleep the deadline cannot cover.
			if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < backoff {
				return fmt.Errorf("insufficient time for retry: %w", err)
			}
			if config.OnRetry != nil {
				config.OnRetry(attempt+1, err, errType)
			}

			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", config.MaxRetries, lastErr)
}

// ErrorTypeName returns a human-readable name for an ErrorType
func ErrorTypeName(errType ErrorType) string {
	switch errType {
	case ErrorTypeSuccess:
		return "success"
	case ErrorTypeCredential:
		return "credential"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeRetryable:
		return "retryable"
	case ErrorTypeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

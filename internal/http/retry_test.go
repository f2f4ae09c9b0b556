package http

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/breachnotifier/breach-notifier/internal/constants"
)

// TestExecuteWithRetry_Success verifies basic success case returns nil on first attempt.
func TestExecuteWithRetry_Success(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		MaxRetries:   3,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
	}

	calls := 0
	err := ExecuteWithRetry(ctx, cfg, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("expected nil error, got: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

// TestExecuteWithRetry_FatalError verifies no retry on fatal errors.
func TestExecuteWithRetry_FatalError(t *testing.T) {
	cfg := Config{
		MaxRetries:   5,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
	}

	calls := 0
	err := ExecuteWithRetry(context.Background(), cfg, func() error {
		calls++
		return fmt.Errorf("invalid request")
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if calls != 1 {
		t.Errorf("expected 1 call (no retry on fatal), got %d", calls)
	}
}

// TestExecuteWithRetry_NetworkErrorExhausts verifies retries stop at MaxRetries.
func TestExecuteWithRetry_NetworkErrorExhausts(t *testing.T) {
	cfg := Config{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}

	calls := 0
	retries := 0
	cfg.OnRetry = func(attempt int, err error, errType ErrorType) {
		retries++
		if errType != ErrorTypeNetwork {
			t.Errorf("expected network error type, got %s", ErrorTypeName(errType))
		}
	}

	err := ExecuteWithRetry(context.Background(), cfg, func() error {
		calls++
		return fmt.Errorf("connection refused")
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if retries != 2 {
		t.Errorf("expected 2 retry callbacks, got %d", retries)
	}
}

// TestExecuteWithRetry_ContextCancelledDuringSleep verifies retry returns quickly when context cancelled.
func TestExecuteWithRetry_ContextCancelledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{
		MaxRetries:   5,
		InitialDelay: 5 * time.Second, // Long backoff to ensure we'd be sleeping
		MaxDelay:     30 * time.Second,
	}

	calls := 0
	start := time.Now()

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := ExecuteWithRetry(ctx, cfg, func() error {
		calls++
		return fmt.Errorf("connection reset")
	})

	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if elapsed > 1*time.Second {
		t.Errorf("expected quick return after context cancel, but took %v", elapsed)
	}
	if calls < 1 {
		t.Errorf("expected at least 1 call, got %d", calls)
	}
}

func TestClassifyResponse(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorType
	}{
		{200, ErrorTypeSuccess},
		{404, ErrorTypeSuccess},
		{400, ErrorTypeFatal},
		{401, ErrorTypeCredential},
		{403, ErrorTypeCredential},
		{429, ErrorTypeRetryable},
		{500, ErrorTypeRetryable},
		{501, ErrorTypeFatal},
		{503, ErrorTypeRetryable},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			got := ClassifyResponse(&http.Response{StatusCode: tt.status}, nil)
			if got != tt.want {
				t.Errorf("ClassifyResponse(%d) = %s, want %s", tt.status, ErrorTypeName(got), ErrorTypeName(tt.want))
			}
		})
	}

	if got := ClassifyResponse(nil, context.Canceled); got != ErrorTypeFatal {
		t.Errorf("cancelled context should be fatal, got %s", ErrorTypeName(got))
	}
	if got := ClassifyResponse(nil, fmt.Errorf("dial tcp: i/o timeout")); got != ErrorTypeNetwork {
		t.Errorf("i/o timeout should be network, got %s", ErrorTypeName(got))
	}
}

func TestCheckRetry(t *testing.T) {
	ctx := context.Background()

	tooMany := &http.Response{StatusCode: 429, Header: http.Header{}}
	tooMany.Header.Set("Retry-After", "2")
	if retry, _ := CheckRetry(ctx, tooMany, nil); !retry {
		t.Error("429 with a short Retry-After should be retried")
	}

	longWait := &http.Response{StatusCode: 429, Header: http.Header{}}
	longWait.Header.Set("Retry-After", "3600")
	if retry, _ := CheckRetry(ctx, longWait, nil); retry {
		t.Error("429 with a long Retry-After should be returned to the caller")
	}

	short, cancelShort := context.WithTimeout(ctx, time.Second)
	defer cancelShort()
	if retry, _ := CheckRetry(short, tooMany, nil); retry {
		t.Error("429 whose Retry-After outlasts the deadline should be returned to the caller")
	}
	roomy, cancelRoomy := context.WithTimeout(ctx, time.Minute)
	defer cancelRoomy()
	if retry, _ := CheckRetry(roomy, tooMany, nil); !retry {
		t.Error("429 whose Retry-After fits the deadline should be retried")
	}

	if retry, _ := CheckRetry(ctx, &http.Response{StatusCode: 404}, nil); retry {
		t.Error("404 is an answer, not a failure")
	}
	if retry, _ := CheckRetry(ctx, &http.Response{StatusCode: 401}, nil); retry {
		t.Error("a rejected key will not get better on retry")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if retry, err := CheckRetry(cancelled, &http.Response{StatusCode: 503}, nil); retry || err == nil {
		t.Error("cancelled context must stop retries with an error")
	}
}

func TestBackoff(t *testing.T) {
	resp := &http.Response{StatusCode: 429, Header: http.Header{}}
	resp.Header.Set("Retry-After", "3")
	if got := Backoff(time.Millisecond, time.Second, 0, resp); got != 3*time.Second {
		t.Errorf("expected Retry-After of 3s to win, got %v", got)
	}

	resp.Header.Set("Retry-After", "3600")
	if got := Backoff(time.Millisecond, time.Second, 0, resp); got != constants.RetryAfterMax {
		t.Errorf("expected Retry-After capped at %v, got %v", constants.RetryAfterMax, got)
	}

	for attempt := 0; attempt < 10; attempt++ {
		got := Backoff(10*time.Millisecond, 100*time.Millisecond, attempt, &http.Response{StatusCode: 500})
		if got < 10*time.Millisecond || got > 100*time.Millisecond {
			t.Errorf("attempt %d: backoff %v outside [10ms, 100ms]", attempt, got)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	if d, ok := ParseRetryAfter("7", now); !ok || d != 7*time.Second {
		t.Errorf("seconds form: got %v, %v", d, ok)
	}
	if d, ok := ParseRetryAfter("Mon, 01 Jan 2024 12:00:30 GMT", now); !ok || d != 30*time.Second {
		t.Errorf("date form: got %v, %v", d, ok)
	}
	if _, ok := ParseRetryAfter("", now); ok {
		t.Error("empty header should not parse")
	}
	if _, ok := ParseRetryAfter("soon", now); ok {
		t.Error("garbage should not parse")
	}
}

func TestCalculateBackoff(t *testing.T) {
	if got := CalculateBackoff(0, time.Second, 10*time.Second); got != 0 {
		t.Errorf("attempt 0 should not wait, got %v", got)
	}
	for i := 0; i < 50; i++ {
		if got := CalculateBackoff(10, time.Second, 2*time.Second); got >= 2*time.Second {
			t.Fatalf("backoff %v exceeds max delay", got)
		}
	}
}

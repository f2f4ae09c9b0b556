package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/breachnotifier/breach-notifier/internal/breach"
	"github.com/breachnotifier/breach-notifier/internal/cli"
)

func TestRunExitCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantStderr string
	}{
		{"clean", nil, exitClean, ""},
		{"compromised", breach.ErrCompromised, exitCompromised, ""},
		{"wrapped compromised", fmt.Errorf("email: %w", breach.ErrCompromised), exitCompromised, ""},
		{"lookup failed is not reported twice", cli.ErrLookupFailed, exitError, ""},
		{"other error", errors.New("invalid configuration"), exitError, "Error: invalid configuration\n"},
		{"cancelled", context.Canceled, exitError, "Error: context canceled\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			code := run(func() error { return tt.err }, &stderr)
			if code != tt.wantCode {
				t.Errorf("run() = %d, want %d", code, tt.wantCode)
			}
			if stderr.String() != tt.wantStderr {
				t.Errorf("stderr = %q, want %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}

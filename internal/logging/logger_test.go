package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestWithLookupID(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	child, id := l.WithLookupID()
	if id == "" {
		t.Fatal("WithLookupID() returned empty id")
	}
	child.Warn().Msg("slow response")

	out := buf.String()
	if !strings.Contains(out, id) {
		t.Errorf("log line %q does not carry lookup id %s", out, id)
	}
	if !strings.Contains(out, "slow response") {
		t.Errorf("log line %q missing message", out)
	}

	_, other := l.WithLookupID()
	if other == id {
		t.Error("lookup ids must be unique")
	}
}

func TestDebugSuppressedByDefault(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	l.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug output written at default level: %q", buf.String())
	}
}

func TestWithProvider(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf).WithProvider("hibp").Warn().Msg("rate limited")

	if !strings.Contains(buf.String(), "hibp") {
		t.Errorf("log line %q does not carry the provider", buf.String())
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error().Msg("discarded")
	l.WithProvider("hibp").Warn().Msg("discarded")
}

// Package breach runs email and password lookups against the configured
// services and turns their answers into results the CLI can report.
package breach

import (
	"errors"

	"github.com/breachnotifier/breach-notifier/internal/api"
	"github.com/breachnotifier/breach-notifier/internal/strength"
)

// ErrCompromised is returned by commands whose lookup found the email or
// password in a breach. The CLI maps it to exit code 2.
var ErrCompromised = errors.New("found in a known data breach")

// ErrUnknownProvider is returned for a password provider with no client.
var ErrUnknownProvider = errors.New("unknown password provider")

// Status is the outcome of a lookup.
type Status int

const (
	// StatusUnknown means the service could not answer (network or API error).
	StatusUnknown Status = iota
	// StatusClean means the service has no record of the input.
	StatusClean
	// StatusBreached means the input appears in at least one breach.
	StatusBreached
)

func (s Status) String() string {
	switch s {
	case StatusClean:
		return "clean"
	case StatusBreached:
		return "breached"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name in JSON output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Breach is a breach record normalized across providers. Description is
// plain text.
type Breach struct {
	Name        string   `json:"name"`
	Title       string   `json:"title,omitempty"`
	Domain      string   `json:"domain,omitempty"`
	BreachDate  string   `json:"breach_date,omitempty"`
	PwnCount    int64    `json:"pwn_count,omitempty"`
	Description string   `json:"description,omitempty"`
	DataClasses []string `json:"data_classes"`
	IsVerified  bool     `json:"is_verified"`
	IsSensitive bool     `json:"is_sensitive,omitempty"`
	IsSpamList  bool     `json:"is_spam_list,omitempty"`
}

// EmailResult is the outcome of CheckEmail.
type EmailResult struct {
	LookupID string      `json:"lookup_id"`
	Email    string      `json:"email"`
	Provider string      `json:"provider"`
	Status   Status      `json:"status"`
	Breaches []Breach    `json:"breaches"`
	Pastes   []api.Paste `json:"pastes,omitempty"`

	// FellBack is set when the answer came from the fallback provider.
	FellBack       bool   `json:"fell_back,omitempty"`
	FallbackReason string `json:"fallback_reason,omitempty"`

	// Err is set when Status is StatusUnknown.
	Err error `json:"-"`
	// PasteErr is set when the paste lookup failed; the breach answer still stands.
	PasteErr error `json:"-"`
}

// PasswordResult is the outcome of CheckPassword. The password itself is never stored.
type PasswordResult struct {
	LookupID string           `json:"lookup_id"`
	Provider string           `json:"provider"`
	Status   Status           `json:"status"`
	Count    int64            `json:"count"`
	Strength *strength.Result `json:"strength,omitempty"`

	// Err is set when Status is StatusUnknown.
	Err error `json:"-"`
}

// Compromised reports whether any of the statuses is StatusBreached.
func Compromised(statuses ...Status) bool {
	for _, s := range statuses {
		if s == StatusBreached {
			return true
		}
	}
	return false
}

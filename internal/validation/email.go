// Package validation checks user input before it is sent to a breach service.
package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/net/idna"
)

// maxEmailLength is the longest address SMTP allows (RFC 5321 path limit).
const maxEmailLength = 254

var (
	// ErrInvalidEmail is returned for anything that is not a bare email address.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrEmptyPassword is returned when the password is empty.
	ErrEmptyPassword = errors.New("password cannot be empty")
)

// ValidateEmail validates an email address and returns it normalized:
// invisible characters and surrounding whitespace removed, the domain
// lowercased in ASCII
// (internationalized domains are converted to punycode).
//
// The address must:
//   - contain both "@" and "."
//   - parse as a bare address (no display name, no angle brackets)
//   - have a domain with at least one dot that converts via IDNA
func ValidateEmail(s string) (string, error) {
	s = CleanField(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidEmail)
	}
	if !strings.Contains(s, "@") || !strings.Contains(s, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, s)
	}
	if len(s) > maxEmailLength {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidEmail, maxEmailLength)
	}

	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Name != "" || addr.Address != s {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, s)
	}

	at := strings.LastIndex(s, "@")
	local, domain := s[:at], s[at+1:]
	if local == "" || !strings.Contains(domain, ".") || strings.HasSuffix(domain, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, s)
	}

	asciiDomain, err := idna.Lookup.ToASCII(domain)
	if err != nil {
		return "", fmt.Errorf("%w: bad domain %q: %v", ErrInvalidEmail, domain, err)
	}

	return local + "@" + strings.ToLower(asciiDomain), nil
}

// Package ratelimit provides rate limiting constants for the breach API scopes.
package ratelimit

import "time"

// Service rate limits
//
// HIBP enforces a per-key requests-per-minute budget that depends on the
// subscription (Pwned 1 = 10 RPM). The configured value replaces
// DefaultHIBPRatePerMinute. Pwned Passwords has no published limit but is
// served from a CDN; we still pace it so a runaway loop cannot hammer it.
// LeakCheck's public API allows roughly one request per second.
const (
	// DefaultHIBPRatePerMinute matches the entry-level HIBP subscription.
	DefaultHIBPRatePerMinute = 10

	// PwnedPasswordsRatePerSec is a courtesy limit for the range API.
	PwnedPasswordsRatePerSec = 10.0

	// LeakCheckPublicRatePerSec is the public API limit.
	LeakCheckPublicRatePerSec = 1.0

	// XposedOrNotRatePerSec is a courtesy limit for the anonymous password API.
	XposedOrNotRatePerSec = 2.0

	// DefaultRatePerSec applies to hosts no rule matches.
	DefaultRatePerSec = 5.0
)

// Burst capacities
//
// An interactive session issues one request at a time, so bursts only matter
// for retries. HIBP gets a burst of 1: its budget is per minute and a retry
// storm would burn the whole minute.
const (
	HIBPBurstCapacity           = 1
	PwnedPasswordsBurstCapacity = 10
	LeakCheckBurstCapacity      = 1
	XposedOrNotBurstCapacity    = 2
	DefaultBurstCapacity        = 5
)

// Warning thresholds
const (
	// WarnWaitThreshold - waits longer than this are announced to the user
	WarnWaitThreshold = 2 * time.Second

	// WarnInterval - minimum time between two wait warnings
	WarnInterval = 10 * time.Second
)

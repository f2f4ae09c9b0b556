// Package constants holds endpoints, defaults and timeouts shared across packages.
package constants

import (
	"time"
)

// Service endpoints
const (
	// HIBPBaseURL - Have I Been Pwned v3 API (email breaches, pastes; requires a key)
	HIBPBaseURL = "https://haveibeenpwned.com/api/v3"

	// PwnedPasswordsBaseURL - k-anonymity password range API (no key)
	PwnedPasswordsBaseURL = "https://api.pwnedpasswords.com"

	// LeakCheckBaseURL - email fallback. Public API needs no key, v2 needs X-API-Key.
	LeakCheckBaseURL = "https://leakcheck.io"

	// XposedOrNotPasswordsBaseURL - alternative k-anonymity password API (Keccak-512 prefix)
	XposedOrNotPasswordsBaseURL = "https://passwords.xposedornot.com"

	// APIKeyURL - where users obtain a HIBP key
	APIKeyURL = "https://haveibeenpwned.com/API/Key"
)

// Provider names. These double as keys of the API-key mapping and as
// section names in the config file.
const (
	ProviderHIBP           = "hibp"
	ProviderLeakCheck      = "leakcheck"
	ProviderPwnedPasswords = "pwnedpasswords"
	ProviderXposedOrNot    = "xposedornot"
)

// Password hashing
const (
	// RangePrefixLength - SHA-1 hex characters sent to the range API
	RangePrefixLength = 5

	// XposedOrNotPrefixLength - Keccak-512 hex characters sent to XposedOrNot
	XposedOrNotPrefixLength = 10
)

// Request defaults
const (
	// DefaultRequestTimeout - per-lookup timeout, retries included (30 seconds)
	DefaultRequestTimeout = 30 * time.Second

	// DefaultMaxRetries - retries after the first attempt
	DefaultMaxRetries = 3

	// RetryWaitMin - minimum backoff between retries
	RetryWaitMin = 500 * time.Millisecond

	// RetryWaitMax - maximum backoff between retries (Retry-After may exceed it, capped by RetryAfterMax)
	RetryWaitMax = 8 * time.Second

	// RetryAfterMax - longest Retry-After we are willing to honour before giving up
	RetryAfterMax = 20 * time.Second

	// MaxResponseBytes - upper bound on a response body we will read (range responses are ~30 KB padded)
	MaxResponseBytes = 4 * 1024 * 1024
)

// HTTP Client Timeouts
const (
	// HTTPIdleConnTimeout - how long to keep idle connections open (90 seconds)
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for TLS handshake (15 seconds)
	HTTPTLSHandshakeTimeout = 15 * time.Second

	// HTTPExpectContinueTimeout - timeout for 100-continue response (1 second)
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPDialTimeout - timeout for establishing connection (10 seconds)
	HTTPDialTimeout = 10 * time.Second

	// HTTPDialKeepAlive - keep-alive period for dialer (30 seconds)
	HTTPDialKeepAlive = 30 * time.Second

	// ProxyWarmupTimeout - timeout for the optional proxy warmup request
	ProxyWarmupTimeout = 15 * time.Second
)

// Environment variables
const (
	// EnvPrefix - API keys are read from BDN_<PROVIDER>_API_KEY
	EnvPrefix = "BDN_"

	// EnvHIBPAPIKey - conventional variable name also honoured for the HIBP key
	EnvHIBPAPIKey = "HIBP_API_KEY"

	// EnvConfigPath - overrides the default config file location
	EnvConfigPath = "BDN_CONFIG"

	// EnvProxyPassword - proxy password for basic/ntlm modes when stdin is not a terminal
	EnvProxyPassword = "BDN_PROXY_PASSWORD"
)

// KeyringService is the service name API keys are stored under in the OS keyring.
const KeyringService = "breach-notifier"

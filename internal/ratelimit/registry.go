package ratelimit

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/breachnotifier/breach-notifier/internal/constants"
	"github.com/breachnotifier/breach-notifier/internal/logging"
)

// Scope identifies a throttle budget shared by a group of endpoints.
type Scope string

const (
	// ScopeHIBP covers every haveibeenpwned.com/api/v3 call made with one key.
	ScopeHIBP Scope = constants.ProviderHIBP

	// ScopePwnedPasswords covers the range API.
	ScopePwnedPasswords Scope = constants.ProviderPwnedPasswords

	// ScopeLeakCheck covers both the public and v2 LeakCheck APIs.
	ScopeLeakCheck Scope = constants.ProviderLeakCheck

	// ScopeXposedOrNot covers the anonymous password API.
	ScopeXposedOrNot Scope = constants.ProviderXposedOrNot

	// ScopeDefault applies when no rule matches.
	ScopeDefault Scope = "default"
)

// ScopeConfig holds the rate limit configuration for a single scope.
type ScopeConfig struct {
	Scope         Scope
	RatePerSec    float64
	BurstCapacity int
}

// EndpointRule maps a host (and optional path prefix) to its throttle scope.
type EndpointRule struct {
	// Host is matched case-insensitively against the request host (port included if present).
	Host string

	// PathPrefix restricts the rule to paths starting with it, or "" for any path.
	PathPrefix string

	Scope Scope
}

// specificity returns a score for rule precedence. Higher = more specific.
func (r EndpointRule) specificity() int {
	return len(r.Host)*1000 + len(r.PathPrefix)
}

// Registry is the single source of truth for endpoint-to-scope mapping,
// per-scope configuration and the limiter instances themselves.
type Registry struct {
	mu           sync.Mutex
	rules        []EndpointRule
	scopeConfigs map[Scope]ScopeConfig
	limiters     map[Scope]*RateLimiter
	logger       *logging.Logger
}

// NewRegistry creates the registry with all known service endpoints.
// hibpPerMinute is the HIBP subscription's request budget.
func NewRegistry(hibpPerMinute int, logger *logging.Logger) *Registry {
	if hibpPerMinute <= 0 {
		hibpPerMinute = DefaultHIBPRatePerMinute
	}
	if logger == nil {
		logger = logging.Nop()
	}

	r := &Registry{
		logger:   logger,
		limiters: make(map[Scope]*RateLimiter),
		scopeConfigs: map[Scope]ScopeConfig{
			ScopeHIBP: {
				Scope:         ScopeHIBP,
				RatePerSec:    float64(hibpPerMinute) / 60.0,
				BurstCapacity: HIBPBurstCapacity,
			},
			ScopePwnedPasswords: {
				Scope:         ScopePwnedPasswords,
				RatePerSec:    PwnedPasswordsRatePerSec,
				BurstCapacity: PwnedPasswordsBurstCapacity,
			},
			ScopeLeakCheck: {
				Scope:         ScopeLeakCheck,
				RatePerSec:    LeakCheckPublicRatePerSec,
				BurstCapacity: LeakCheckBurstCapacity,
			},
			ScopeXposedOrNot: {
				Scope:         ScopeXposedOrNot,
				RatePerSec:    XposedOrNotRatePerSec,
				BurstCapacity: XposedOrNotBurstCapacity,
			},
			ScopeDefault: {
				Scope:         ScopeDefault,
				RatePerSec:    DefaultRatePerSec,
				BurstCapacity: DefaultBurstCapacity,
			},
		},
	}

	r.rules = []EndpointRule{
		{Host: hostOf(constants.HIBPBaseURL), PathPrefix: "/api/v3/", Scope: ScopeHIBP},
		{Host: hostOf(constants.PwnedPasswordsBaseURL), Scope: ScopePwnedPasswords},
		{Host: hostOf(constants.LeakCheckBaseURL), Scope: ScopeLeakCheck},
		{Host: hostOf(constants.XposedOrNotPasswordsBaseURL), Scope: ScopeXposedOrNot},
	}
	r.sortRules()

	return r
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

func (r *Registry) sortRules() {
	sort.SliceStable(r.rules, func(i, j int) bool {
		return r.rules[i].specificity() > r.rules[j].specificity()
	})
}

// AddRule registers an extra endpoint rule, e.g. for a self-hosted mirror.
func (r *Registry) AddRule(rule EndpointRule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule.Host = strings.ToLower(rule.Host)
	r.rules = append(r.rules, rule)
	r.sortRules()
}

// ResolveScope determines the throttle scope for a request host and path.
// Returns ScopeDefault if no rule matches.
func (r *Registry) ResolveScope(host, path string) Scope {
	r.mu.Lock()
	defer r.mu.Unlock()

	host = strings.ToLower(host)
	for _, rule := range r.rules {
		if rule.Host != host {
			continue
		}
		if rule.PathPrefix != "" && !strings.HasPrefix(path, rule.PathPrefix) {
			continue
		}
		return rule.Scope
	}
	return ScopeDefault
}

// GetScopeConfig returns the rate limit configuration for a scope.
// Returns the default scope config if the scope is not found.
func (r *Registry) GetScopeConfig(scope Scope) ScopeConfig {
	if cfg, ok := r.scopeConfigs[scope]; ok {
		return cfg
	}
	return r.scopeConfigs[ScopeDefault]
}

// Limiter returns the shared limiter for a scope, creating it on first use.
func (r *Registry) Limiter(scope Scope) *RateLimiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rl, ok := r.limiters[scope]; ok {
		return rl
	}
	cfg := r.GetScopeConfig(scope)
	rl := NewRateLimiter(cfg.RatePerSec, cfg.BurstCapacity).WithLogger(string(scope), r.logger)
	r.limiters[scope] = rl
	return rl
}

// LimiterFor resolves the scope of a request and returns its limiter.
func (r *Registry) LimiterFor(host, path string) (Scope, *RateLimiter) {
	scope := r.ResolveScope(host, path)
	return scope, r.Limiter(scope)
}

// ScopeDisplayString returns a human-readable description of the scope for logging.
// Example: "hibp (10.0/min)"
func (r *Registry) ScopeDisplayString(scope Scope) string {
	if _, ok := r.scopeConfigs[scope]; !ok {
		return string(scope) + " (unknown scope)"
	}
	return fmt.Sprintf("%s (%.1f/min)", scope, r.GetScopeConfig(scope).RatePerSec*60)
}

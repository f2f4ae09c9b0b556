package ratelimit

import "testing"

func TestResolveScope(t *testing.T) {
	r := NewRegistry(10, nil)

	tests := []struct {
		host     string
		path     string
		expected Scope
	}{
		{"haveibeenpwned.com", "/api/v3/breachedaccount/a%40b.com", ScopeHIBP},
		{"haveibeenpwned.com", "/api/v3/subscription/status", ScopeHIBP},
		{"HaveIBeenPwned.com", "/api/v3/pasteaccount/x", ScopeHIBP},
		{"haveibeenpwned.com", "/", ScopeDefault},
		{"api.pwnedpasswords.com", "/range/21BD1", ScopePwnedPasswords},
		{"leakcheck.io", "/api/public", ScopeLeakCheck},
		{"leakcheck.io", "/api/v2/query/a@b.com", ScopeLeakCheck},
		{"passwords.xposedornot.com", "/api/v1/pass/anon/abcdef0123", ScopeXposedOrNot},
		{"example.com", "/anything", ScopeDefault},
	}

	for _, tt := range tests {
		t.Run(tt.host+tt.path, func(t *testing.T) {
			if got := r.ResolveScope(tt.host, tt.path); got != tt.expected {
				t.Errorf("ResolveScope(%q, %q) = %q, want %q", tt.host, tt.path, got, tt.expected)
			}
		})
	}
}

func TestAddRuleMoreSpecificWins(t *testing.T) {
	r := NewRegistry(10, nil)
	r.AddRule(EndpointRule{Host: "127.0.0.1:8080", Scope: ScopePwnedPasswords})
	r.AddRule(EndpointRule{Host: "127.0.0.1:8080", PathPrefix: "/api/v3/", Scope: ScopeHIBP})

	if got := r.ResolveScope("127.0.0.1:8080", "/api/v3/breachedaccount/x"); got != ScopeHIBP {
		t.Errorf("expected hibp scope, got %q", got)
	}
	if got := r.ResolveScope("127.0.0.1:8080", "/range/ABCDE"); got != ScopePwnedPasswords {
		t.Errorf("expected pwnedpasswords scope, got %q", got)
	}
}

func TestLimiterIsSharedPerScope(t *testing.T) {
	r := NewRegistry(10, nil)

	a := r.Limiter(ScopeHIBP)
	b := r.Limiter(ScopeHIBP)
	if a != b {
		t.Error("Limiter should return the same instance for a scope")
	}
	if a == r.Limiter(ScopeLeakCheck) {
		t.Error("different scopes must not share a limiter")
	}

	scope, rl := r.LimiterFor("haveibeenpwned.com", "/api/v3/breachedaccount/x")
	if scope != ScopeHIBP || rl != a {
		t.Errorf("LimiterFor returned scope %q and a different limiter", scope)
	}
}

func TestHIBPRateFollowsSubscription(t *testing.T) {
	r := NewRegistry(100, nil)
	cfg := r.GetScopeConfig(ScopeHIBP)
	if got := cfg.RatePerSec * 60; got < 99.9 || got > 100.1 {
		t.Errorf("expected 100 requests/minute, got %.2f", got)
	}

	r = NewRegistry(-1, nil)
	if got := r.GetScopeConfig(ScopeHIBP).RatePerSec * 60; got < 9.9 || got > 10.1 {
		t.Errorf("non-positive rate should fall back to the default, got %.2f", got)
	}
}

func TestScopeDisplayString(t *testing.T) {
	r := NewRegistry(10, nil)
	if got := r.ScopeDisplayString(ScopeHIBP); got != "hibp (10.0/min)" {
		t.Errorf("unexpected display string %q", got)
	}
	if got := r.ScopeDisplayString(Scope("bogus")); got != "bogus (unknown scope)" {
		t.Errorf("unexpected display string %q", got)
	}
}

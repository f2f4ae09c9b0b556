package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/breachnotifier/breach-notifier/internal/constants"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	if cfg.PasswordProvider != constants.ProviderPwnedPasswords {
		t.Errorf("expected default PasswordProvider pwnedpasswords, got %s", cfg.PasswordProvider)
	}
	if !cfg.EmailFallback {
		t.Error("expected EmailFallback to default to true")
	}
	if !cfg.PasswordPadding {
		t.Error("expected PasswordPadding to default to true")
	}
	if cfg.HIBPRatePerMinute != 10 {
		t.Errorf("expected default HIBPRatePerMinute 10, got %d", cfg.HIBPRatePerMinute)
	}
	if cfg.ProxyMode != "no-proxy" {
		t.Errorf("expected default ProxyMode no-proxy, got %s", cfg.ProxyMode)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.ini")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Path() != path {
		t.Errorf("expected Path() %s, got %s", path, cfg.Path())
	}
	if len(cfg.APIKeys) != 0 {
		t.Errorf("expected no API keys, got %v", cfg.APIKeys)
	}
}

func TestSaveAndLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.ini")

	cfg := NewConfig()
	cfg.UserAgent = "custom-agent/1.0"
	cfg.Timeout = 45 * time.Second
	cfg.MaxRetries = 5
	cfg.HIBPRatePerMinute = 50
	cfg.IncludeUnverified = true
	cfg.EmailFallback = false
	cfg.PasswordProvider = constants.ProviderXposedOrNot
	cfg.ProxyMode = "basic"
	cfg.ProxyHost = "proxy.corp"
	cfg.ProxyPort = 3128
	cfg.ProxyUser = "alice"
	cfg.ProxyPassword = "secret"
	if err := cfg.SetAPIKey(constants.ProviderHIBP, "hibp-key-123"); err != nil {
		t.Fatalf("SetAPIKey failed: %v", err)
	}

	if err := Save(cfg, configPath); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(configPath)
		if err != nil {
			t.Fatalf("stat failed: %v", err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("expected permissions 0600, got %04o", info.Mode().Perm())
		}
	}

	raw, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if strings.Contains(string(raw), "secret") {
		t.Error("proxy password must never be written to disk")
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.UserAgent != cfg.UserAgent {
		t.Errorf("UserAgent mismatch: expected %s, got %s", cfg.UserAgent, loaded.UserAgent)
	}
	if loaded.Timeout != cfg.Timeout {
		t.Errorf("Timeout mismatch: expected %v, got %v", cfg.Timeout, loaded.Timeout)
	}
	if loaded.HIBPRatePerMinute != 50 {
		t.Errorf("HIBPRatePerMinute mismatch: got %d", loaded.HIBPRatePerMinute)
	}
	if loaded.EmailFallback {
		t.Error("EmailFallback should be false after reload")
	}
	if loaded.PasswordProvider != constants.ProviderXposedOrNot {
		t.Errorf("PasswordProvider mismatch: got %s", loaded.PasswordProvider)
	}
	if loaded.APIKey(constants.ProviderHIBP) != "hibp-key-123" {
		t.Errorf("HIBP key mismatch: got %q", loaded.APIKey(constants.ProviderHIBP))
	}
	if loaded.ProxyPassword != "" {
		t.Error("proxy password should not be loaded")
	}
	if loaded.ProxyHost != "proxy.corp" || loaded.ProxyPort != 3128 {
		t.Errorf("proxy mismatch: %s:%d", loaded.ProxyHost, loaded.ProxyPort)
	}
}

func TestSaveWithKeyringOmitsKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.ini")

	cfg := NewConfig()
	cfg.KeyringEnabled = true
	_ = cfg.SetAPIKey(constants.ProviderHIBP, "keyring-only-key")

	if err := Save(cfg, configPath); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if strings.Contains(string(raw), "keyring-only-key") {
		t.Error("API key written to file although keyring is enabled")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"bad password provider", func(c *Config) { c.PasswordProvider = "rot13" }, ErrInvalidPasswordProvider},
		{"bad proxy mode", func(c *Config) { c.ProxyMode = "socks" }, ErrInvalidProxyMode},
		{"basic proxy without host", func(c *Config) { c.ProxyMode = "basic" }, ErrMissingProxyHost},
		{"timeout too small", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, ErrInvalidMaxRetries},
		{"zero rate", func(c *Config) { c.HIBPRatePerMinute = 0 }, ErrInvalidRate},
		{"unknown key", func(c *Config) { c.APIKeys["dehashed"] = "x" }, ErrUnknownProvider},
		{"endpoint for unknown service", func(c *Config) { c.Endpoints["dehashed"] = "https://x.example" }, ErrInvalidEndpoint},
		{"endpoint without scheme", func(c *Config) { c.Endpoints[constants.ProviderHIBP] = "mirror.example/api/v3" }, ErrInvalidEndpoint},
		{"ftp endpoint", func(c *Config) { c.Endpoints[constants.ProviderPwnedPasswords] = "ftp://mirror.example" }, ErrInvalidEndpoint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSetAPIKey(t *testing.T) {
	cfg := NewConfig()

	if err := cfg.SetAPIKey("unknown", "x"); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("expected ErrUnknownProvider, got %v", err)
	}

	_ = cfg.SetAPIKey(constants.ProviderHIBP, "  padded  ")
	if got := cfg.APIKey(constants.ProviderHIBP); got != "padded" {
		t.Errorf("expected trimmed key, got %q", got)
	}

	_ = cfg.SetAPIKey(constants.ProviderHIBP, "")
	if got := cfg.APIKey(constants.ProviderHIBP); got != "" {
		t.Errorf("empty key should remove entry, got %q", got)
	}
}

func TestRemoveAPIKey(t *testing.T) {
	cfg := NewConfig()
	_ = cfg.SetAPIKey(constants.ProviderLeakCheck, "lc")

	cfg.RemoveAPIKey(constants.ProviderLeakCheck)
	if got := cfg.APIKey(constants.ProviderLeakCheck); got != "" {
		t.Errorf("key after RemoveAPIKey = %q", got)
	}
	cfg.RemoveAPIKey(constants.ProviderLeakCheck) // removing twice is fine
}

func TestEndpointsSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.ini")

	cfg := NewConfig()
	cfg.Endpoints[constants.ProviderPwnedPasswords] = "https://pwned-mirror.example.internal"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := loaded.Endpoints[constants.ProviderPwnedPasswords]; got != "https://pwned-mirror.example.internal" {
		t.Errorf("pwnedpasswords endpoint = %q", got)
	}
	if _, ok := loaded.Endpoints[constants.ProviderHIBP]; ok {
		t.Error("unset endpoints must not be written")
	}

	u, err := EndpointURL(constants.ProviderPwnedPasswords, loaded.Endpoints[constants.ProviderPwnedPasswords])
	if err != nil {
		t.Fatalf("EndpointURL() error = %v", err)
	}
	if u.Host != "pwned-mirror.example.internal" {
		t.Errorf("EndpointURL host = %q", u.Host)
	}
}

func TestMaskedKey(t *testing.T) {
	if got := MaskedKey(""); got != "<not set>" {
		t.Errorf("MaskedKey(\"\") = %q", got)
	}
	if got := MaskedKey("abcdef"); got != "<set (6 chars)>" {
		t.Errorf("MaskedKey(abcdef) = %q", got)
	}
}

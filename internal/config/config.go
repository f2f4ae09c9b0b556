package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/breachnotifier/breach-notifier/internal/constants"
)

// Config is the runtime configuration. It is loaded from an INI file, then
// mutated by flags and by the interactive menu. Nothing is written back
// unless Save is called explicitly.
//
// INI format:
//
//	[client]
//	user_agent = DataBreachNotifier/v1.2.0
//	timeout_seconds = 30
//	max_retries = 3
//
//	[hibp]
//	api_key = <key>
//	rate_per_minute = 10
//	include_unverified = false
//
//	[leakcheck]
//	api_key =
//
//	[email]
//	fallback = true
//
//	[passwords]
//	provider = pwnedpasswords
//	padding = true
//	strength = true
//
//	[proxy]
//	mode = no-proxy
//	host =
//	port = 8080
//	user =
//	no_proxy =
//	warmup = false
//
//	[keyring]
//	enabled = false
//
//	[endpoints]
//	pwnedpasswords = https://pwned-mirror.example.internal
type Config struct {
	// APIKeys maps a provider name (constants.Provider*) to its API key.
	// This is the session's credential state.
	APIKeys map[string]string

	// Client settings
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int

	// HIBP settings
	HIBPRatePerMinute int
	IncludeUnverified bool

	// Email lookups fall back from HIBP to LeakCheck when HIBP cannot answer.
	EmailFallback bool

	// Password settings
	PasswordProvider string
	PasswordPadding  bool
	PasswordStrength bool

	// Proxy settings
	ProxyMode     string // "no-proxy", "system", "basic", "ntlm"
	ProxyHost     string
	ProxyPort     int
	ProxyUser     string
	ProxyPassword string // never persisted
	NoProxy       string // Comma-separated list of hosts to bypass proxy
	ProxyWarmup   bool

	// KeyringEnabled stores API keys in the OS keyring instead of the INI file.
	KeyringEnabled bool

	// Endpoints maps a provider to a mirror base URL replacing its public API.
	Endpoints map[string]string

	// path is where the config was loaded from ("" for defaults only).
	path string
}

// Validation errors
var (
	ErrUnknownProvider         = errors.New("unknown provider")
	ErrInvalidPasswordProvider = errors.New("passwords.provider must be pwnedpasswords or xposedornot")
	ErrInvalidProxyMode        = errors.New("proxy.mode must be no-proxy, system, basic or ntlm")
	ErrMissingProxyHost        = errors.New("proxy.host is required for basic and ntlm proxy modes")
	ErrInvalidTimeout          = errors.New("client.timeout_seconds must be between 1 and 300")
	ErrInvalidMaxRetries       = errors.New("client.max_retries must be between 0 and 10")
	ErrInvalidRate             = errors.New("hibp.rate_per_minute must be between 1 and 1000")
	ErrInvalidEndpoint         = errors.New("endpoints entries must be http(s) URLs of a known provider")
)

// KnownProviders lists providers that accept an API key.
var KnownProviders = []string{constants.ProviderHIBP, constants.ProviderLeakCheck}

// EndpointProviders lists the services whose base URL can be overridden.
var EndpointProviders = []string{
	constants.ProviderHIBP,
	constants.ProviderLeakCheck,
	constants.ProviderPwnedPasswords,
	constants.ProviderXposedOrNot,
}

// IsKnownProvider reports whether name is a provider that accepts an API key.
func IsKnownProvider(name string) bool {
	for _, p := range KnownProviders {
		if p == name {
			return true
		}
	}
	return false
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		APIKeys:           make(map[string]string),
		Endpoints:         make(map[string]string),
		Timeout:           constants.DefaultRequestTimeout,
		MaxRetries:        constants.DefaultMaxRetries,
		HIBPRatePerMinute: 10,
		EmailFallback:     true,
		PasswordProvider:  constants.ProviderPwnedPasswords,
		PasswordPadding:   true,
		PasswordStrength:  true,
		ProxyMode:         "no-proxy",
		ProxyPort:         8080,
	}
}

// Load loads configuration from an INI file.
// If the file doesn't exist, returns a config with default values and no error.
// If the file exists but is invalid, returns an error.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		path = GetDefaultConfigPath()
	}
	cfg.path = path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // Return defaults if config doesn't exist
	}
	checkPermissions(path)

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	client := iniFile.Section("client")
	cfg.UserAgent = client.Key("user_agent").String()
	cfg.Timeout = time.Duration(client.Key("timeout_seconds").MustInt(int(constants.DefaultRequestTimeout/time.Second))) * time.Second
	cfg.MaxRetries = client.Key("max_retries").MustInt(constants.DefaultMaxRetries)

	hibp := iniFile.Section(constants.ProviderHIBP)
	if key := strings.TrimSpace(hibp.Key("api_key").String()); key != "" {
		cfg.APIKeys[constants.ProviderHIBP] = key
	}
	cfg.HIBPRatePerMinute = hibp.Key("rate_per_minute").MustInt(10)
	cfg.IncludeUnverified = hibp.Key("include_unverified").MustBool(false)

	leakcheck := iniFile.Section(constants.ProviderLeakCheck)
	if key := strings.TrimSpace(leakcheck.Key("api_key").String()); key != "" {
		cfg.APIKeys[constants.ProviderLeakCheck] = key
	}

	cfg.EmailFallback = iniFile.Section("email").Key("fallback").MustBool(true)

	passwords := iniFile.Section("passwords")
	cfg.PasswordProvider = passwords.Key("provider").MustString(constants.ProviderPwnedPasswords)
	cfg.PasswordPadding = passwords.Key("padding").MustBool(true)
	cfg.PasswordStrength = passwords.Key("strength").MustBool(true)

	proxy := iniFile.Section("proxy")
	cfg.ProxyMode = proxy.Key("mode").MustString("no-proxy")
	cfg.ProxyHost = proxy.Key("host").String()
	cfg.ProxyPort = proxy.Key("port").MustInt(8080)
	cfg.ProxyUser = proxy.Key("user").String()
	cfg.NoProxy = proxy.Key("no_proxy").String()
	cfg.ProxyWarmup = proxy.Key("warmup").MustBool(false)
	if proxy.HasKey("password") && proxy.Key("password").String() != "" {
		// SECURITY: proxy passwords are entered at runtime only
		fmt.Fprintln(os.Stderr, "Warning: proxy.password in config file is ignored - enter it when prompted")
	}

	cfg.KeyringEnabled = iniFile.Section("keyring").Key("enabled").MustBool(false)

	for _, key := range iniFile.Section("endpoints").Keys() {
		if v := strings.TrimSpace(key.String()); v != "" {
			cfg.Endpoints[strings.ToLower(key.Name())] = v
		}
	}

	return cfg, nil
}

// Save writes the configuration to an INI file.
// Creates parent directories if they don't exist. API keys are written only
// when the keyring is disabled; the proxy password is never written.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = cfg.Path()
	}
	if path == "" {
		path = GetDefaultConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	client, err := iniFile.NewSection("client")
	if err != nil {
		return fmt.Errorf("failed to create client section: %w", err)
	}
	client.Key("user_agent").SetValue(cfg.UserAgent)
	client.Key("timeout_seconds").SetValue(fmt.Sprintf("%d", int(cfg.Timeout/time.Second)))
	client.Key("max_retries").SetValue(fmt.Sprintf("%d", cfg.MaxRetries))

	hibp, err := iniFile.NewSection(constants.ProviderHIBP)
	if err != nil {
		return fmt.Errorf("failed to create hibp section: %w", err)
	}
	hibp.Key("rate_per_minute").SetValue(fmt.Sprintf("%d", cfg.HIBPRatePerMinute))
	hibp.Key("include_unverified").SetValue(fmt.Sprintf("%t", cfg.IncludeUnverified))

	leakcheck, err := iniFile.NewSection(constants.ProviderLeakCheck)
	if err != nil {
		return fmt.Errorf("failed to create leakcheck section: %w", err)
	}

	if !cfg.KeyringEnabled {
		hibp.Key("api_key").SetValue(cfg.APIKeys[constants.ProviderHIBP])
		leakcheck.Key("api_key").SetValue(cfg.APIKeys[constants.ProviderLeakCheck])
	}

	email, err := iniFile.NewSection("email")
	if err != nil {
		return fmt.Errorf("failed to create email section: %w", err)
	}
	email.Key("fallback").SetValue(fmt.Sprintf("%t", cfg.EmailFallback))

	passwords, err := iniFile.NewSection("passwords")
	if err != nil {
		return fmt.Errorf("failed to create passwords section: %w", err)
	}
	passwords.Key("provider").SetValue(cfg.PasswordProvider)
	passwords.Key("padding").SetValue(fmt.Sprintf("%t", cfg.PasswordPadding))
	passwords.Key("strength").SetValue(fmt.Sprintf("%t", cfg.PasswordStrength))

	proxy, err := iniFile.NewSection("proxy")
	if err != nil {
		return fmt.Errorf("failed to create proxy section: %w", err)
	}
	proxy.Key("mode").SetValue(cfg.ProxyMode)
	proxy.Key("host").SetValue(cfg.ProxyHost)
	proxy.Key("port").SetValue(fmt.Sprintf("%d", cfg.ProxyPort))
	proxy.Key("user").SetValue(cfg.ProxyUser)
	proxy.Key("no_proxy").SetValue(cfg.NoProxy)
	proxy.Key("warmup").SetValue(fmt.Sprintf("%t", cfg.ProxyWarmup))

	keyring, err := iniFile.NewSection("keyring")
	if err != nil {
		return fmt.Errorf("failed to create keyring section: %w", err)
	}
	keyring.Key("enabled").SetValue(fmt.Sprintf("%t", cfg.KeyringEnabled))

	if len(cfg.Endpoints) > 0 {
		endpoints, err := iniFile.NewSection("endpoints")
		if err != nil {
			return fmt.Errorf("failed to create endpoints section: %w", err)
		}
		for _, provider := range EndpointProviders {
			if v := cfg.Endpoints[provider]; v != "" {
				endpoints.Key(provider).SetValue(v)
			}
		}
	}

	// Use temporary file + rename for atomicity
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	// Set restrictive permissions (API keys are sensitive)
	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	cfg.path = path
	return nil
}

// Path returns the file this config was loaded from or last saved to.
func (cfg *Config) Path() string {
	return cfg.path
}

// Validate checks option ranges and enumerations.
func (cfg *Config) Validate() error {
	switch cfg.PasswordProvider {
	case constants.ProviderPwnedPasswords, constants.ProviderXposedOrNot:
	default:
		return ErrInvalidPasswordProvider
	}

	switch strings.ToLower(cfg.ProxyMode) {
	case "", "no-proxy", "system":
	case "basic", "ntlm":
		if strings.TrimSpace(cfg.ProxyHost) == "" {
			return ErrMissingProxyHost
		}
	default:
		return ErrInvalidProxyMode
	}

	if cfg.Timeout < time.Second || cfg.Timeout > 300*time.Second {
		return ErrInvalidTimeout
	}
	if cfg.MaxRetries < 0 || cfg.MaxRetries > 10 {
		return ErrInvalidMaxRetries
	}
	if cfg.HIBPRatePerMinute < 1 || cfg.HIBPRatePerMinute > 1000 {
		return ErrInvalidRate
	}

	for name := range cfg.APIKeys {
		if !IsKnownProvider(name) {
			return fmt.Errorf("%w: %s", ErrUnknownProvider, name)
		}
	}

	for name, endpoint := range cfg.Endpoints {
		if _, err := EndpointURL(name, endpoint); err != nil {
			return err
		}
	}
	return nil
}

// EndpointURL parses a mirror base URL configured for provider.
func EndpointURL(provider, endpoint string) (*url.URL, error) {
	known := false
	for _, p := range EndpointProviders {
		if p == provider {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEndpoint, provider)
	}
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %s = %q", ErrInvalidEndpoint, provider, endpoint)
	}
	return u, nil
}

// EffectiveUserAgent returns the configured User-Agent or the build default.
func (cfg *Config) EffectiveUserAgent(fallback string) string {
	if strings.TrimSpace(cfg.UserAgent) != "" {
		return cfg.UserAgent
	}
	return fallback
}

// APIKey returns the session key for a provider ("" if unset).
func (cfg *Config) APIKey(provider string) string {
	if cfg.APIKeys == nil {
		return ""
	}
	return cfg.APIKeys[provider]
}

// SetAPIKey sets the session key for a provider. An empty key removes it.
func (cfg *Config) SetAPIKey(provider, key string) error {
	if !IsKnownProvider(provider) {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		cfg.RemoveAPIKey(provider)
		return nil
	}
	if cfg.APIKeys == nil {
		cfg.APIKeys = make(map[string]string)
	}
	cfg.APIKeys[provider] = key
	return nil
}

// RemoveAPIKey drops a provider's key from the session.
func (cfg *Config) RemoveAPIKey(provider string) {
	delete(cfg.APIKeys, provider)
}

// ConfiguredProviders returns the providers that currently have a key, sorted.
func (cfg *Config) ConfiguredProviders() []string {
	names := make([]string, 0, len(cfg.APIKeys))
	for name, key := range cfg.APIKeys {
		if key != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// MaskedKey describes a key without revealing any of it.
func MaskedKey(key string) string {
	if key == "" {
		return "<not set>"
	}
	return fmt.Sprintf("<set (%d chars)>", len(key))
}

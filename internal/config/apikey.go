package config

import (
	"os"
	"strings"

	"github.com/breachnotifier/breach-notifier/internal/constants"
)

// Key sources reported by ResolveAPIKeySource.
const (
	SourceFlag        = "flag"
	SourceSession     = "config"
	SourceKeyring     = "keyring"
	SourceEnvironment = "environment"
)

// ResolveAPIKeySource returns a provider's API key and the source it came from.
//
// Priority (highest to lowest):
//  1. flag (e.g. --hibp-api-key)
//  2. config (session mapping, loaded from the INI file or set in the menu)
//  3. keyring (OS keyring, when kr is non-nil)
//  4. environment (BDN_<PROVIDER>_API_KEY, then HIBP_API_KEY for hibp)
//
// Returns ("", "") if no key is found.
func ResolveAPIKeySource(provider, flagValue string, cfg *Config, kr Keyring) (string, string) {
	if key := strings.TrimSpace(flagValue); key != "" {
		return key, SourceFlag
	}

	if cfg != nil {
		if key := cfg.APIKey(provider); key != "" {
			return key, SourceSession
		}
	}

	if kr != nil {
		if key, err := kr.Get(provider); err == nil && key != "" {
			return key, SourceKeyring
		}
	}

	if key := strings.TrimSpace(os.Getenv(EnvVarForProvider(provider))); key != "" {
		return key, SourceEnvironment
	}
	if provider == constants.ProviderHIBP {
		if key := strings.TrimSpace(os.Getenv(constants.EnvHIBPAPIKey)); key != "" {
			return key, SourceEnvironment
		}
	}

	return "", ""
}

// EnvVarForProvider returns the environment variable holding a provider's key,
// e.g. BDN_HIBP_API_KEY.
func EnvVarForProvider(provider string) string {
	return constants.EnvPrefix + strings.ToUpper(provider) + "_API_KEY"
}

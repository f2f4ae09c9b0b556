package cli

import (
	"context"
	"fmt"
	nethttp "net/http"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/breachnotifier/breach-notifier/internal/api"
	"github.com/breachnotifier/breach-notifier/internal/breach"
	"github.com/breachnotifier/breach-notifier/internal/config"
	"github.com/breachnotifier/breach-notifier/internal/constants"
	bnhttp "github.com/breachnotifier/breach-notifier/internal/http"
	"github.com/breachnotifier/breach-notifier/internal/logging"
	"github.com/breachnotifier/breach-notifier/internal/progress"
	"github.com/breachnotifier/breach-notifier/internal/ratelimit"
	"github.com/breachnotifier/breach-notifier/internal/report"
	"github.com/breachnotifier/breach-notifier/internal/version"
)

// loadConfig loads the config file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if timeout > 0 {
		cfg.Timeout = timeout
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// session holds what one CLI invocation shares across lookups: the loaded
// config (whose APIKeys are the session keys), the optional OS keyring and
// a single HTTP client, so rate limits and the cache span the whole session.
type session struct {
	cfg      *config.Config
	keyring  config.Keyring
	flagKeys map[string]string
	client   *nethttp.Client
	logger   *logging.Logger
	progress progress.Reporter

	emailOpts    breach.EmailOptions
	passwordOpts breach.PasswordOptions

	// removed tracks keys cleared this session so SaveKeys can delete them
	// from the keyring.
	removed map[string]bool
}

// newSession loads configuration and builds the HTTP client stack.
func newSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := GetLogger()

	if err := resolveProxyPassword(cfg); err != nil {
		return nil, err
	}

	registry := ratelimit.NewRegistry(cfg.HIBPRatePerMinute, log)
	if err := addEndpointRules(registry, cfg); err != nil {
		return nil, err
	}
	client, err := bnhttp.NewAPIClient(cfg, log, registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	s := &session{
		cfg:    cfg,
		client: client,
		logger: log,
		flagKeys: map[string]string{
			constants.ProviderHIBP:      hibpAPIKey,
			constants.ProviderLeakCheck: leakCheckAPIKey,
		},
		progress: progress.New(os.Stderr, outputFormat != report.FormatJSON),
		emailOpts: breach.EmailOptions{
			IncludeUnverified: cfg.IncludeUnverified,
			Fallback:          cfg.EmailFallback,
			Timeout:           cfg.Timeout,
		},
		passwordOpts: breach.PasswordOptions{
			Provider: cfg.PasswordProvider,
			Strength: cfg.PasswordStrength,
			Timeout:  cfg.Timeout,
		},
	}
	if cfg.KeyringEnabled {
		s.keyring = newKeyring()
	}

	for _, provider := range config.KnownProviders {
		if _, source := s.APIKey(provider); source != "" {
			log.Debug().Str("provider", provider).Str("source", source).Msg("Using API key")
		}
	}
	return s, nil
}

// addEndpointRules throttles each configured mirror like the service it
// replaces.
func addEndpointRules(registry *ratelimit.Registry, cfg *config.Config) error {
	for provider, endpoint := range cfg.Endpoints {
		u, err := config.EndpointURL(provider, endpoint)
		if err != nil {
			return err
		}
		registry.AddRule(ratelimit.EndpointRule{
			Host:       u.Host,
			PathPrefix: strings.TrimSuffix(u.Path, "/"),
			Scope:      ratelimit.Scope(provider),
		})
	}
	return nil
}

// resolveProxyPassword fills in the proxy password for basic/ntlm proxies,
// from BDN_PROXY_PASSWORD or a hidden prompt.
func resolveProxyPassword(cfg *config.Config) error {
	if !bnhttp.NeedsProxyPassword(cfg) {
		return nil
	}
	if pw := os.Getenv(constants.EnvProxyPassword); pw != "" {
		cfg.ProxyPassword = pw
		return nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("proxy user %s needs a password: set %s", cfg.ProxyUser, constants.EnvProxyPassword)
	}
	pw, err := readHidden(os.Stderr, fmt.Sprintf("Proxy password for %s@%s: ", cfg.ProxyUser, cfg.ProxyHost))
	if err != nil {
		return err
	}
	cfg.ProxyPassword = pw
	return nil
}

// APIKey resolves a provider's key and reports where it came from. A key
// cleared this session hides the keyring and environment for the rest of it.
func (s *session) APIKey(provider string) (string, string) {
	if s.removed[provider] {
		return "", ""
	}
	return config.ResolveAPIKeySource(provider, s.flagKeys[provider], s.cfg, s.keyring)
}

func (s *session) clientOptions(provider string) api.ClientOptions {
	key, _ := s.APIKey(provider)
	return api.ClientOptions{
		HTTPClient: s.client,
		BaseURL:    s.cfg.Endpoints[provider],
		APIKey:     key,
		UserAgent:  s.cfg.EffectiveUserAgent(version.UserAgent()),
		Logger:     s.logger.WithProvider(provider),
	}
}

// notifier builds the lookup service from the keys current at call time,
// so keys entered in the menu apply to the next lookup.
func (s *session) notifier() *breach.Notifier {
	hibp := api.NewHIBPClient(s.clientOptions(constants.ProviderHIBP))
	leakCheck := api.NewLeakCheckClient(s.clientOptions(constants.ProviderLeakCheck))
	passwords := map[string]breach.PasswordSource{
		constants.ProviderPwnedPasswords: api.NewPwnedPasswordsClient(s.clientOptions(constants.ProviderPwnedPasswords), s.cfg.PasswordPadding),
		constants.ProviderXposedOrNot:    api.NewXposedOrNotClient(s.clientOptions(constants.ProviderXposedOrNot)),
	}
	return breach.NewNotifier(hibp, leakCheck, passwords, s.logger)
}

// CheckEmail runs one email lookup. Each service call is bounded by the
// configured timeout.
func (s *session) CheckEmail(ctx context.Context, email string) breach.EmailResult {
	s.progress.Start("Checking breach databases...")
	defer s.progress.Finish()
	return s.notifier().CheckEmail(ctx, email, s.emailOpts)
}

// CheckPassword runs one password lookup bounded by the configured timeout.
func (s *session) CheckPassword(ctx context.Context, password string) breach.PasswordResult {
	s.progress.Start("Checking password hash prefix...")
	defer s.progress.Finish()
	return s.notifier().CheckPassword(ctx, password, s.passwordOpts)
}

// KeyStatus returns a provider's current key and its source.
func (s *session) KeyStatus(provider string) (string, string) {
	return s.APIKey(provider)
}

// SetKey changes a session key. An empty key removes it. A flag value for the
// same provider would shadow the change, so it is cleared too.
func (s *session) SetKey(provider, key string) error {
	if !config.IsKnownProvider(provider) {
		return fmt.Errorf("%w: %s", config.ErrUnknownProvider, provider)
	}
	cleared := strings.TrimSpace(key) == ""
	if cleared {
		s.cfg.RemoveAPIKey(provider)
	} else if err := s.cfg.SetAPIKey(provider, key); err != nil {
		return err
	}
	delete(s.flagKeys, provider)
	if s.removed == nil {
		s.removed = make(map[string]bool)
	}
	s.removed[provider] = cleared
	return nil
}

// SaveKeys persists the session keys to the keyring or the config file and
// returns where they went.
func (s *session) SaveKeys() (string, error) {
	if s.keyring != nil {
		for _, provider := range config.KnownProviders {
			if key := s.cfg.APIKey(provider); key != "" {
				if err := s.keyring.Set(provider, key); err != nil {
					return "", err
				}
			} else if s.removed[provider] {
				if err := s.keyring.Delete(provider); err != nil {
					return "", err
				}
			}
		}
		return "OS keyring", nil
	}
	if err := config.Save(s.cfg, ""); err != nil {
		return "", err
	}
	return s.cfg.Path(), nil
}

// passwordWarning is printed before a password is read.
func passwordWarning(provider string) string {
	if strings.EqualFold(provider, constants.ProviderXposedOrNot) {
		return fmt.Sprintf("Warning: For security, this will only send the first %d characters of your password's Keccak-512 hash", constants.XposedOrNotPrefixLength)
	}
	return fmt.Sprintf("Warning: For security, this will only send the first %d characters of your password's hash", constants.RangePrefixLength)
}

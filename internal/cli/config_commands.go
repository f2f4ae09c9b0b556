package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/breachnotifier/breach-notifier/internal/api"
	"github.com/breachnotifier/breach-notifier/internal/config"
	"github.com/breachnotifier/breach-notifier/internal/constants"
	"github.com/breachnotifier/breach-notifier/internal/validation"
)

// newKeyring is replaced in tests.
var newKeyring = config.NewOSKeyring

// configTestTimeout bounds each request made by 'config test'.
const configTestTimeout = 15 * time.Second

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage breach-notifier configuration",
		Long: `Configuration management commands for breach-notifier.

Commands:
  init       - Interactive configuration setup
  show       - Display current configuration
  path       - Show configuration file path
  set-key    - Store an API key
  remove-key - Remove a stored API key
  test       - Test API keys and connectivity`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigPathCmd())
	configCmd.AddCommand(newConfigSetKeyCmd())
	configCmd.AddCommand(newConfigRemoveKeyCmd())
	configCmd.AddCommand(newConfigTestCmd())

	return configCmd
}

// configPath returns the --config value or the platform default.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.GetDefaultConfigPath()
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup for breach-notifier.

The configuration is saved as an INI file (mode 0600) under your user
config directory, e.g. ~/.config/breach-notifier/config.ini. API keys go
into the file unless you choose the OS keyring.

Use --force to overwrite existing configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path := configPath()

			if !force {
				if _, err := os.Stat(path); err == nil {
					fmt.Fprintf(out, "Configuration already exists at: %s\n", path)
					fmt.Fprintln(out, "Use --force to overwrite or run 'config show' to view current config.")
					return nil
				}
			}

			cfg, err := runConfigWizard(newPrompter(cmd.InOrStdin(), out).withContext(cmd.Context()), out)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			if cfg.KeyringEnabled {
				if err := config.StoreKeys(cfg, newKeyring()); err != nil {
					return fmt.Errorf("failed to store API keys in keyring: %w", err)
				}
			}
			if err := config.Save(cfg, path); err != nil {
				return err
			}
			GetLogger().Info().Str("path", path).Msg("Configuration saved")

			fmt.Fprintln(out)
			fmt.Fprintf(out, "✓ Configuration saved to: %s\n", path)
			if cfg.KeyringEnabled && len(cfg.ConfiguredProviders()) > 0 {
				fmt.Fprintln(out, "✓ API keys stored in the OS keyring")
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Test your configuration with: breach-notifier config test")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

// runConfigWizard asks for every setting and returns the resulting config.
func runConfigWizard(p *prompter, out io.Writer) (*config.Config, error) {
	cfg := config.NewConfig()

	fmt.Fprintln(out, "Data Breach Notifier Configuration Setup")
	fmt.Fprintln(out, "========================================")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Email checks need a Have I Been Pwned API key: %s\n", constants.APIKeyURL)
	fmt.Fprintln(out, "Without one, LeakCheck's public API is used instead.")
	fmt.Fprintln(out)

	hibpKey, err := p.hidden("HIBP API key (input hidden, Enter to skip): ")
	if err != nil {
		return nil, err
	}
	if err := cfg.SetAPIKey(constants.ProviderHIBP, validation.CleanField(hibpKey)); err != nil {
		return nil, err
	}

	leakCheckKey, err := p.hidden("LeakCheck API key (input hidden, Enter to skip): ")
	if err != nil {
		return nil, err
	}
	if err := cfg.SetAPIKey(constants.ProviderLeakCheck, validation.CleanField(leakCheckKey)); err != nil {
		return nil, err
	}

	if cfg.EmailFallback, err = p.confirm("Fall back to LeakCheck when HIBP cannot answer?", true); err != nil {
		return nil, err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Password providers: pwnedpasswords, xposedornot")
	if cfg.PasswordProvider, err = p.ask("Password provider", constants.ProviderPwnedPasswords); err != nil {
		return nil, err
	}
	cfg.PasswordProvider = strings.ToLower(cfg.PasswordProvider)

	if len(cfg.ConfiguredProviders()) > 0 {
		if cfg.KeyringEnabled, err = p.confirm("Store API keys in the OS keyring instead of the config file?", false); err != nil {
			return nil, err
		}
	}

	fmt.Fprintln(out)
	useProxy, err := p.confirm("Configure proxy?", false)
	if err != nil {
		return nil, err
	}
	if useProxy {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Proxy Configuration")
		fmt.Fprintln(out, "-------------------")
		fmt.Fprintln(out, "Proxy modes: no-proxy, system, basic, ntlm")
		if cfg.ProxyMode, err = p.ask("Proxy mode", "system"); err != nil {
			return nil, err
		}
		cfg.ProxyMode = strings.ToLower(cfg.ProxyMode)

		if cfg.ProxyMode == "basic" || cfg.ProxyMode == "ntlm" {
			if cfg.ProxyHost, err = p.ask("Proxy host", ""); err != nil {
				return nil, err
			}
			port, err := p.ask("Proxy port", "8080")
			if err != nil {
				return nil, err
			}
			if v, err := strconv.Atoi(port); err == nil && v > 0 && v < 65536 {
				cfg.ProxyPort = v
			}
			if cfg.ProxyUser, err = p.ask("Proxy user (Enter for none)", ""); err != nil {
				return nil, err
			}
			if cfg.ProxyUser != "" {
				fmt.Fprintln(out, "  The proxy password is never saved; you will be prompted for it.")
			}
		}
		if cfg.ProxyMode != "no-proxy" {
			if cfg.NoProxy, err = p.ask("Hosts to bypass (comma-separated, Enter for none)", ""); err != nil {
				return nil, err
			}
		}
	}

	return cfg, nil
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the current configuration settings.

API keys are resolved in priority order:
  1. Command-line flags (--hibp-api-key, --leakcheck-api-key)
  2. Configuration file
  3. OS keyring (when enabled)
  4. Environment (BDN_HIBP_API_KEY, HIBP_API_KEY, BDN_LEAKCHECK_API_KEY)

Key values are never displayed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			var kr config.Keyring
			if cfg.KeyringEnabled {
				kr = newKeyring()
			}
			printConfig(cmd.OutOrStdout(), cfg, kr)
			return nil
		},
	}

	return cmd
}

func printConfig(out io.Writer, cfg *config.Config, kr config.Keyring) {
	flagKeys := map[string]string{
		constants.ProviderHIBP:      hibpAPIKey,
		constants.ProviderLeakCheck: leakCheckAPIKey,
	}

	fmt.Fprintln(out, "Current Configuration")
	fmt.Fprintln(out, "=====================")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "API Keys:")
	for _, provider := range config.KnownProviders {
		key, source := config.ResolveAPIKeySource(provider, flagKeys[provider], cfg, kr)
		line := fmt.Sprintf("  %-10s %s", provider+":", config.MaskedKey(key))
		if source != "" {
			line += " (" + source + ")"
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "  Keyring:   %t\n", cfg.KeyringEnabled)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Lookups:")
	fmt.Fprintf(out, "  Email fallback:     %t\n", cfg.EmailFallback)
	fmt.Fprintf(out, "  Include unverified: %t\n", cfg.IncludeUnverified)
	fmt.Fprintf(out, "  Password provider:  %s\n", cfg.PasswordProvider)
	fmt.Fprintf(out, "  Range padding:      %t\n", cfg.PasswordPadding)
	fmt.Fprintf(out, "  Strength estimate:  %t\n", cfg.PasswordStrength)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Client Settings:")
	fmt.Fprintf(out, "  Timeout:          %s\n", cfg.Timeout)
	fmt.Fprintf(out, "  Max Retries:      %d\n", cfg.MaxRetries)
	fmt.Fprintf(out, "  HIBP rate limit:  %d/min\n", cfg.HIBPRatePerMinute)
	if cfg.UserAgent != "" {
		fmt.Fprintf(out, "  User-Agent:       %s\n", cfg.UserAgent)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Proxy Settings:")
	fmt.Fprintf(out, "  Proxy Mode: %s\n", cfg.ProxyMode)
	if cfg.ProxyHost != "" {
		fmt.Fprintf(out, "  Proxy Host: %s\n", cfg.ProxyHost)
		fmt.Fprintf(out, "  Proxy Port: %d\n", cfg.ProxyPort)
	}
	if cfg.ProxyUser != "" {
		fmt.Fprintf(out, "  Proxy User: %s\n", cfg.ProxyUser)
	}
	if cfg.NoProxy != "" {
		fmt.Fprintf(out, "  No Proxy:   %s\n", cfg.NoProxy)
	}
	fmt.Fprintln(out)

	if len(cfg.Endpoints) > 0 {
		fmt.Fprintln(out, "Endpoints:")
		for _, provider := range config.EndpointProviders {
			if v := cfg.Endpoints[provider]; v != "" {
				fmt.Fprintf(out, "  %-15s %s\n", provider+":", v)
			}
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "Configuration file: %s\n", cfg.Path())
	if _, err := os.Stat(cfg.Path()); os.IsNotExist(err) {
		fmt.Fprintln(out, "  (file does not exist - using defaults)")
	}
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Long:  `Display the path to the configuration file.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path := configPath()
			if cfgFile == "" {
				fmt.Fprintln(out, "Default configuration path:")
			} else {
				fmt.Fprintln(out, "Configuration path (from --config flag):")
			}
			fmt.Fprintf(out, "  %s\n", path)
			fmt.Fprintln(out)

			if fileInfo, err := os.Stat(path); err == nil {
				fmt.Fprintln(out, "Status: ✓ File exists")
				fmt.Fprintf(out, "Size:   %d bytes\n", fileInfo.Size())
				fmt.Fprintf(out, "Modified: %s\n", fileInfo.ModTime().Format("2006-01-02 15:04:05"))
			} else {
				fmt.Fprintln(out, "Status: File does not exist")
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Create a configuration file with: breach-notifier config init")
			}
			return nil
		},
	}

	return cmd
}

// newConfigSetKeyCmd creates the 'config set-key' command.
func newConfigSetKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-key <hibp|leakcheck> [key]",
		Short: "Store an API key",
		Long: `Store an API key in the config file, or in the OS keyring when
keyring.enabled is true. When the key is omitted it is read from a hidden
prompt, which keeps it out of shell history.`,
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: config.KnownProviders,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := strings.ToLower(args[0])
			if !config.IsKnownProvider(provider) {
				return fmt.Errorf("unknown provider %q (use %s)", args[0], strings.Join(config.KnownProviders, " or "))
			}

			var key string
			if len(args) == 2 {
				key = args[1]
			} else {
				p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr()).withContext(cmd.Context())
				var err error
				if key, err = p.hidden(fmt.Sprintf("API key for %s (input hidden): ", provider)); err != nil {
					return err
				}
			}
			key = validation.CleanField(key)
			if key == "" {
				return fmt.Errorf("API key must not be empty (use 'config remove-key %s' to remove it)", provider)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			where, err := persistKey(cfg, provider, key)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ API key for %s saved to %s\n", provider, where)
			return nil
		},
	}

	return cmd
}

// newConfigRemoveKeyCmd creates the 'config remove-key' command.
func newConfigRemoveKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "remove-key <hibp|leakcheck>",
		Short:     "Remove a stored API key",
		Long:      `Remove an API key from the config file and, when enabled, the OS keyring.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: config.KnownProviders,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := strings.ToLower(args[0])
			if !config.IsKnownProvider(provider) {
				return fmt.Errorf("unknown provider %q (use %s)", args[0], strings.Join(config.KnownProviders, " or "))
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			where, err := persistKey(cfg, provider, "")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ API key for %s removed from %s\n", provider, where)
			if env := config.EnvVarForProvider(provider); os.Getenv(env) != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "  Note: %s is still set in the environment\n", env)
			}
			return nil
		},
	}

	return cmd
}

// persistKey writes (or, with an empty key, removes) one provider's key and
// returns where it was written.
func persistKey(cfg *config.Config, provider, key string) (string, error) {
	if key == "" {
		cfg.RemoveAPIKey(provider)
	} else if err := cfg.SetAPIKey(provider, key); err != nil {
		return "", err
	}

	where := cfg.Path()
	if cfg.KeyringEnabled {
		kr := newKeyring()
		if key == "" {
			if err := kr.Delete(provider); err != nil {
				return "", err
			}
		} else if err := kr.Set(provider, key); err != nil {
			return "", err
		}
		where = "OS keyring"
	}

	if err := config.Save(cfg, cfg.Path()); err != nil {
		return "", err
	}
	return where, nil
}

// newConfigTestCmd creates the 'config test' command.
func newConfigTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test API keys and connectivity",
		Long: `Test the current configuration.

Verifies the HIBP API key against the subscription endpoint and checks that
the Pwned Passwords range API is reachable (through the proxy, if any).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			logger := GetLogger()

			fmt.Fprintln(out, "Testing API Connection")
			fmt.Fprintln(out, "======================")
			fmt.Fprintln(out)

			s, err := newSession()
			if err != nil {
				return err
			}

			failed := false

			hibp := api.NewHIBPClient(s.clientOptions(constants.ProviderHIBP))
			if !hibp.HasAPIKey() {
				fmt.Fprintln(out, "- HIBP: no API key configured (email checks will use LeakCheck)")
			} else {
				ctx, cancel := context.WithTimeout(cmd.Context(), configTestTimeout)
				status, err := hibp.SubscriptionStatus(ctx)
				cancel()
				if err != nil {
					logger.Error().Err(err).Msg("HIBP key test failed")
					fmt.Fprintln(out, "✗ HIBP: connection FAILED")
					fmt.Fprintf(out, "  Error: %v\n", err)
					failed = true
				} else {
					fmt.Fprintln(out, "✓ HIBP: API key is valid")
					fmt.Fprintf(out, "  Subscription: %s (%d requests/min)\n", status.SubscriptionName, status.Rpm)
					if status.SubscribedUntil != "" {
						fmt.Fprintf(out, "  Subscribed until: %s\n", status.SubscribedUntil)
					}
					if status.Rpm > 0 && status.Rpm != s.cfg.HIBPRatePerMinute {
						fmt.Fprintf(out, "  Tip: set hibp.rate_per_minute = %d in %s\n", status.Rpm, s.cfg.Path())
					}
				}
			}

			passwords := api.NewPwnedPasswordsClient(s.clientOptions(constants.ProviderPwnedPasswords), s.cfg.PasswordPadding)
			ctx, cancel := context.WithTimeout(cmd.Context(), configTestTimeout)
			_, err = passwords.Range(ctx, "00000")
			cancel()
			if err != nil {
				logger.Error().Err(err).Msg("Pwned Passwords test failed")
				fmt.Fprintln(out, "✗ Pwned Passwords: connection FAILED")
				fmt.Fprintf(out, "  Error: %v\n", err)
				failed = true
			} else {
				fmt.Fprintln(out, "✓ Pwned Passwords: reachable")
			}

			if key, source := s.APIKey(constants.ProviderLeakCheck); key != "" {
				fmt.Fprintf(out, "- LeakCheck: API key set (%s), using the v2 API\n", source)
			} else {
				fmt.Fprintln(out, "- LeakCheck: no API key, using the public API")
			}

			if failed {
				return fmt.Errorf("connection test failed")
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Your configuration is working!")
			return nil
		},
	}

	return cmd
}

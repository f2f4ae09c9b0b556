// Package cli provides the command-line interface for breach-notifier.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/breachnotifier/breach-notifier/internal/config"
	"github.com/breachnotifier/breach-notifier/internal/logging"
	"github.com/breachnotifier/breach-notifier/internal/report"
	"github.com/breachnotifier/breach-notifier/internal/version"
)

var (
	// Global flags
	cfgFile         string
	hibpAPIKey      string
	leakCheckAPIKey string
	outputFormat    string
	noColor         bool
	timeout         time.Duration
	verbose         bool
	debug           bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// ErrLookupFailed is returned when a lookup could not be completed. The
// failure has already been reported on stdout, so callers only set the exit code.
var ErrLookupFailed = errors.New("lookup could not be completed")

// NewRootCmd creates the root command. Without a subcommand it starts the
// interactive menu.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "breach-notifier",
		Short: "Check whether an email or password appears in known data breaches",
		Long: `Data Breach Notifier ` + version.Version + ` - Built: ` + version.BuildTime + `
Checks if your email or password has been compromised in known data breaches.

Email addresses are looked up in Have I Been Pwned (API key required), with
LeakCheck as a fallback. Passwords never leave this machine: only the first
5 characters of their SHA-1 hash are sent to Pwned Passwords.

Run without arguments for the interactive menu.

Exit codes:
  0  nothing found
  1  error, or the lookup could not be completed
  2  found in a known breach`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Initialize logger
			logger = logging.NewDefaultCLILogger()
			if verbose || debug {
				logging.SetGlobalLevel(-1) // Debug level (zerolog.DebugLevel)
			}

			outputFormat = strings.ToLower(outputFormat)
			if _, err := report.New(outputFormat, false); err != nil {
				return err
			}
			if timeout < 0 {
				return fmt.Errorf("--timeout must not be negative")
			}

			loaded, err := config.LoadDotEnv()
			if err != nil {
				logger.Warn().Err(err).Msg("Failed to load .env file")
			}
			for _, path := range loaded {
				logger.Debug().Str("path", path).Msg("Loaded environment file")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&hibpAPIKey, "hibp-api-key", "", "Have I Been Pwned API key (overrides all other sources)")
	rootCmd.PersistentFlags().StringVar(&leakCheckAPIKey, "leakcheck-api-key", "", "LeakCheck API key (overrides all other sources)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", report.FormatText, "Output format: "+strings.Join(report.Formats, ", "))
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Timeout for each service call, retries included (default from config, 30s)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output (same as --verbose)")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	completionCmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Enable tab-completion for breach-notifier commands",
		Long: `Generate shell completion scripts to enable tab-completion for breach-notifier.

QUICK START:

  zsh:
    mkdir -p ~/.zsh/completions
    breach-notifier completion zsh > ~/.zsh/completions/_breach-notifier
    # Then add to ~/.zshrc: fpath=(~/.zsh/completions $fpath)

  bash (Linux):
    breach-notifier completion bash | sudo tee /etc/bash_completion.d/breach-notifier

For detailed instructions, use: breach-notifier completion [shell] --help`,
	}
	rootCmd.AddCommand(completionCmd)

	completionCmd.AddCommand(&cobra.Command{
		Use:   "bash",
		Short: "Generate bash completion script",
		Long: `Generate the autocompletion script for bash.

QUICK TEST (temporary, current session only):
  source <(breach-notifier completion bash)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenBashCompletion(cmd.OutOrStdout())
		},
	})

	completionCmd.AddCommand(&cobra.Command{
		Use:   "zsh",
		Short: "Generate zsh completion script",
		Long: `Generate the autocompletion script for zsh.

QUICK TEST (temporary, current session only):
  source <(breach-notifier completion zsh)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenZshCompletion(cmd.OutOrStdout())
		},
	})

	completionCmd.AddCommand(&cobra.Command{
		Use:   "fish",
		Short: "Generate fish completion script",
		Long: `Generate the autocompletion script for fish.

  breach-notifier completion fish > ~/.config/fish/completions/breach-notifier.fish`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
		},
	})

	completionCmd.AddCommand(&cobra.Command{
		Use:   "powershell",
		Short: "Generate PowerShell completion script",
		Long: `Generate the autocompletion script for PowerShell.

  breach-notifier completion powershell >> $PROFILE`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenPowerShellCompletion(cmd.OutOrStdout())
		},
	})

	// Disable default completion command (we're adding our own above)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}

// Execute runs the CLI.
func Execute() error {
	// Create a context that can be cancelled by signals
	rootContext, cancelFunc = context.WithCancel(context.Background())
	defer cancelFunc()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived signal %v, cancelling...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.ExecuteContext(rootContext)

	// Clean up signal handler
	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newEmailCmd())
	rootCmd.AddCommand(newPasswordCmd())
	rootCmd.AddCommand(newInteractiveCmd())
	rootCmd.AddCommand(newConfigCmd())
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return logger
}

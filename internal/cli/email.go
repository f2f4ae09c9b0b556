package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/breachnotifier/breach-notifier/internal/breach"
	"github.com/breachnotifier/breach-notifier/internal/report"
)

func newEmailCmd() *cobra.Command {
	var (
		includeUnverified bool
		noFallback        bool
		pastes            bool
	)

	cmd := &cobra.Command{
		Use:   "email <address>",
		Short: "Check whether an email address appears in known data breaches",
		Long: `Check whether an email address appears in known data breaches.

The address is looked up in Have I Been Pwned, which needs an API key
(--hibp-api-key, config file, OS keyring, BDN_HIBP_API_KEY or HIBP_API_KEY).
When HIBP has no key, rejects it or stays rate limited, LeakCheck answers
instead unless --no-fallback is given.

Examples:
  breach-notifier email user@example.com
  breach-notifier email user@example.com --pastes --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			if includeUnverified {
				s.emailOpts.IncludeUnverified = true
			}
			if noFallback {
				s.emailOpts.Fallback = false
			}
			s.emailOpts.Pastes = pastes

			renderer, err := newRenderer(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			res := s.CheckEmail(cmd.Context(), args[0])
			if err := renderer.Email(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			return lookupError(res.Status)
		},
	}

	cmd.Flags().BoolVar(&includeUnverified, "include-unverified", false, "Include unverified breaches (HIBP)")
	cmd.Flags().BoolVar(&noFallback, "no-fallback", false, "Do not fall back to LeakCheck when HIBP cannot answer")
	cmd.Flags().BoolVar(&pastes, "pastes", false, "Also list pastes containing the address (HIBP)")

	return cmd
}

// lookupError maps a result status to the command's error, which selects
// the exit code.
func lookupError(status breach.Status) error {
	switch {
	case breach.Compromised(status):
		return breach.ErrCompromised
	case status == breach.StatusClean:
		return nil
	default:
		return ErrLookupFailed
	}
}

// newRenderer returns the renderer selected by --format and --no-color for out.
func newRenderer(out io.Writer) (report.Renderer, error) {
	return report.New(outputFormat, report.ColorEnabled(noColor, stdoutFile(out)))
}

// stdoutFile returns w as a file when it is one, so terminal checks work.
func stdoutFile(w io.Writer) *os.File {
	if f, ok := w.(*os.File); ok {
		return f
	}
	return nil
}

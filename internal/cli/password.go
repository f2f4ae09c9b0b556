package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/breachnotifier/breach-notifier/internal/constants"
)

func newPasswordCmd() *cobra.Command {
	var (
		fromStdin  bool
		provider   string
		noStrength bool
	)

	cmd := &cobra.Command{
		Use:   "password",
		Short: "Check whether a password appears in known data breaches",
		Long: `Check whether a password appears in known data breaches.

The password is read from a hidden prompt, or from the first line of stdin
with --stdin. It is never accepted as an argument, where it would end up in
shell history. Only a hash prefix leaves this machine:

  pwnedpasswords  first 5 hex characters of the SHA-1 hash (default)
  xposedornot     first 10 hex characters of the Keccak-512 hash

Examples:
  breach-notifier password
  printf '%s\n' "$PW" | breach-notifier password --stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			if provider != "" {
				s.passwordOpts.Provider = strings.ToLower(provider)
			}
			switch s.passwordOpts.Provider {
			case constants.ProviderPwnedPasswords, constants.ProviderXposedOrNot:
			default:
				return fmt.Errorf("unknown password provider %q (use %s or %s)", provider, constants.ProviderPwnedPasswords, constants.ProviderXposedOrNot)
			}
			if noStrength {
				s.passwordOpts.Strength = false
			}

			password, err := readPassword(cmd, fromStdin, s.passwordOpts.Provider)
			if err != nil {
				return err
			}

			renderer, err := newRenderer(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			res := s.CheckPassword(cmd.Context(), password)
			if err := renderer.Password(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			return lookupError(res.Status)
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read the password from the first line of stdin")
	cmd.Flags().StringVar(&provider, "provider", "", "Password provider: pwnedpasswords or xposedornot (default from config)")
	cmd.Flags().BoolVar(&noStrength, "no-strength", false, "Skip the local strength estimate")

	return cmd
}

// readPassword reads the password from stdin or a hidden prompt. The
// k-anonymity warning goes to stderr so stdout stays machine readable.
func readPassword(cmd *cobra.Command, fromStdin bool, provider string) (string, error) {
	in := cmd.InOrStdin()
	if fromStdin {
		p := newPrompter(in, io.Discard).withContext(cmd.Context())
		password, err := p.rawLine("")
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("no password on stdin")
		}
		return password, err
	}

	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return "", fmt.Errorf("stdin is not a terminal; use --stdin to read the password from a pipe")
	}
	fmt.Fprintln(cmd.ErrOrStderr(), passwordWarning(provider))
	return readHiddenContext(cmd.Context(), f, cmd.ErrOrStderr(), "Enter password to check (input hidden): ")
}

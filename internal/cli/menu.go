package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/breachnotifier/breach-notifier/internal/breach"
	"github.com/breachnotifier/breach-notifier/internal/config"
	"github.com/breachnotifier/breach-notifier/internal/constants"
	"github.com/breachnotifier/breach-notifier/internal/report"
	"github.com/breachnotifier/breach-notifier/internal/validation"
)

// lookupBackend is what the menu needs from a session.
type lookupBackend interface {
	CheckEmail(ctx context.Context, email string) breach.EmailResult
	CheckPassword(ctx context.Context, password string) breach.PasswordResult
	KeyStatus(provider string) (key, source string)
	SetKey(provider, key string) error
	SaveKeys() (string, error)
}

const exitMessage = "\nExiting... Stay safe online!"

// menu is the interactive loop. One lookup runs at a time.
type menu struct {
	backend          lookupBackend
	renderer         report.Renderer
	prompt           *prompter
	out              io.Writer
	bold             *color.Color
	passwordProvider string
}

func newInteractiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Start the interactive menu (default when no command is given)",
		Long: `Start the interactive menu.

Options:
  1. Check an email address
  2. Check a password (input hidden, only a hash prefix is sent)
  3. Configure API keys for this session, optionally saving them
  4. Exit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd)
		},
	}
}

func runInteractive(cmd *cobra.Command) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	useColor := report.ColorEnabled(noColor, stdoutFile(out))
	renderer, err := report.New(outputFormat, useColor)
	if err != nil {
		return err
	}

	m := &menu{
		backend:          s,
		renderer:         renderer,
		prompt:           newPrompter(cmd.InOrStdin(), out),
		out:              out,
		bold:             color.New(color.Bold),
		passwordProvider: s.passwordOpts.Provider,
	}
	if useColor {
		m.bold.EnableColor()
	} else {
		m.bold.DisableColor()
	}
	return m.run(cmd.Context())
}

// run shows the banner and loops until the user exits, input ends or ctx
// is cancelled. Cancellation, e.g. Ctrl+C, ends the menu like an exit.
func (m *menu) run(ctx context.Context) error {
	m.prompt.withContext(ctx)
	fmt.Fprintln(m.out, "\n"+m.bold.Sprint("Data Breach Notifier"))
	fmt.Fprintln(m.out, "Checks if your email or password has been compromised in known data breaches")
	fmt.Fprintln(m.out)

	if key, _ := m.backend.KeyStatus(constants.ProviderHIBP); key == "" {
		fmt.Fprintf(m.out, "Note: No Have I Been Pwned API key configured. Get one at %s\n", constants.APIKeyURL)
		fmt.Fprintln(m.out, "and add it with option 3. Until then email checks use LeakCheck.")
	}

	for {
		if ctx.Err() != nil {
			fmt.Fprintln(m.out, exitMessage)
			return nil
		}

		fmt.Fprintln(m.out, "\nOptions:")
		fmt.Fprintln(m.out, "1. Check email address")
		fmt.Fprintln(m.out, "2. Check password")
		fmt.Fprintln(m.out, "3. Configure API keys")
		fmt.Fprintln(m.out, "4. Exit")

		choice, err := m.prompt.line("\nSelect an option (1-4): ")
		if err != nil {
			if endOfSession(ctx, err) {
				fmt.Fprintln(m.out, exitMessage)
				return nil
			}
			return err
		}

		switch choice {
		case "1":
			err = m.checkEmail(ctx)
		case "2":
			err = m.checkPassword(ctx)
		case "3":
			err = m.configureKeys()
		case "4":
			fmt.Fprintln(m.out, exitMessage)
			return nil
		default:
			fmt.Fprintln(m.out, "Invalid choice. Please select 1, 2, 3, or 4.")
			continue
		}

		if endOfSession(ctx, err) {
			fmt.Fprintln(m.out, exitMessage)
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// endOfSession reports whether err means the user is done: input ended or
// the session was cancelled.
func endOfSession(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, io.EOF) || ctx.Err() != nil
}

func (m *menu) checkEmail(ctx context.Context) error {
	email, err := m.prompt.line("\nEnter email address to check: ")
	if err != nil {
		return err
	}
	if _, err := validation.ValidateEmail(email); err != nil {
		fmt.Fprintln(m.out, "Please enter a valid email address")
		return nil
	}

	fmt.Fprintf(m.out, "\nChecking %s...\n", email)
	res := m.backend.CheckEmail(ctx, email)
	return m.renderer.Email(m.out, res)
}

func (m *menu) checkPassword(ctx context.Context) error {
	fmt.Fprintln(m.out, "\n"+passwordWarning(m.passwordProvider))
	password, err := m.prompt.hidden("Enter password to check (input hidden): ")
	if err != nil {
		return err
	}
	if _, err := validation.ValidatePassword(password); err != nil {
		fmt.Fprintln(m.out, "Please enter a password")
		return nil
	}

	res := m.backend.CheckPassword(ctx, password)
	return m.renderer.Password(m.out, res)
}

// configureKeys sets session keys. Nothing is written unless the user
// confirms the save.
func (m *menu) configureKeys() error {
	changed := false
	for {
		fmt.Fprintln(m.out, "\nAPI keys:")
		for _, provider := range config.KnownProviders {
			key, source := m.backend.KeyStatus(provider)
			line := fmt.Sprintf("  %-10s %s", provider+":", config.MaskedKey(key))
			if source != "" {
				line += " (" + source + ")"
			}
			fmt.Fprintln(m.out, line)
		}

		provider, err := m.prompt.line("\nProvider to configure (hibp/leakcheck, empty to go back): ")
		if err != nil {
			return err
		}
		if provider == "" {
			break
		}
		if !config.IsKnownProvider(provider) {
			fmt.Fprintf(m.out, "Unknown provider %q\n", provider)
			continue
		}

		key, err := m.prompt.hidden(fmt.Sprintf("Enter API key for %s (input hidden, empty to clear): ", provider))
		if err != nil {
			return err
		}
		key = validation.CleanField(key)
		if err := m.backend.SetKey(provider, key); err != nil {
			return err
		}
		changed = true
		if key == "" {
			fmt.Fprintf(m.out, "Session key for %s cleared\n", provider)
		} else {
			fmt.Fprintf(m.out, "API key for %s set for this session\n", provider)
		}
	}

	if !changed {
		return nil
	}
	save, err := m.prompt.confirm("Save keys for future sessions?", false)
	if err != nil {
		return err
	}
	if !save {
		fmt.Fprintln(m.out, "Keys will be discarded on exit")
		return nil
	}
	where, err := m.backend.SaveKeys()
	if err != nil {
		fmt.Fprintf(m.out, "Failed to save keys: %v\n", err)
		return nil
	}
	fmt.Fprintf(m.out, "Keys saved to %s\n", where)
	return nil
}

// Package report renders lookup results as colored text, tables or JSON.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/breachnotifier/breach-notifier/internal/breach"
)

// Output formats
const (
	FormatText  = "text"
	FormatTable = "table"
	FormatJSON  = "json"
)

// Formats lists the accepted --format values.
var Formats = []string{FormatText, FormatTable, FormatJSON}

// Recommendations printed after a breached email.
var Recommendations = []string{
	"Change passwords for any accounts using this email",
	"Enable two-factor authentication where available",
	"Consider using a password manager",
}

// Renderer writes lookup results to w.
type Renderer interface {
	Email(w io.Writer, r breach.EmailResult) error
	Password(w io.Writer, r breach.PasswordResult) error
}

// New returns the renderer for format. color enables ANSI colors for text and table output.
func New(format string, color bool) (Renderer, error) {
	switch strings.ToLower(format) {
	case FormatText, "":
		return &TextRenderer{palette: newPalette(color)}, nil
	case FormatTable:
		return &TableRenderer{palette: newPalette(color)}, nil
	case FormatJSON:
		return &JSONRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (use %s)", format, strings.Join(Formats, ", "))
	}
}

// ColorEnabled decides whether output to f should be colored: not when
// --no-color is given, NO_COLOR is set, or f is not a terminal.
func ColorEnabled(noColorFlag bool, f *os.File) bool {
	if noColorFlag {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// Data Breach Notifier - checks whether an email address or password appears
// in known data breaches.
//
// Exit codes: 0 nothing found, 1 error or lookup failed, 2 found in a breach.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/breachnotifier/breach-notifier/internal/breach"
	"github.com/breachnotifier/breach-notifier/internal/cli"
)

const (
	exitClean       = 0
	exitError       = 1
	exitCompromised = 2
)

func main() {
	os.Exit(run(cli.Execute, os.Stderr))
}

// run executes the CLI and maps its error to the process exit code.
func run(execute func() error, stderr io.Writer) int {
	err := execute()
	switch {
	case err == nil:
		return exitClean
	case errors.Is(err, breach.ErrCompromised):
		return exitCompromised
	case errors.Is(err, cli.ErrLookupFailed):
		// Already reported with the lookup result.
		return exitError
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
}

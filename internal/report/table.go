package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/breachnotifier/breach-notifier/internal/breach"
)

// TableRenderer prints the status line followed by a table of breaches.
type TableRenderer struct {
	palette palette
}

// Email renders an email lookup as a table of breaches.
func (r *TableRenderer) Email(w io.Writer, res breach.EmailResult) error {
	text := &TextRenderer{palette: r.palette}
	ew := &errWriter{w: w}
	p := r.palette

	text.fallbackNotice(ew, res)

	switch res.Status {
	case breach.StatusBreached:
		ew.println(p.red.Sprintf("\n[!] Email found in %d breaches:", len(res.Breaches)))
		if ew.err != nil {
			return ew.err
		}

		table := tablewriter.NewTable(w)
		table.Header("No", "Breach", "Date", "Accounts", "Data Exposed")
		for i, b := range res.Breaches {
			accounts := ""
			if b.PwnCount > 0 {
				accounts = fmt.Sprint(b.PwnCount)
			}
			if err := table.Append(i+1, b.Title, b.BreachDate, accounts, strings.Join(b.DataClasses, ", ")); err != nil {
				return fmt.Errorf("table append failed: %w", err)
			}
		}
		if err := table.Render(); err != nil {
			return fmt.Errorf("table render failed: %w", err)
		}

		if len(res.Pastes) > 0 {
			if err := renderPastes(w, res); err != nil {
				return err
			}
		}
		text.recommendations(ew)

	case breach.StatusClean:
		ew.println(p.green.Sprint("\n[+] No breaches found for this email"))

	default:
		text.failure(ew, res.Err)
	}
	return ew.err
}

func renderPastes(w io.Writer, res breach.EmailResult) error {
	table := tablewriter.NewTable(w)
	table.Header("Source", "Id", "Title", "Date", "Emails")
	for _, paste := range res.Pastes {
		if err := table.Append(paste.Source, paste.ID, paste.Title, paste.Date, paste.EmailCount); err != nil {
			return fmt.Errorf("table append failed: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("table render failed: %w", err)
	}
	return nil
}

// Password renders a password lookup as a single-row table.
func (r *TableRenderer) Password(w io.Writer, res breach.PasswordResult) error {
	if res.Status == breach.StatusUnknown {
		ew := &errWriter{w: w}
		(&TextRenderer{palette: r.palette}).failure(ew, res.Err)
		return ew.err
	}

	strengthCol := "-"
	if s := res.Strength; s != nil {
		strengthCol = fmt.Sprintf("%s (%d/4)", s.Label, s.Score)
	}

	table := tablewriter.NewTable(w)
	table.Header("Provider", "Status", "Times Seen", "Strength")
	if err := table.Append(res.Provider, res.Status.String(), res.Count, strengthCol); err != nil {
		return fmt.Errorf("table append failed: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("table render failed: %w", err)
	}

	if res.Status == breach.StatusBreached {
		_, err := fmt.Fprintln(w, "You should change this password immediately.")
		return err
	}
	return nil
}

package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/breachnotifier/breach-notifier/internal/api"
	"github.com/breachnotifier/breach-notifier/internal/breach"
	"github.com/breachnotifier/breach-notifier/internal/constants"
	"github.com/breachnotifier/breach-notifier/internal/validation"
)

// TextRenderer prints the classic line-oriented report.
type TextRenderer struct {
	palette palette
}

// Email renders an email lookup.
func (r *TextRenderer) Email(w io.Writer, res breach.EmailResult) error {
	ew := &errWriter{w: w}
	p := r.palette

	r.fallbackNotice(ew, res)

	switch res.Status {
	case breach.StatusBreached:
		ew.println(p.red.Sprintf("\n[!] Email found in %d breaches:", len(res.Breaches)))
		for _, b := range res.Breaches {
			if b.BreachDate != "" {
				ew.printf("- %s (%s)\n", b.Name, b.BreachDate)
			} else {
				ew.printf("- %s\n", b.Name)
			}
			if b.Description != "" {
				ew.printf("  Details: %s\n", b.Description)
			}
			ew.printf("  Compromised data: %s\n", strings.Join(b.DataClasses, ", "))
		}
		r.pastes(ew, res)
		r.recommendations(ew)

	case breach.StatusClean:
		ew.println(p.green.Sprint("\n[+] No breaches found for this email"))
		r.pastes(ew, res)

	default:
		r.failure(ew, res.Err)
	}
	return ew.err
}

func (r *TextRenderer) fallbackNotice(ew *errWriter, res breach.EmailResult) {
	if !res.FellBack {
		return
	}
	ew.println(r.palette.yellow.Sprintf("\n[?] %s; using LeakCheck instead", capitalize(res.FallbackReason)))
}

func (r *TextRenderer) pastes(ew *errWriter, res breach.EmailResult) {
	p := r.palette
	if res.PasteErr != nil {
		ew.println(p.yellow.Sprintf("\n[?] Paste lookup failed: %v", res.PasteErr))
		return
	}
	if res.Pastes == nil {
		return
	}
	if len(res.Pastes) == 0 {
		ew.println(p.green.Sprint("\n[+] No pastes found for this email"))
		return
	}
	ew.println(p.red.Sprintf("\n[!] Email found in %d pastes:", len(res.Pastes)))
	for _, paste := range res.Pastes {
		title := paste.Title
		if title == "" {
			title = paste.ID
		}
		ew.printf("- %s: %s (%s)\n", paste.Source, title, paste.Date)
	}
}

func (r *TextRenderer) recommendations(ew *errWriter) {
	ew.println(r.palette.bold.Sprint("\nRecommendations:"))
	for _, rec := range Recommendations {
		ew.printf("- %s\n", rec)
	}
}

// failure prints the line for a lookup that could not be answered.
func (r *TextRenderer) failure(ew *errWriter, err error) {
	p := r.palette
	switch {
	case err == nil:
		ew.println(p.yellow.Sprint("\n[?] No answer from the service"))
	case errors.Is(err, validation.ErrInvalidEmail):
		ew.println("Please enter a valid email address")
	case errors.Is(err, validation.ErrEmptyPassword):
		ew.println("Please enter a password")
	case api.IsMissingAPIKey(err):
		ew.println(p.yellow.Sprintf("\n[?] No HIBP API key configured. Get one at %s", constants.APIKeyURL))
	case api.StatusCode(err) != 0:
		ew.println(p.yellow.Sprintf("\n[?] API Error: %d", api.StatusCode(err)))
	default:
		ew.println(p.yellow.Sprintf("\n[!] Connection error: %v", err))
	}
}

// Password renders a password lookup.
func (r *TextRenderer) Password(w io.Writer, res breach.PasswordResult) error {
	ew := &errWriter{w: w}
	p := r.palette

	switch res.Status {
	case breach.StatusBreached:
		ew.println(p.red.Sprintf("\n[!] Password has been found in %d breaches!", res.Count))
		ew.println("You should change this password immediately.")
	case breach.StatusClean:
		ew.println(p.green.Sprint("\n[+] Password not found in any known breaches"))
	default:
		r.failure(ew, res.Err)
	}

	if s := res.Strength; s != nil {
		line := fmt.Sprintf("Strength: %s (score %d/4, estimated crack time: %s)", s.Label, s.Score, s.CrackTime)
		if s.Weak() {
			ew.println(p.yellow.Sprint(line))
		} else {
			ew.println(line)
		}
	}
	return ew.err
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// errWriter remembers the first write error so renderers can print freely.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

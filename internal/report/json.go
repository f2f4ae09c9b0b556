package report

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"

	"github.com/breachnotifier/breach-notifier/internal/breach"
)

// JSONRenderer writes one indented JSON document per result.
type JSONRenderer struct{}

type emailJSON struct {
	breach.EmailResult
	Error      string `json:"error,omitempty"`
	PasteError string `json:"paste_error,omitempty"`
}

type passwordJSON struct {
	breach.PasswordResult
	Error string `json:"error,omitempty"`
}

// Email renders an email lookup as JSON.
func (r *JSONRenderer) Email(w io.Writer, res breach.EmailResult) error {
	out := emailJSON{EmailResult: res}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	if res.PasteErr != nil {
		out.PasteError = res.PasteErr.Error()
	}
	return writeJSON(w, out)
}

// Password renders a password lookup as JSON.
func (r *JSONRenderer) Password(w io.Writer, res breach.PasswordResult) error {
	out := passwordJSON{PasswordResult: res}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return writeJSON(w, out)
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Package strength estimates password strength locally with zxcvbn.
// Nothing here touches the network.
package strength

import "github.com/nbutton23/zxcvbn-go"

// Labels indexed by zxcvbn score.
var labels = [...]string{"very weak", "weak", "fair", "strong", "very strong"}

// Result is a password strength estimate.
type Result struct {
	// Score ranges from 0 (guessable in seconds) to 4 (very hard to guess).
	Score     int     `json:"score"`
	Label     string  `json:"label"`
	CrackTime string  `json:"crack_time"`
	Entropy   float64 `json:"entropy"`
}

// Weak reports whether the score is below "fair".
func (r Result) Weak() bool {
	return r.Score < 2
}

// Evaluate estimates the strength of password. userInputs are words the
// password should not be built from, such as the user's email address.
func Evaluate(password string, userInputs []string) Result {
	match := zxcvbn.PasswordStrength(password, userInputs)

	score := match.Score
	if score < 0 {
		score = 0
	}
	if score >= len(labels) {
		score = len(labels) - 1
	}

	return Result{
		Score:     score,
		Label:     labels[score],
		CrackTime: match.CrackTimeDisplay,
		Entropy:   match.Entropy,
	}
}

package validation

import "strings"

// ValidatePassword strips the line terminator left by line-based input and
// rejects a password that is empty or only whitespace. Surrounding
// whitespace of any other password is part of it and is kept.
func ValidatePassword(s string) (string, error) {
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	if strings.TrimSpace(s) == "" {
		return "", ErrEmptyPassword
	}
	return s, nil
}

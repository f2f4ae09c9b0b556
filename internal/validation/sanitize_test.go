package validation

import (
	"testing"
)

func TestCleanField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Zero-width space",
			input:    "abc\u200Bdef",
			expected: "abcdef",
		},
		{
			name:     "Zero-width joiners",
			input:    "a\u200Cb\u200Dc",
			expected: "abc",
		},
		{
			name:     "BOM (zero-width no-break space)",
			input:    "\uFEFFkey",
			expected: "key",
		},
		{
			name:     "Soft hyphen and word joiner",
			input:    "user\u00ADname\u2060",
			expected: "username",
		},
		{
			name:     "Trim surrounding whitespace",
			input:    "  key\t\n",
			expected: "key",
		},
		{
			name:     "Inner spaces kept",
			input:    "a b",
			expected: "a b",
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CleanField(tt.input)
			if result != tt.expected {
				t.Errorf("CleanField(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestValidateEmail_StripsInvisible(t *testing.T) {
	got, err := ValidateEmail("\uFEFFuser\u200B@example.com")
	if err != nil {
		t.Fatalf("ValidateEmail() error = %v", err)
	}
	if got != "user@example.com" {
		t.Errorf("ValidateEmail() = %q, want user@example.com", got)
	}
}

package validation

import "strings"

// invisibleChars are stripped from pasted input. They survive copy/paste
// from web pages and mail clients and would otherwise make an address or
// API key silently wrong.
var invisibleChars = strings.NewReplacer(
	"\u200B", "", // Zero-width space
	"\u200C", "", // Zero-width non-joiner
	"\u200D", "", // Zero-width joiner
	"\uFEFF", "", // Zero-width no-break space (BOM)
	"\u00AD", "", // Soft hyphen
	"\u2060", "", // Word joiner
	"\u180E", "", // Mongolian vowel separator
)

// RemoveInvisible removes zero-width and other invisible characters.
func RemoveInvisible(s string) string {
	return invisibleChars.Replace(s)
}

// CleanField removes invisible characters and surrounding whitespace.
// Used for email addresses and API keys, never for passwords.
func CleanField(s string) string {
	return strings.TrimSpace(RemoveInvisible(s))
}

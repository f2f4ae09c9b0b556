package api

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/breachnotifier/breach-notifier/internal/constants"
)

// RangeEntry is one SUFFIX:COUNT line of a range response.
type RangeEntry struct {
	Suffix string
	Count  int64
}

// PwnedPasswordsClient queries the k-anonymity range API. Only the first
// five hex characters of the SHA-1 hash ever leave the machine.
type PwnedPasswordsClient struct {
	opts    ClientOptions
	padding bool
}

// NewPwnedPasswordsClient creates a range API client. With padding enabled
// every response is padded with zero-count entries so its size does not
// reveal the prefix.
func NewPwnedPasswordsClient(opts ClientOptions, padding bool) *PwnedPasswordsClient {
	return &PwnedPasswordsClient{
		opts:    opts.withDefaults(constants.PwnedPasswordsBaseURL),
		padding: padding,
	}
}

// HashPassword returns the uppercase hex SHA-1 of password split into the
// prefix sent to the API and the suffix matched locally.
func HashPassword(password string) (prefix, suffix string) {
	sum := sha1.Sum([]byte(password))
	hash := strings.ToUpper(hex.EncodeToString(sum[:]))
	return hash[:constants.RangePrefixLength], hash[constants.RangePrefixLength:]
}

func validPrefix(prefix string) bool {
	if len(prefix) != constants.RangePrefixLength {
		return false
	}
	for _, c := range prefix {
		if !strings.ContainsRune("0123456789ABCDEFabcdef", c) {
			return false
		}
	}
	return true
}

// Range returns all suffixes known for a 5-character hash prefix.
func (c *PwnedPasswordsClient) Range(ctx context.Context, prefix string) ([]RangeEntry, error) {
	if !validPrefix(prefix) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix)
	}

	headers := map[string]string{}
	if c.padding {
		headers["Add-Padding"] = "true"
	}

	body, err := doGet(ctx, c.opts, constants.ProviderPwnedPasswords, c.opts.BaseURL+"/range/"+strings.ToUpper(prefix), headers)
	if err != nil {
		return nil, err
	}
	return ParseRange(body)
}

// Count returns how many times password appears in the corpus (0 if never).
// Padding entries carry a count of 0 and never match.
func (c *PwnedPasswordsClient) Count(ctx context.Context, password string) (int64, error) {
	prefix, suffix := HashPassword(password)

	entries, err := c.Range(ctx, prefix)
	if err != nil {
		return 0, err
	}

	for _, e := range entries {
		if e.Count > 0 && strings.EqualFold(e.Suffix, suffix) {
			return e.Count, nil
		}
	}
	return 0, nil
}

// ParseRange parses a range response body. Lines are SUFFIX:COUNT separated
// by CRLF or LF; blank lines are ignored.
func ParseRange(body []byte) ([]RangeEntry, error) {
	var entries []RangeEntry

	scanner := bufio.NewScanner(bytes.NewReader(body))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		suffix, count, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("malformed range line %d: %q", lineNo, line)
		}
		n, err := strconv.ParseInt(strings.TrimSpace(count), 10, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("malformed count on range line %d: %q", lineNo, line)
		}
		entries = append(entries, RangeEntry{Suffix: strings.TrimSpace(suffix), Count: n})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read range response: %w", err)
	}
	return entries, nil
}

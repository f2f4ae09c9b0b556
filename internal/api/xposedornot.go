package api

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/breachnotifier/breach-notifier/internal/constants"
)

type xposedOrNotResponse struct {
	SearchPassAnon struct {
		Anon  string `json:"anon"`
		Char  string `json:"char"`
		Count string `json:"count"`
	} `json:"SearchPassAnon"`
}

// XposedOrNotClient is the alternative password provider. It sends the
// first ten hex characters of the password's Keccak-512 hash.
type XposedOrNotClient struct {
	opts ClientOptions
}

// NewXposedOrNotClient creates an XposedOrNot password client.
func NewXposedOrNotClient(opts ClientOptions) *XposedOrNotClient {
	return &XposedOrNotClient{opts: opts.withDefaults(constants.XposedOrNotPasswordsBaseURL)}
}

// KeccakPrefix returns the lowercase hex Keccak-512 prefix sent for password.
func KeccakPrefix(password string) string {
	h := sha3.NewLegacyKeccak512()
	h.Write([]byte(password))
	return hex.EncodeToString(h.Sum(nil))[:constants.XposedOrNotPrefixLength]
}

// Count returns how many times password was seen. An unknown password
// yields ErrNotFound.
func (c *XposedOrNotClient) Count(ctx context.Context, password string) (int64, error) {
	u := c.opts.BaseURL + "/api/v1/pass/anon/" + KeccakPrefix(password)
	body, err := doGet(ctx, c.opts, constants.ProviderXposedOrNot, u, map[string]string{"Accept": "application/json"})
	if err != nil {
		return 0, err
	}

	var resp xposedOrNotResponse
	if err := decodeJSON(constants.ProviderXposedOrNot, body, &resp); err != nil {
		return 0, err
	}

	raw := strings.TrimSpace(resp.SearchPassAnon.Count)
	if raw == "" {
		return 0, ErrNotFound
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s count %q: %w", constants.ProviderXposedOrNot, raw, err)
	}
	return n, nil
}

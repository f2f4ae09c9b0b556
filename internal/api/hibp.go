package api

import (
	"context"
	"net/url"

	"github.com/breachnotifier/breach-notifier/internal/constants"
)

// Breach is a breach record as returned by HIBP v3 with truncateResponse=false.
type Breach struct {
	Name         string   `json:"Name"`
	Title        string   `json:"Title"`
	Domain       string   `json:"Domain"`
	BreachDate   string   `json:"BreachDate"`
	AddedDate    string   `json:"AddedDate"`
	ModifiedDate string   `json:"ModifiedDate,omitempty"`
	PwnCount     int64    `json:"PwnCount"`
	Description  string   `json:"Description"` // HTML
	LogoPath     string   `json:"LogoPath,omitempty"`
	DataClasses  []string `json:"DataClasses"`
	IsVerified   bool     `json:"IsVerified"`
	IsFabricated bool     `json:"IsFabricated"`
	IsSensitive  bool     `json:"IsSensitive"`
	IsRetired    bool     `json:"IsRetired"`
	IsSpamList   bool     `json:"IsSpamList"`
	IsMalware    bool     `json:"IsMalware"`
}

// Paste is a paste record from /pasteaccount.
type Paste struct {
	Source     string `json:"Source"`
	ID         string `json:"Id"`
	Title      string `json:"Title"`
	Date       string `json:"Date"`
	EmailCount int    `json:"EmailCount"`
}

// SubscriptionStatus describes the HIBP subscription behind an API key.
type SubscriptionStatus struct {
	SubscriptionName string `json:"SubscriptionName"`
	Description      string `json:"Description"`
	SubscribedUntil  string `json:"SubscribedUntil"`
	Rpm              int    `json:"Rpm"`
}

// BreachOptions tunes a breachedaccount query.
type BreachOptions struct {
	IncludeUnverified bool
	// Domain restricts results to breaches of a single site.
	Domain string
}

// HIBPClient talks to the Have I Been Pwned v3 API.
type HIBPClient struct {
	opts ClientOptions
}

// NewHIBPClient creates a HIBP client. Every endpoint it uses requires an API key.
func NewHIBPClient(opts ClientOptions) *HIBPClient {
	return &HIBPClient{opts: opts.withDefaults(constants.HIBPBaseURL)}
}

// HasAPIKey reports whether a key is configured.
func (c *HIBPClient) HasAPIKey() bool {
	return c.opts.APIKey != ""
}

func (c *HIBPClient) get(ctx context.Context, path string, query url.Values, v interface{}) error {
	if c.opts.APIKey == "" {
		return ErrMissingAPIKey
	}

	u := c.opts.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	body, err := doGet(ctx, c.opts, constants.ProviderHIBP, u, map[string]string{
		"hibp-api-key": c.opts.APIKey,
		"Accept":       "application/json",
	})
	if err != nil {
		return err
	}
	return decodeJSON(constants.ProviderHIBP, body, v)
}

// BreachedAccount returns every breach the account appears in.
// An account with no breaches yields ErrNotFound.
func (c *HIBPClient) BreachedAccount(ctx context.Context, account string, opts BreachOptions) ([]Breach, error) {
	query := url.Values{}
	query.Set("truncateResponse", "false")
	if opts.IncludeUnverified {
		query.Set("includeUnverified", "true")
	}
	if opts.Domain != "" {
		query.Set("domain", opts.Domain)
	}

	var breaches []Breach
	if err := c.get(ctx, "/breachedaccount/"+url.PathEscape(account), query, &breaches); err != nil {
		return nil, err
	}
	return breaches, nil
}

// PasteAccount returns the pastes the account appears in.
// An account with no pastes yields ErrNotFound.
func (c *HIBPClient) PasteAccount(ctx context.Context, account string) ([]Paste, error) {
	var pastes []Paste
	if err := c.get(ctx, "/pasteaccount/"+url.PathEscape(account), nil, &pastes); err != nil {
		return nil, err
	}
	return pastes, nil
}

// SubscriptionStatus returns the subscription of the configured key. It is
// the cheapest authenticated call and is used to test a key.
func (c *HIBPClient) SubscriptionStatus(ctx context.Context) (*SubscriptionStatus, error) {
	var status SubscriptionStatus
	if err := c.get(ctx, "/subscription/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

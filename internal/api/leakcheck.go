package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/breachnotifier/breach-notifier/internal/constants"
)

// LeakCheckSource is a breach source reported by LeakCheck.
type LeakCheckSource struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

// LeakCheckResult is the normalized answer of either LeakCheck API.
type LeakCheckResult struct {
	Found   int               `json:"found"`
	Sources []LeakCheckSource `json:"sources"`
	// Fields lists the kinds of data exposed (username, password, ...).
	Fields []string `json:"fields"`
}

type leakCheckPublicResponse struct {
	Success bool              `json:"success"`
	Found   int               `json:"found"`
	Fields  []string          `json:"fields"`
	Sources []LeakCheckSource `json:"sources"`
	Error   string            `json:"error"`
}

type leakCheckV2Response struct {
	Success bool   `json:"success"`
	Found   int    `json:"found"`
	Error   string `json:"error"`
	Result  []struct {
		Email  string `json:"email"`
		Source struct {
			Name       string `json:"name"`
			BreachDate string `json:"breach_date"`
		} `json:"source"`
		Fields []string `json:"fields"`
	} `json:"result"`
}

// LeakCheckClient queries LeakCheck, the email fallback. Without a key the
// public API is used; with one, the v2 query API.
type LeakCheckClient struct {
	opts ClientOptions
}

// NewLeakCheckClient creates a LeakCheck client.
func NewLeakCheckClient(opts ClientOptions) *LeakCheckClient {
	return &LeakCheckClient{opts: opts.withDefaults(constants.LeakCheckBaseURL)}
}

// Lookup returns the breaches LeakCheck knows for email.
// An unknown email yields ErrNotFound.
func (c *LeakCheckClient) Lookup(ctx context.Context, email string) (*LeakCheckResult, error) {
	if c.opts.APIKey != "" {
		return c.lookupV2(ctx, email)
	}
	return c.lookupPublic(ctx, email)
}

func (c *LeakCheckClient) lookupPublic(ctx context.Context, email string) (*LeakCheckResult, error) {
	u := c.opts.BaseURL + "/api/public?check=" + url.QueryEscape(email)
	body, err := doGet(ctx, c.opts, constants.ProviderLeakCheck, u, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}

	var resp leakCheckPublicResponse
	if err := decodeJSON(constants.ProviderLeakCheck, body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, leakCheckFailure(resp.Error)
	}
	if resp.Found == 0 {
		return nil, ErrNotFound
	}

	return &LeakCheckResult{
		Found:   resp.Found,
		Sources: resp.Sources,
		Fields:  resp.Fields,
	}, nil
}

func (c *LeakCheckClient) lookupV2(ctx context.Context, email string) (*LeakCheckResult, error) {
	u := c.opts.BaseURL + "/api/v2/query/" + url.PathEscape(email) + "?type=email"
	body, err := doGet(ctx, c.opts, constants.ProviderLeakCheck, u, map[string]string{
		"Accept":    "application/json",
		"X-API-Key": c.opts.APIKey,
	})
	if err != nil {
		return nil, err
	}

	var resp leakCheckV2Response
	if err := decodeJSON(constants.ProviderLeakCheck, body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, leakCheckFailure(resp.Error)
	}
	if resp.Found == 0 || len(resp.Result) == 0 {
		return nil, ErrNotFound
	}

	result := &LeakCheckResult{Found: resp.Found}
	seenSource := make(map[string]bool)
	seenField := make(map[string]bool)
	for _, r := range resp.Result {
		if name := r.Source.Name; name != "" && !seenSource[name] {
			seenSource[name] = true
			result.Sources = append(result.Sources, LeakCheckSource{Name: name, Date: r.Source.BreachDate})
		}
		for _, f := range r.Fields {
			if !seenField[f] {
				seenField[f] = true
				result.Fields = append(result.Fields, f)
			}
		}
	}
	return result, nil
}

// leakCheckFailure maps a success:false body to an error. LeakCheck reports
// unknown emails as an error string rather than a status code.
func leakCheckFailure(msg string) error {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "not found"):
		return ErrNotFound
	case strings.Contains(lower, "limit"):
		return &APIError{Provider: constants.ProviderLeakCheck, StatusCode: http.StatusTooManyRequests, Message: msg}
	case strings.Contains(lower, "key"):
		return &APIError{Provider: constants.ProviderLeakCheck, StatusCode: http.StatusUnauthorized, Message: msg}
	default:
		return &APIError{Provider: constants.ProviderLeakCheck, StatusCode: http.StatusBadRequest, Message: msg}
	}
}

package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/breachnotifier/breach-notifier/internal/constants"
	bnhttp "github.com/breachnotifier/breach-notifier/internal/http"
	"github.com/breachnotifier/breach-notifier/internal/logging"
	"github.com/breachnotifier/breach-notifier/internal/version"
)

// ClientOptions configures a service client. Zero values select production defaults.
type ClientOptions struct {
	// HTTPClient is normally the stack built by http.NewAPIClient.
	HTTPClient *http.Client
	// BaseURL overrides the service endpoint (tests, mirrors).
	BaseURL string
	// APIKey is sent by services that take one.
	APIKey string
	// UserAgent defaults to version.UserAgent(). HIBP rejects requests without one.
	UserAgent string
	Logger    *logging.Logger
}

func (o ClientOptions) withDefaults(baseURL string) ClientOptions {
	if o.HTTPClient == nil {
		o.HTTPClient = http.DefaultClient
	}
	if o.BaseURL == "" {
		o.BaseURL = baseURL
	}
	o.BaseURL = strings.TrimSuffix(o.BaseURL, "/")
	if o.UserAgent == "" {
		o.UserAgent = version.UserAgent()
	}
	if o.Logger == nil {
		o.Logger = logging.Nop()
	}
	return o
}

// errorBody is the JSON error shape shared by HIBP ({"statusCode","message"})
// and LeakCheck ({"success":false,"error"}).
type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error"`
}

// doGet performs a GET and returns the body of a 2xx response. Any other
// status becomes an *APIError.
func doGet(ctx context.Context, opts ClientOptions, provider, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", opts.UserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", provider, err)
	}
	defer resp.Body.Close()

	opts.Logger.Debug().
		Str("provider", provider).
		Int("status", resp.StatusCode).
		Bool("cached", bnhttp.IsCachedResponse(resp)).
		Dur("elapsed", time.Since(start)).
		Msg("API response")

	body, err := io.ReadAll(io.LimitReader(resp.Body, constants.MaxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", provider, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return body, newAPIError(provider, resp, body)
	}
	return body, nil
}

func newAPIError(provider string, resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
	}
	if wait, ok := bnhttp.ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()); ok {
		apiErr.RetryAfter = wait
	}

	var eb errorBody
	if len(body) > 0 && sonic.Unmarshal(body, &eb) == nil {
		if eb.Message != "" {
			apiErr.Message = eb.Message
		} else {
			apiErr.Message = eb.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func decodeJSON(provider string, body []byte, v interface{}) error {
	if err := sonic.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", provider, err)
	}
	return nil
}

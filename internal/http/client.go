package http

import (
	"fmt"
	nethttp "net/http"

	"github.com/gregjones/httpcache"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/breachnotifier/breach-notifier/internal/config"
	"github.com/breachnotifier/breach-notifier/internal/constants"
	"github.com/breachnotifier/breach-notifier/internal/logging"
	"github.com/breachnotifier/breach-notifier/internal/ratelimit"
)

// credentialHeaders are request headers carrying an API key. Requests that
// send one are never served from or stored in the shared cache.
var credentialHeaders = []string{"hibp-api-key", "X-API-Key"}

// retryLogger implements the retryablehttp.LeveledLogger interface on top of zerolog.
type retryLogger struct {
	logger *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}

// NewAPIClient creates the HTTP client used by every breach API client.
//
// Transport stack, outermost first:
//  1. go-retryablehttp (status-aware retry, Retry-After-aware backoff)
//  2. httpcache in-memory cache for anonymous GETs (range responses are cacheable)
//  3. per-scope rate limiting from the registry
//  4. brotli/gzip response decoding
//  5. proxy transport from ConfigureHTTPClient
func NewAPIClient(cfg *config.Config, logger *logging.Logger, registry *ratelimit.Registry) (*nethttp.Client, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	if registry == nil {
		registry = ratelimit.NewRegistry(cfg.HIBPRatePerMinute, logger)
	}

	base, err := ConfigureHTTPClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}

	return wrapTransport(base.Transport, cfg.MaxRetries, logger, registry), nil
}

// wrapTransport builds the client stack above an arbitrary base transport.
func wrapTransport(base nethttp.RoundTripper, maxRetries int, logger *logging.Logger, registry *ratelimit.Registry) *nethttp.Client {
	if base == nil {
		base = nethttp.DefaultTransport
	}

	limited := &rateLimitTransport{
		next:     &decodingTransport{next: base},
		registry: registry,
		logger:   logger,
	}

	cache := httpcache.NewTransport(httpcache.NewMemoryCache())
	cache.Transport = limited
	cache.MarkCachedResponses = true

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = &nethttp.Client{
		Transport: &selectiveCacheTransport{cached: cache, direct: limited},
	}
	retryClient.RetryMax = maxRetries
	retryClient.RetryWaitMin = constants.RetryWaitMin
	retryClient.RetryWaitMax = constants.RetryWaitMax
	retryClient.CheckRetry = CheckRetry
	retryClient.Backoff = Backoff
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = &retryLogger{logger: logger}

	return retryClient.StandardClient()
}

// selectiveCacheTransport sends anonymous requests through the cache and
// authenticated ones straight to the network.
type selectiveCacheTransport struct {
	cached nethttp.RoundTripper
	direct nethttp.RoundTripper
}

func (t *selectiveCacheTransport) RoundTrip(req *nethttp.Request) (*nethttp.Response, error) {
	for _, h := range credentialHeaders {
		if req.Header.Get(h) != "" {
			return t.direct.RoundTrip(req)
		}
	}
	return t.cached.RoundTrip(req)
}

// IsCachedResponse reports whether resp was served from the in-memory cache.
func IsCachedResponse(resp *nethttp.Response) bool {
	return resp != nil && resp.Header.Get(httpcache.XFromCache) == "1"
}

// rateLimitTransport waits on the limiter of the request's scope before
// every network round trip.
type rateLimitTransport struct {
	next     nethttp.RoundTripper
	registry *ratelimit.Registry
	logger   *logging.Logger
}

func (t *rateLimitTransport) RoundTrip(req *nethttp.Request) (*nethttp.Response, error) {
	scope, limiter := t.registry.LimiterFor(req.URL.Host, req.URL.Path)
	if !limiter.Allow() {
		t.logger.Debug().
			Str("scope", t.registry.ScopeDisplayString(scope)).
			Float64("tokens", limiter.GetCurrentTokens()).
			Msg("Waiting for rate limit")
		if err := limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter cancelled: %w", err)
		}
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		t.logger.Debug().Err(err).Str("host", req.URL.Host).Msg("Request failed")
		return nil, err
	}

	if resp.StatusCode == nethttp.StatusTooManyRequests {
		t.logger.Warn().
			Str("scope", t.registry.ScopeDisplayString(scope)).
			Str("retry_after", resp.Header.Get("Retry-After")).
			Msg("Rate limit hit (429)")
	}
	return resp, nil
}

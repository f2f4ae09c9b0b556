package http

import (
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breachnotifier/breach-notifier/internal/logging"
	"github.com/breachnotifier/breach-notifier/internal/ratelimit"
)

func newTestClient(maxRetries int) *nethttp.Client {
	return wrapTransport(nethttp.DefaultTransport, maxRetries, logging.Nop(), ratelimit.NewRegistry(60, nil))
}

func TestAPIClient_RetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(nethttp.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	resp, err := newTestClient(2).Get(srv.URL + "/range/ABCDE")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestAPIClient_PassesThroughLongRateLimit(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Retry-After", "3600")
		w.WriteHeader(nethttp.StatusTooManyRequests)
	}))
	defer srv.Close()

	resp, err := newTestClient(3).Get(srv.URL + "/api/v3/breachedaccount/x")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, nethttp.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "3600", resp.Header.Get("Retry-After"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestAPIClient_NotFoundIsNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(nethttp.StatusNotFound)
	}))
	defer srv.Close()

	resp, err := newTestClient(3).Get(srv.URL + "/api/v3/breachedaccount/clean@example.com")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestAPIClient_CachesAnonymousRequestsOnly(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Cache-Control", "public, max-age=600")
		_, _ = w.Write([]byte("SUFFIX:1\r\n"))
	}))
	defer srv.Close()

	client := newTestClient(0)
	get := func(key string) *nethttp.Response {
		req, err := nethttp.NewRequest(nethttp.MethodGet, srv.URL+"/range/ABCDE", nil)
		require.NoError(t, err)
		if key != "" {
			req.Header.Set("hibp-api-key", key)
		}
		resp, err := client.Do(req)
		require.NoError(t, err)
		_, _ = io.ReadAll(resp.Body)
		resp.Body.Close()
		return resp
	}

	assert.False(t, IsCachedResponse(get("")))
	assert.True(t, IsCachedResponse(get("")))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	assert.False(t, IsCachedResponse(get("secret")))
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLeakCheck(t *testing.T, key string, handler http.HandlerFunc) *LeakCheckClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewLeakCheckClient(ClientOptions{BaseURL: srv.URL, APIKey: key})
}

func TestLeakCheckPublicFound(t *testing.T) {
	client := newLeakCheck(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/public", r.URL.Path)
		assert.Equal(t, "a@b.co", r.URL.Query().Get("check"))
		assert.Empty(t, r.Header.Get("X-API-Key"))
		_, _ = w.Write([]byte(`{"success":true,"found":2,"fields":["username","password"],"sources":[{"name":"Canva.com","date":"2019-05"},{"name":"Zynga.com","date":"2019-09"}]}`))
	})

	res, err := client.Lookup(context.Background(), "a@b.co")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Found)
	assert.Equal(t, []LeakCheckSource{{Name: "Canva.com", Date: "2019-05"}, {Name: "Zynga.com", Date: "2019-09"}}, res.Sources)
	assert.Equal(t, []string{"username", "password"}, res.Fields)
}

func TestLeakCheckPublicNotFound(t *testing.T) {
	client := newLeakCheck(t, "", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"Not found"}`))
	})

	_, err := client.Lookup(context.Background(), "clean@b.co")
	assert.True(t, IsNotFound(err), "unexpected error: %v", err)
}

func TestLeakCheckPublicFailure(t *testing.T) {
	client := newLeakCheck(t, "", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"Invalid characters in query"}`))
	})

	_, err := client.Lookup(context.Background(), "bad")
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
}

func TestLeakCheckV2(t *testing.T) {
	client := newLeakCheck(t, "lc-key", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/query/a@b.co", r.URL.Path)
		assert.Equal(t, "email", r.URL.Query().Get("type"))
		assert.Equal(t, "lc-key", r.Header.Get("X-API-Key"))
		_, _ = w.Write([]byte(`{"success":true,"found":3,"quota":400,"result":[
			{"email":"a@b.co","source":{"name":"Canva.com","breach_date":"2019-05"},"fields":["username"]},
			{"email":"a@b.co","source":{"name":"Canva.com","breach_date":"2019-05"},"fields":["password"]},
			{"email":"a@b.co","source":{"name":"Zynga.com","breach_date":"2019-09"},"fields":["username","phone"]}
		]}`))
	})

	res, err := client.Lookup(context.Background(), "a@b.co")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Found)
	assert.Equal(t, []LeakCheckSource{{Name: "Canva.com", Date: "2019-05"}, {Name: "Zynga.com", Date: "2019-09"}}, res.Sources)
	assert.Equal(t, []string{"username", "password", "phone"}, res.Fields)
}

func TestLeakCheckV2Errors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		client := newLeakCheck(t, "k", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"error":"Not found"}`))
		})
		_, err := client.Lookup(context.Background(), "a@b.co")
		assert.True(t, IsNotFound(err))
	})

	t.Run("bad key", func(t *testing.T) {
		client := newLeakCheck(t, "k", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"error":"Invalid X-API-Key"}`))
		})
		_, err := client.Lookup(context.Background(), "a@b.co")
		assert.True(t, IsUnauthorized(err))
		var msg string
		if apiErr, ok := err.(*APIError); ok {
			msg = apiErr.Message
		}
		assert.Equal(t, "Invalid X-API-Key", msg)
	})
}

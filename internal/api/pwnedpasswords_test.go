package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SHA-1("password") = 5BAA61E4C9B93F3F0682250B6CF8331B7EE68FD8
const (
	passwordPrefix = "5BAA6"
	passwordSuffix = "1E4C9B93F3F0682250B6CF8331B7EE68FD8"
)

func TestHashPassword(t *testing.T) {
	prefix, suffix := HashPassword("password")
	assert.Equal(t, passwordPrefix, prefix)
	assert.Equal(t, passwordSuffix, suffix)
}

func TestParseRange(t *testing.T) {
	body := []byte("003D68EB55068C33ACE09247EE4C639306B:3\r\n" +
		passwordSuffix + ":9545824\r\n" +
		"\r\n" +
		"FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF:0\n")

	entries, err := ParseRange(body)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, RangeEntry{Suffix: "003D68EB55068C33ACE09247EE4C639306B", Count: 3}, entries[0])
	assert.Equal(t, int64(9545824), entries[1].Count)
	assert.Equal(t, int64(0), entries[2].Count)
}

func TestParseRangeMalformed(t *testing.T) {
	for _, body := range []string{"NOCOLON\r\n", "ABC:notanumber\r\n", "ABC:-1\r\n"} {
		_, err := ParseRange([]byte(body))
		assert.Error(t, err, "body %q", body)
	}
}

func newPwned(t *testing.T, padding bool, handler http.HandlerFunc) *PwnedPasswordsClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewPwnedPasswordsClient(ClientOptions{BaseURL: srv.URL}, padding)
}

func TestPwnedPasswordsCount(t *testing.T) {
	client := newPwned(t, true, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/range/"+passwordPrefix, r.URL.Path)
		assert.Equal(t, "true", r.Header.Get("Add-Padding"))
		assert.NotContains(t, r.URL.String(), passwordSuffix)
		_, _ = w.Write([]byte("0018A45C4D1DEF81644B54AB7F969B88D65:1\r\n" + passwordSuffix + ":9545824\r\n"))
	})

	count, err := client.Count(context.Background(), "password")
	require.NoError(t, err)
	assert.Equal(t, int64(9545824), count)
}

func TestPwnedPasswordsCountNoMatch(t *testing.T) {
	client := newPwned(t, false, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Add-Padding"))
		_, _ = w.Write([]byte("0018A45C4D1DEF81644B54AB7F969B88D65:1\r\n"))
	})

	count, err := client.Count(context.Background(), "password")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPwnedPasswordsPaddingNeverMatches(t *testing.T) {
	client := newPwned(t, true, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(passwordSuffix + ":0\r\n"))
	})

	count, err := client.Count(context.Background(), "password")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPwnedPasswordsRangeRejectsBadPrefix(t *testing.T) {
	client := newPwned(t, false, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	for _, prefix := range []string{"", "5BAA", "5BAA61", "GGGGG"} {
		_, err := client.Range(context.Background(), prefix)
		assert.ErrorIs(t, err, ErrInvalidPrefix, "prefix %q", prefix)
	}
}

func TestPwnedPasswordsAPIError(t *testing.T) {
	client := newPwned(t, false, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := client.Count(context.Background(), "password")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
}

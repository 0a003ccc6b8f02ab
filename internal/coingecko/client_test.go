package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimplePrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "klever", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		_, _ = w.Write([]byte(`{"klever":{"usd":0.0045,"usd_24h_change":-2.31}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	quote, err := c.SimplePrice(context.Background(), "klever")
	require.NoError(t, err)
	assert.Equal(t, 0.0045, quote.USD)
	assert.Equal(t, -2.31, quote.USD24hChange)
}

func TestSimplePrice_UnknownID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	quote, err := c.SimplePrice(context.Background(), "no-such-coin")
	require.NoError(t, err)
	assert.Zero(t, quote.USD)
}

func TestSimplePrice_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"status":{"error_code":429}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.SimplePrice(context.Background(), "klever")
	require.Error(t, err)

	httpErr, ok := err.(*HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	assert.Contains(t, httpErr.Error(), "429")
}

func TestSimplePrice_APIKeyHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-cg-demo-api-key"))
		_, _ = w.Write([]byte(`{"klever":{"usd":1}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	_, err := c.SimplePrice(context.Background(), "klever")
	require.NoError(t, err)
}

func TestAnchorSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"klever":{"usd":0.0045,"usd_24h_change":1.5}}`))
	}))
	defer srv.Close()

	src := NewAnchorSource(NewClient(srv.URL, ""), "klever")
	quote, err := src.FetchAnchor(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0045, quote.USD)
	assert.Equal(t, 1.5, quote.Change24h)
	assert.False(t, quote.FetchedAt.IsZero())
}

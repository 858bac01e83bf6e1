package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRetryingRetriesOn5xxThenSucceeds(t *testing.T) {
	t.Parallel()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewRateLimitedClient("test-agent")
	body, err := c.GetRetrying(context.Background(), srv.URL, "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetRetryingDoesNotRetry4xx(t *testing.T) {
	t.Parallel()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewRateLimitedClient("test-agent")
	_, err := c.GetRetrying(context.Background(), srv.URL, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIdentityFetchFailed)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetRetryingSendsAuthorizationHeader(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewRateLimitedClient("test-agent")
	_, err := c.GetRetrying(context.Background(), srv.URL, "Bearer abc")
	require.NoError(t, err)
}

func TestGetRetryingNonOKStatusFails(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewRateLimitedClient("test-agent")
	_, err := c.GetRetrying(context.Background(), srv.URL, "")
	assert.ErrorIs(t, err, ErrIdentityFetchFailed)
}

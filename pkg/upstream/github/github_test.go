package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/takagi/pkg/upstream"
)

func newTestServer(t *testing.T, orgsFail bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer gho_test", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":         int64(42),
			"login":      "octocat",
			"name":       "The Octocat",
			"avatar_url": "https://example.com/a.png",
			"html_url":   "https://github.com/octocat",
			"email":      "octo@example.com",
		})
	})
	mux.HandleFunc("/user/orgs", func(w http.ResponseWriter, _ *http.Request) {
		if orgsFail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{{"login": "acme"}})
	})
	return httptest.NewServer(mux)
}

func adapterAgainst(srv *httptest.Server) *Adapter {
	a := New("client-id", "client-secret", "https://takagi.example.com/callback/github")
	a.userURL = srv.URL + "/user"
	a.orgsURL = srv.URL + "/user/orgs"
	return a
}

func TestFetchIdentityPopulatesSnapshot(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, false)
	defer srv.Close()

	snapshot, err := adapterAgainst(srv).FetchIdentity(context.Background(), "gho_test", false)
	require.NoError(t, err)
	assert.Equal(t, "42", snapshot.ID)
	assert.Equal(t, "octocat", snapshot.Username)
	assert.Equal(t, "The Octocat", snapshot.Name)
	assert.True(t, snapshot.EmailVerified)
	assert.Nil(t, snapshot.Groups)
}

func TestFetchIdentityWithGroups(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, false)
	defer srv.Close()

	snapshot, err := adapterAgainst(srv).FetchIdentity(context.Background(), "gho_test", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"acme"}, snapshot.Groups)
}

func TestFetchIdentityOrgsFailureDropsGroupsButSucceeds(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, true)
	defer srv.Close()

	snapshot, err := adapterAgainst(srv).FetchIdentity(context.Background(), "gho_test", true)
	require.NoError(t, err)
	assert.Nil(t, snapshot.Groups)
}

func TestFetchIdentityMissingIDFails(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"login": "nouser"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := adapterAgainst(srv).FetchIdentity(context.Background(), "gho_test", false)
	require.Error(t, err)
}

func TestRefreshIsUnsupported(t *testing.T) {
	t.Parallel()
	a := New("id", "secret", "https://takagi.example.com/callback/github")
	_, err := a.Refresh(context.Background(), "whatever")
	require.ErrorIs(t, err, upstream.ErrRefreshUnsupported)
}

func TestMinimumScopesIsEmpty(t *testing.T) {
	t.Parallel()
	a := New("id", "secret", "https://takagi.example.com/callback/github")
	assert.Empty(t, a.MinimumScopes())
}

func TestAuthCodeURLIncludesScopes(t *testing.T) {
	t.Parallel()
	a := New("id", "secret", "https://takagi.example.com/callback/github")
	url := a.AuthCodeURL("state-1", []string{"read:user", "user:email"})
	assert.Contains(t, url, "state-1")
	assert.Contains(t, url, "read%3Auser")
}

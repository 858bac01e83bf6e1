package flow

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stacklok/takagi/pkg/claims"
	"github.com/stacklok/takagi/pkg/hostpolicy"
	"github.com/stacklok/takagi/pkg/keyset"
	"github.com/stacklok/takagi/pkg/token"
	"github.com/stacklok/takagi/pkg/txstore"
	"github.com/stacklok/takagi/pkg/upstream"
)

// fakeAdapter is a scriptable upstream.Adapter double shared by every
// pkg/flow test — fakeAdapter.Name() returns "fake" and AuthCodeURL just
// echoes its inputs, leaving the interesting behavior to the scripted
// functions below.
type fakeAdapter struct {
	name string

	exchangeTokens upstream.Tokens
	exchangeErr    error

	refreshTokens upstream.Tokens
	refreshErr    error

	snapshot    claims.Snapshot
	identityErr error

	minimumScopes []string
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) AuthCodeURL(state string, scopes []string) string {
	return fmt.Sprintf("https://upstream.example.com/auth?state=%s&scopes=%v", state, scopes)
}

func (f *fakeAdapter) ExchangeCode(_ context.Context, _ string) (upstream.Tokens, error) {
	return f.exchangeTokens, f.exchangeErr
}

func (f *fakeAdapter) Refresh(_ context.Context, _ string) (upstream.Tokens, error) {
	return f.refreshTokens, f.refreshErr
}

func (f *fakeAdapter) FetchIdentity(_ context.Context, _ string, _ bool) (claims.Snapshot, error) {
	return f.snapshot, f.identityErr
}

func (f *fakeAdapter) MinimumScopes() []string { return f.minimumScopes }

// testHarness bundles a fully-wired Engine plus its collaborators, so
// each test can reach into the store or mint tokens directly.
type testHarness struct {
	engine   *Engine
	store    txstore.Store
	tokens   *token.Service
	adapter  *fakeAdapter
	hosts    *hostpolicy.HostAllowlist
}

func newHarness(t *testing.T, cfg Config) *testHarness {
	t.Helper()

	store := txstore.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	km, err := keyset.NewManaged(t.TempDir())
	require.NoError(t, err)

	svc := token.NewService(km, time.Hour)

	adapter := &fakeAdapter{
		name: "fake",
		exchangeTokens: upstream.Tokens{
			AccessToken:  "upstream-access-token",
			RefreshToken: "upstream-refresh-token",
		},
		snapshot: claims.Snapshot{
			ID:       "1001",
			Username: "octocat",
			Email:    "octocat@example.com",
		},
	}

	hosts := hostpolicy.NewHostAllowlist([]string{"takagi.example.com"})

	if cfg.AllowedClients == nil {
		cfg.AllowedClients = []string{"rp-client"}
	}

	engine := NewEngine(store, adapter, svc, hosts, cfg)

	return &testHarness{engine: engine, store: store, tokens: svc, adapter: adapter, hosts: hosts}
}

func (h *testHarness) rc(now time.Time) RequestContext {
	return RequestContext{
		Scheme:   "https",
		Host:     "takagi.example.com",
		BasePath: "",
		Now:      now,
	}
}

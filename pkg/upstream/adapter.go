// Package upstream defines the capability Takagi needs from whichever
// identity provider a deployment is configured against. pkg/upstream/github
// and pkg/upstream/discord are its two implementations.
package upstream

import (
	"context"
	"time"

	"github.com/stacklok/takagi/pkg/claims"
)

// Tokens is the result of a code or refresh exchange with the upstream.
// RefreshToken and ExpiresAt are zero when the upstream issues
// non-expiring tokens (GitHub's OAuth Apps do).
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Adapter is the capability interface every upstream identity provider
// implements. A Takagi deployment wires exactly one Adapter; the Flow
// Engine depends only on this interface, never on a concrete provider
// package, so new providers plug in without touching the flow.
type Adapter interface {
	// Name identifies the adapter for logging and the AuthorizationRequest
	// Upstream tag ("github", "discord").
	Name() string

	// AuthCodeURL builds the upstream authorization endpoint URL for the
	// given opaque state value and requested scopes.
	AuthCodeURL(state string, scopes []string) string

	// ExchangeCode redeems an authorization code at the upstream's token
	// endpoint.
	ExchangeCode(ctx context.Context, code string) (Tokens, error)

	// Refresh redeems a refresh token at the upstream's token endpoint.
	// Returns ErrRefreshUnsupported when the upstream does not issue
	// refresh tokens (GitHub).
	Refresh(ctx context.Context, refreshToken string) (Tokens, error)

	// FetchIdentity retrieves the user's profile and, when groups is
	// true, their organization/guild memberships, and normalizes both
	// into a claims.Snapshot.
	FetchIdentity(ctx context.Context, accessToken string, groups bool) (claims.Snapshot, error)

	// MinimumScopes returns the scopes this upstream requires regardless
	// of what the relying party requested (Discord's "identify" floor).
	MinimumScopes() []string
}

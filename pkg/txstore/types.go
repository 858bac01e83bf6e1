// Package txstore holds the short-lived transaction and single-use code
// records the Flow Engine threads through /authorize, the upstream
// callback, /token, and refresh_token grants.
package txstore

import (
	"time"

	"github.com/stacklok/takagi/pkg/claims"
)

// AuthorizationRequest is the transaction record created at /authorize
// and consumed exactly once at the upstream callback.
type AuthorizationRequest struct {
	StateRef            string
	ClientID             string
	Scopes               map[string]bool
	RedirectURI          string
	State                string
	Nonce                string
	CodeChallenge        string
	CodeChallengeMethod  string
	Referer              string
	ReturnToReferrer     bool
	Issuer               string
	CreatedAt            time.Time
	ExpiresAt            time.Time

	// Upstream names which upstream adapter variant ("github" or
	// "discord") originated this transaction.
	Upstream string

	// MaxAge, when non-nil, is the requested max_age in seconds; echoed
	// into the eventual ID token's auth_time claim.
	MaxAge *int64
}

// AuthorizationCode is the opaque, single-use code returned to the
// relying party's redirect URI after a successful upstream exchange.
type AuthorizationCode struct {
	Code string

	// EncryptedUpstreamToken is the upstream OAuth2 token, already sealed
	// with the Keyset Manager's encryption key — txstore never sees
	// upstream token plaintext.
	EncryptedUpstreamToken string

	// EncryptedUpstreamRefreshToken is the sealed upstream refresh token,
	// when the upstream issued one. Empty when it did not (e.g. GitHub).
	EncryptedUpstreamRefreshToken string

	Snapshot claims.Snapshot

	ClientID            string
	RedirectURI         string
	Scopes              map[string]bool
	Nonce               string
	CodeChallenge       string
	CodeChallengeMethod string

	CreatedAt time.Time
	ExpiresAt time.Time

	// AuthTime, when non-nil, is the originating AuthorizationRequest's
	// CreatedAt, carried forward because max_age was present — echoed
	// into the eventual ID token's auth_time claim.
	AuthTime *time.Time

	Consumed   bool
	ConsumedAt *time.Time

	// RefreshChainID threads this code forward into the refresh chain
	// that /token mints alongside the initial token set, so a later
	// refresh_token grant can be bound back to this code's client_id.
	RefreshChainID string
}

// RefreshChain tracks the liveness of one refresh-token lineage. Every
// refresh_token grant consumes the current chain record and, on success,
// the caller creates a fresh one under a new ChainID — "rotates on each
// refresh" from the data model.
type RefreshChain struct {
	ChainID   string
	ClientID  string
	Subject   string
	CreatedAt time.Time
	ExpiresAt time.Time

	// EncryptedUpstreamToken is the sealed upstream access token carried
	// forward from the originating code (or the prior chain link), used
	// when the upstream has no refresh token of its own (GitHub).
	EncryptedUpstreamToken string

	// EncryptedUpstreamRefreshToken is the sealed upstream refresh token,
	// when the upstream issues one (Discord). Empty otherwise.
	EncryptedUpstreamRefreshToken string

	Consumed   bool
	ConsumedAt *time.Time
}

// Stats reports in-memory record counts, used in tests and for
// ambient metrics.
type Stats struct {
	AuthorizationRequests int
	AuthorizationCodes    int
	RefreshChains         int
}

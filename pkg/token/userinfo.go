package token

import (
	golangjwt "github.com/golang-jwt/jwt/v5"

	"github.com/stacklok/takagi/pkg/claims"
)

// BuildUserInfoClaims projects a freshly-fetched claim snapshot against
// an access token's granted scopes into the claim bag /userinfo returns.
// iss, aud, iat, exp, and nonce never appear here — those are ID token
// concerns.
func BuildUserInfoClaims(subject string, snapshot claims.Snapshot, scopes map[string]bool) golangjwt.MapClaims {
	out := golangjwt.MapClaims{"sub": subject}
	for k, v := range snapshot.ProjectedClaims(scopes) {
		out[k] = v
	}
	return out
}

package token

import (
	golangjwt "github.com/golang-jwt/jwt/v5"
)

// BuildIntrospectionClaims builds the RFC 7662 response body for a valid
// access token. sub is the upstream user ID, never the client ID — an
// earlier Takagi defect (corrected in 1.1.0) returned the client ID here.
func BuildIntrospectionClaims(result *AccessTokenResult, clientID string) golangjwt.MapClaims {
	return golangjwt.MapClaims{
		"active":     true,
		"sub":        result.Subject,
		"client_id":  clientID,
		"scope":      scopeString(result.Scopes),
		"iss":        result.Issuer,
		"iat":        result.IssuedAt.Unix(),
		"exp":        result.Expiry.Unix(),
		"token_type": "Bearer",
	}
}

// InactiveIntrospectionClaims is the RFC 7662 §2.2 response for a token
// that failed verification for any reason: active=false, nothing else.
func InactiveIntrospectionClaims() golangjwt.MapClaims {
	return golangjwt.MapClaims{"active": false}
}

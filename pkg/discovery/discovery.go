// Package discovery serves Takagi's unauthenticated discovery surface:
// OIDC discovery, the public JWKS document, and WebFinger issuer
// resolution. Every URL it returns is derived from the request's
// observed scheme, host, and base path — never a baked-in hostname —
// so the same binary serves correct metadata behind any reverse proxy.
package discovery

import "github.com/stacklok/takagi/pkg/claims"

// Document is the /.well-known/openid-configuration response body.
type Document struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	UserinfoEndpoint                  string   `json:"userinfo_endpoint"`
	IntrospectionEndpoint             string   `json:"introspection_endpoint"`
	JWKSURI                           string   `json:"jwks_uri"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	SubjectTypesSupported             []string `json:"subject_types_supported"`
	IDTokenSigningAlgValuesSupported  []string `json:"id_token_signing_alg_values_supported"`
	ScopesSupported                   []string `json:"scopes_supported"`
	ClaimsSupported                   []string `json:"claims_supported"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
	CodeChallengeMethodsSupported     []string `json:"code_challenge_methods_supported"`
}

// BaseURLs is the set of observed endpoint URLs a Document is built
// from, supplied by internal/httpapi from the request it is handling.
type BaseURLs struct {
	Issuer                 string
	AuthorizationEndpoint  string
	TokenEndpoint          string
	UserinfoEndpoint       string
	IntrospectionEndpoint  string
	JWKSURI                string
}

// BuildDocument assembles the discovery document. scopes_supported
// always leads with "openid", then the scope-gated claim groups, then
// "offline_access" — a supplement beyond the upstream claim set,
// advertising refresh-token support without conditioning issuance on
// requesting it.
func BuildDocument(urls BaseURLs) Document {
	return Document{
		Issuer:                 urls.Issuer,
		AuthorizationEndpoint:  urls.AuthorizationEndpoint,
		TokenEndpoint:          urls.TokenEndpoint,
		UserinfoEndpoint:       urls.UserinfoEndpoint,
		IntrospectionEndpoint:  urls.IntrospectionEndpoint,
		JWKSURI:                urls.JWKSURI,
		ResponseTypesSupported: []string{"code"},
		SubjectTypesSupported:  []string{"public"},
		IDTokenSigningAlgValuesSupported: []string{"RS256"},
		ScopesSupported: []string{
			claims.ScopeOpenID, claims.ScopeProfile, claims.ScopeEmail,
			claims.ScopeGroups, "offline_access",
		},
		ClaimsSupported: []string{
			"sub", "iss", "aud", "exp", "iat",
			claims.ClaimPreferredUsername, claims.ClaimName, claims.ClaimNickname,
			claims.ClaimPicture, claims.ClaimProfile, claims.ClaimUpdatedAt,
			claims.ClaimEmail, claims.ClaimEmailVerified, claims.ClaimGroups,
		},
		TokenEndpointAuthMethodsSupported: []string{"client_secret_basic", "client_secret_post"},
		CodeChallengeMethodsSupported:     []string{"S256", "plain"},
	}
}

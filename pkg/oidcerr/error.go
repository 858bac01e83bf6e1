// Package oidcerr maps Takagi's internal failures onto OAuth2/OIDC
// conformant error responses, rendered either as a JSON body or a
// redirect query string depending on the calling handler's surfacing
// mode.
package oidcerr

import (
	"fmt"
	"net/http"
)

// Error is a typed OAuth2/OIDC error: an error code from RFC 6749 §5.2 /
// OIDC Core §3.1.2.6, a human-readable description, and the HTTP status
// it should be surfaced with when written as a JSON body.
type Error struct {
	Code        string
	Description string
	Status      int
}

func (e *Error) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func newErr(code, description string, status int) *Error {
	return &Error{Code: code, Description: description, Status: status}
}

// InvalidRequest covers malformed or missing required parameters (e.g. a
// missing client_id, or simultaneous HTTP Basic + form credentials at
// /token).
func InvalidRequest(description string) *Error {
	return newErr("invalid_request", description, http.StatusBadRequest)
}

// UnauthorizedClient covers a client_id absent from the allowlist.
func UnauthorizedClient(description string) *Error {
	return newErr("unauthorized_client", description, http.StatusBadRequest)
}

// InvalidScope covers a missing mandatory "openid" scope.
func InvalidScope(description string) *Error {
	return newErr("invalid_scope", description, http.StatusBadRequest)
}

// AccessDenied covers the relying-party-facing redirect when the
// upstream identity provider denies consent.
func AccessDenied(description string) *Error {
	return newErr("access_denied", description, http.StatusFound)
}

// ServerError covers an upstream exchange failure or any unexpected
// internal error; the description passed here must never leak internal
// detail to the client.
func ServerError(description string) *Error {
	return newErr("server_error", description, http.StatusInternalServerError)
}

// InvalidGrant covers a replayed or invalid authorization code, a failed
// PKCE verification, or an expired/consumed refresh chain.
func InvalidGrant(description string) *Error {
	return newErr("invalid_grant", description, http.StatusBadRequest)
}

// InvalidClient covers a client authentication failure at /token.
func InvalidClient(description string) *Error {
	return newErr("invalid_client", description, http.StatusUnauthorized)
}

// UnsupportedGrantType covers a grant_type outside
// {authorization_code, refresh_token}.
func UnsupportedGrantType(description string) *Error {
	return newErr("unsupported_grant_type", description, http.StatusBadRequest)
}

// InvalidToken covers a bearer-token verification failure at /userinfo,
// surfaced via WWW-Authenticate rather than a JSON body.
func InvalidToken(description string) *Error {
	return newErr("invalid_token", description, http.StatusUnauthorized)
}

// LoginRequired covers a prompt=none request, since Takagi has no local
// session to silently re-authenticate against.
func LoginRequired(description string) *Error {
	return newErr("login_required", description, http.StatusFound)
}

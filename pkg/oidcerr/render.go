package oidcerr

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/stacklok/takagi/pkg/logger"
)

type jsonBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON writes e as a JSON error body with the appropriate HTTP
// status. Used by /token, /introspect, and any pre-redirect /authorize
// failure.
func WriteJSON(w http.ResponseWriter, e *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	if err := json.NewEncoder(w).Encode(jsonBody{Error: e.Code, ErrorDescription: e.Description}); err != nil {
		logger.Warnw("oidcerr: failed to encode JSON error body", "err", err)
	}
}

// WriteUserInfoError writes e as a 401 with a WWW-Authenticate: Bearer
// challenge, per RFC 6750 §3, for /userinfo verification failures.
func WriteUserInfoError(w http.ResponseWriter, e *Error) {
	w.Header().Set("WWW-Authenticate", `Bearer error="`+e.Code+`"`)
	WriteJSON(w, e)
}

// WriteClientAuthError writes e with a WWW-Authenticate: Basic challenge,
// for endpoints (/introspect) that require client authentication and
// received none or an unrecognized one.
func WriteClientAuthError(w http.ResponseWriter, e *Error) {
	w.Header().Set("WWW-Authenticate", `Basic realm="takagi"`)
	WriteJSON(w, e)
}

// Redirect writes a 302 to redirectURI with e's code/description appended
// as OAuth2 error query parameters, per OIDC Core 1.0 §3.1.2.6. state, if
// non-empty, is echoed back unchanged.
func Redirect(w http.ResponseWriter, r *http.Request, redirectURI string, e *Error, state string) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		// The redirect URI itself is malformed; there is nowhere safe to
		// bounce the browser to, so fall back to a direct JSON error.
		WriteJSON(w, ServerError("invalid redirect target"))
		return
	}
	q := u.Query()
	q.Set("error", e.Code)
	if e.Description != "" {
		q.Set("error_description", e.Description)
	}
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusFound)
}

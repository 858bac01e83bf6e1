package flow

import (
	"context"
	"net"
	"strings"

	"github.com/stacklok/takagi/pkg/hostpolicy"
	"github.com/stacklok/takagi/pkg/logger"
	"github.com/stacklok/takagi/pkg/oidcerr"
	"github.com/stacklok/takagi/pkg/txstore"
)

// AuthorizeParams is the parsed (not yet validated) query string of an
// /authorize request.
type AuthorizeParams struct {
	ClientID            string
	ResponseType        string
	RedirectURI          string
	Scope                string
	State                string
	Nonce                string
	CodeChallenge        string
	CodeChallengeMethod  string
	Return               string
	MaxAge               string
	Prompt               string
}

// DecisionKind classifies how an Authorize/Callback outcome must be
// surfaced by the HTTP layer.
type DecisionKind int

const (
	// RedirectToUpstream means send the user-agent to UpstreamURL.
	RedirectToUpstream DecisionKind = iota
	// RespondDirect means write Err directly (no redirection occurred;
	// the redirect_uri was never validated, so there is nowhere safe to
	// bounce the browser to).
	RespondDirect
	// RedirectWithError means 302 to RedirectURI with Err's code/
	// description appended as query parameters.
	RedirectWithError
	// RedirectToReferrer means 302 to RedirectURI (the captured
	// Referer), with Err's code/description appended.
	RedirectToReferrer
	// RedirectToClient means 302 to RedirectURI with an issued code
	// (and the RP's original state) appended as query parameters.
	RedirectToClient
)

// AuthorizeDecision is the result of validating an /authorize request
// or resolving the upstream callback.
type AuthorizeDecision struct {
	Kind        DecisionKind
	UpstreamURL string
	RedirectURI string
	State       string
	Code        string
	Err         *oidcerr.Error
}

// Authorize validates an /authorize request per spec.md §4.4's
// validation order (host, client-ID allowlist, redirect-URI policy,
// scope set, PKCE method) and, on success, records the transaction and
// returns the upstream authorization URL to redirect the browser to.
func (e *Engine) Authorize(ctx context.Context, rc RequestContext, p AuthorizeParams) *AuthorizeDecision {
	logger.Debugw("flow: authorize", "state", stateStart.String(), "clientID", p.ClientID)

	if !e.hosts.Allows(rc.Host) {
		return &AuthorizeDecision{Kind: RespondDirect, Err: oidcerr.InvalidRequest("host not permitted")}
	}

	if !hostpolicy.RequireHTTPS(rc.Scheme, hostWithoutPort(rc.Host), e.treatLoopbackHTTPS) {
		return &AuthorizeDecision{Kind: RespondDirect, Err: oidcerr.InvalidRequest("HTTPS is required")}
	}

	if p.ClientID == "" {
		return &AuthorizeDecision{Kind: RespondDirect, Err: oidcerr.InvalidRequest("client_id is required")}
	}
	if !e.clientAllowed(p.ClientID) {
		return &AuthorizeDecision{Kind: RespondDirect, Err: oidcerr.UnauthorizedClient("client_id not in allowlist")}
	}

	if p.ResponseType != "code" {
		return &AuthorizeDecision{Kind: RespondDirect, Err: oidcerr.InvalidRequest("response_type must be \"code\"")}
	}

	redirectURI, err := e.normalizeRedirectURI(p.RedirectURI)
	if err != nil {
		return &AuthorizeDecision{Kind: RespondDirect, Err: oidcerr.InvalidRequest(err.Error())}
	}

	// From here on the redirect URI is trusted: failures redirect with an
	// OAuth2 error query pair instead of responding directly.
	scopes := parseScopes(p.Scope)
	if !scopes["openid"] {
		return &AuthorizeDecision{
			Kind: RedirectWithError, RedirectURI: redirectURI, State: p.State,
			Err: oidcerr.InvalidScope("scope must include \"openid\""),
		}
	}

	if p.CodeChallenge != "" {
		method := p.CodeChallengeMethod
		if method == "" {
			method = "plain"
		}
		if !validPKCEMethod(method) {
			return &AuthorizeDecision{
				Kind: RedirectWithError, RedirectURI: redirectURI, State: p.State,
				Err: oidcerr.InvalidRequest("unsupported code_challenge_method"),
			}
		}
		p.CodeChallengeMethod = method
	}

	var maxAge *int64
	if p.MaxAge != "" {
		if v, ok := parseInt64(p.MaxAge); ok {
			maxAge = &v
		}
	}

	returnToReferrer := e.returnToReferrer || p.Return == "true"

	stateRef := newID()
	txn := &txstore.AuthorizationRequest{
		StateRef:            stateRef,
		ClientID:            p.ClientID,
		Scopes:              scopes,
		RedirectURI:         redirectURI,
		State:               p.State,
		Nonce:               p.Nonce,
		CodeChallenge:       p.CodeChallenge,
		CodeChallengeMethod: p.CodeChallengeMethod,
		Referer:             rc.Referer,
		ReturnToReferrer:    returnToReferrer,
		Issuer:              rc.Issuer(),
		CreatedAt:           rc.Now,
		ExpiresAt:           rc.Now.Add(e.transactionTTL),
		Upstream:            e.upstream.Name(),
		MaxAge:              maxAge,
	}

	if p.Prompt == "none" {
		// Takagi has no local session, so prompt=none can never succeed
		// silently; fail immediately at the callback boundary instead of
		// contacting the upstream.
		return &AuthorizeDecision{
			Kind: RedirectWithError, RedirectURI: redirectURI, State: p.State,
			Err: oidcerr.LoginRequired("no local session available for silent authentication"),
		}
	}

	if err := e.store.CreateAuthorizationRequest(ctx, txn); err != nil {
		logger.Errorw("flow: failed to record authorization request", "err", err)
		return &AuthorizeDecision{
			Kind: RedirectWithError, RedirectURI: redirectURI, State: p.State,
			Err: oidcerr.ServerError("failed to record transaction"),
		}
	}

	logger.Debugw("flow: authorize accepted", "state", stateAwaitingUpstream.String(), "stateRef", stateRef)

	return &AuthorizeDecision{
		Kind:        RedirectToUpstream,
		UpstreamURL: e.upstream.AuthCodeURL(stateRef, scopeNames(scopes)),
	}
}

// normalizeRedirectURI enforces the /r/ redirect-URI policy: every
// redirect URI must be a "/r/<encoded-destination>" path; FIX_REDIRECT_URIS
// rewrites anything else instead of rejecting it.
func (e *Engine) normalizeRedirectURI(raw string) (string, error) {
	if raw == "" {
		return "", errMissingRedirectURI
	}
	if strings.HasPrefix(raw, hostpolicy.RedirectPrefix) {
		if _, err := hostpolicy.DecodeRedirect(raw); err != nil {
			return "", errMalformedRedirectURI
		}
		return raw, nil
	}
	if !e.fixRedirectURIs {
		return "", errNotUnderRedirectPrefix
	}
	return hostpolicy.EncodeRedirect(raw), nil
}

// hostWithoutPort strips an optional port from a Host header value;
// hostpolicy.RequireHTTPS's loopback check matches bare hostnames.
func hostWithoutPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

// scopeNames is passed to the Adapter as the RP's requested scope set;
// the adapter's own MinimumScopes floor (e.g. Discord's "identify") is
// applied inside Adapter.AuthCodeURL, not here.
func scopeNames(scopes map[string]bool) []string {
	out := make([]string, 0, len(scopes))
	for s := range scopes {
		out = append(out, s)
	}
	return out
}

func parseInt64(s string) (int64, bool) {
	var n int64
	neg := false
	i := 0
	if len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		i = 1
	}
	if i == len(s) {
		return 0, false
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int64(s[i]-'0')
	}
	if neg {
		n = -n
	}
	return n, true
}

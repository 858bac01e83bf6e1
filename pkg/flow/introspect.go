package flow

import (
	golangjwt "github.com/golang-jwt/jwt/v5"

	"github.com/stacklok/takagi/pkg/oidcerr"
	"github.com/stacklok/takagi/pkg/token"
)

// HandleIntrospect implements RFC 7662: the caller must authenticate the
// same way a /token client would (§2.1). Once authenticated, any token
// verification failure (expiry, bad signature, wrong issuer, malformed
// claims) yields the inactive response rather than an error, per §2.2 —
// introspection never leaks why a *token* is inactive to the caller, but
// it does require the caller itself to be a recognized client.
func (e *Engine) HandleIntrospect(rc RequestContext, auth ClientAuth, presentedToken string) (golangjwt.MapClaims, *oidcerr.Error) {
	clientID, cerr := auth.resolve()
	if cerr != nil {
		return nil, oidcerr.InvalidClient(cerr.Description)
	}
	if !e.clientAllowed(clientID) {
		return nil, oidcerr.InvalidClient("client_id not in allowlist")
	}

	if presentedToken == "" {
		return token.InactiveIntrospectionClaims(), nil
	}

	result, err := e.tokens.VerifyAccessToken(presentedToken, rc.Issuer(), rc.EndpointURL("/userinfo"), rc.Now)
	if err != nil {
		return token.InactiveIntrospectionClaims(), nil
	}

	return token.BuildIntrospectionClaims(result, clientID), nil
}

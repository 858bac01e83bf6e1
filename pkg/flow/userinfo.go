package flow

import (
	"context"

	golangjwt "github.com/golang-jwt/jwt/v5"

	"github.com/stacklok/takagi/pkg/logger"
	"github.com/stacklok/takagi/pkg/oidcerr"
	"github.com/stacklok/takagi/pkg/token"
)

// HandleUserInfo verifies a bearer access token and re-fetches the
// subject's identity from the upstream before projecting claims, so
// /userinfo always reflects the upstream's current state rather than a
// snapshot frozen at /authorize time. Presenting an ID token here fails
// verification: ID tokens carry no "token" claim, which VerifyAccessToken
// requires.
func (e *Engine) HandleUserInfo(ctx context.Context, rc RequestContext, bearerToken string) (golangjwt.MapClaims, *oidcerr.Error) {
	if bearerToken == "" {
		return nil, oidcerr.InvalidToken("bearer access token is required")
	}

	result, err := e.tokens.VerifyAccessToken(bearerToken, rc.Issuer(), rc.EndpointURL("/userinfo"), rc.Now)
	if err != nil {
		logger.Debugw("flow: userinfo bearer token rejected", "err", err)
		return nil, oidcerr.InvalidToken("access token failed verification")
	}

	upstreamToken, derr := e.tokens.DecryptUpstreamToken(result.EncryptedToken)
	if derr != nil {
		logger.Errorw("flow: failed to unseal upstream token for userinfo", "err", derr)
		return nil, oidcerr.ServerError("failed to fetch identity")
	}

	snapshot, ferr := e.upstream.FetchIdentity(ctx, upstreamToken, result.Scopes["groups"])
	if ferr != nil {
		logger.Warnw("flow: upstream identity fetch failed for userinfo", "err", ferr)
		return nil, oidcerr.ServerError("upstream identity fetch failed")
	}

	return token.BuildUserInfoClaims(result.Subject, snapshot, result.Scopes), nil
}

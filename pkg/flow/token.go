package flow

import (
	"context"
	"time"

	"github.com/stacklok/takagi/pkg/claims"
	"github.com/stacklok/takagi/pkg/hostpolicy"
	"github.com/stacklok/takagi/pkg/logger"
	"github.com/stacklok/takagi/pkg/oidcerr"
	"github.com/stacklok/takagi/pkg/token"
	"github.com/stacklok/takagi/pkg/txstore"
)

// TokenParams is the parsed /token request body.
type TokenParams struct {
	GrantType    string
	Code         string
	RedirectURI  string
	CodeVerifier string
	RefreshToken string
	Auth         ClientAuth
}

// TokenResult is a successful /token response body.
type TokenResult struct {
	AccessToken  string
	IDToken      string
	RefreshToken string
	TokenType    string
}

const bearerTokenType = "Bearer"

// HandleToken services both grant types spec.md §4.4 permits.
func (e *Engine) HandleToken(ctx context.Context, rc RequestContext, p TokenParams) (*TokenResult, *oidcerr.Error) {
	if !hostpolicy.RequireHTTPS(rc.Scheme, hostWithoutPort(rc.Host), e.treatLoopbackHTTPS) {
		return nil, oidcerr.InvalidRequest("HTTPS is required")
	}

	clientID, cerr := p.Auth.resolve()
	if cerr != nil {
		return nil, cerr
	}
	if !e.clientAllowed(clientID) {
		return nil, oidcerr.InvalidClient("client_id not in allowlist")
	}

	switch p.GrantType {
	case "authorization_code":
		return e.handleAuthorizationCodeGrant(ctx, rc, clientID, p)
	case "refresh_token":
		return e.handleRefreshTokenGrant(ctx, rc, clientID, p)
	case "":
		return nil, oidcerr.InvalidRequest("grant_type is required")
	default:
		return nil, oidcerr.UnsupportedGrantType("grant_type must be authorization_code or refresh_token")
	}
}

func (e *Engine) handleAuthorizationCodeGrant(ctx context.Context, rc RequestContext, clientID string, p TokenParams) (*TokenResult, *oidcerr.Error) {
	if p.Code == "" {
		return nil, oidcerr.InvalidRequest("code is required")
	}

	code, err := e.store.ConsumeAuthorizationCode(ctx, p.Code)
	if err != nil {
		logger.Debugw("flow: code redemption rejected", "state", stateInvalidGrant.String(), "err", err)
		return nil, oidcerr.InvalidGrant("the authorization code is invalid, expired, or already used")
	}

	if code.ClientID != clientID {
		return nil, oidcerr.InvalidGrant("code was not issued to this client")
	}

	if !e.redirectURIMatches(code.RedirectURI, p.RedirectURI) {
		return nil, oidcerr.InvalidGrant("redirect_uri does not match the one used at /authorize")
	}

	if perr := verifyPKCEForCode(code, p.CodeVerifier); perr != nil {
		return nil, perr
	}

	upstreamToken, derr := e.tokens.DecryptUpstreamToken(code.EncryptedUpstreamToken)
	if derr != nil {
		logger.Errorw("flow: failed to unseal upstream token", "err", derr)
		return nil, oidcerr.ServerError("failed to issue tokens")
	}

	result, perr := e.mintTokenSet(rc, clientID, code.Snapshot, code.Scopes, code.Nonce, code.AuthTime, code.RefreshChainID, upstreamToken)
	if perr != nil {
		return nil, perr
	}

	logger.Debugw("flow: tokens issued", "state", stateTokensIssued.String(), "clientID", clientID)
	return result, nil
}

func (e *Engine) handleRefreshTokenGrant(ctx context.Context, rc RequestContext, clientID string, p TokenParams) (*TokenResult, *oidcerr.Error) {
	if p.RefreshToken == "" {
		return nil, oidcerr.InvalidRequest("refresh_token is required")
	}

	parsed, err := e.tokens.VerifyRefreshToken(p.RefreshToken, rc.Issuer(), rc.Now)
	if err != nil {
		return nil, oidcerr.InvalidGrant("refresh token failed verification")
	}

	// Refresh tokens are bound to their originating client_id: a refresh
	// request presenting a different (even allowlisted) client_id is
	// rejected, per the resolved Open Question in SPEC_FULL.md §9.
	if parsed.ClientID != clientID {
		return nil, oidcerr.InvalidGrant("refresh token was not issued to this client")
	}

	chain, err := e.store.ConsumeRefreshChain(ctx, parsed.ChainID)
	if err != nil {
		logger.Debugw("flow: refresh chain redemption rejected", "state", stateInvalidGrant.String(), "err", err)
		return nil, oidcerr.InvalidGrant("the refresh token has been used or has expired")
	}

	snapshot, plainAccess, encAccess, encRefresh, perr := e.refreshUpstreamIdentity(ctx, chain)
	if perr != nil {
		return nil, perr
	}

	newChain := &txstore.RefreshChain{
		ChainID:                       newID(),
		ClientID:                      clientID,
		Subject:                       chain.Subject,
		CreatedAt:                     rc.Now,
		ExpiresAt:                     rc.Now.Add(e.refreshChainTTL),
		EncryptedUpstreamToken:        encAccess,
		EncryptedUpstreamRefreshToken: encRefresh,
	}
	if err := e.store.CreateRefreshChain(ctx, newChain); err != nil {
		logger.Errorw("flow: failed to rotate refresh chain", "err", err)
		return nil, oidcerr.ServerError("failed to issue refresh token")
	}

	// A bare refresh grant carries no record of the originally-granted
	// scopes or nonce; both are re-derived as the minimal profile-less
	// set (openid only) unless the relying party re-requests more via a
	// fresh /authorize. This keeps refreshed ID tokens conservative
	// rather than silently re-widening what was originally consented.
	scopes := map[string]bool{claims.ScopeOpenID: true}

	return e.mintTokenSet(rc, clientID, snapshot, scopes, "", nil, newChain.ChainID, plainAccess)
}

// refreshUpstreamIdentity re-establishes a usable upstream credential for
// the chain's subject: if the upstream issued a refresh token, redeem
// it; otherwise (GitHub) the original access token is still valid,
// since GitHub tokens do not expire by default. It returns both the
// plaintext access token (for re-sealing into the new access token) and
// the sealed values to carry into the rotated refresh chain.
func (e *Engine) refreshUpstreamIdentity(ctx context.Context, chain *txstore.RefreshChain) (snapshot claims.Snapshot, plainAccess, encAccess, encRefresh string, oerr *oidcerr.Error) {
	if chain.EncryptedUpstreamRefreshToken != "" {
		plainRefresh, derr := e.tokens.DecryptUpstreamToken(chain.EncryptedUpstreamRefreshToken)
		if derr != nil {
			return claims.Snapshot{}, "", "", "", oidcerr.ServerError("failed to recover upstream credential")
		}
		fresh, uerr := e.upstream.Refresh(ctx, plainRefresh)
		if uerr != nil {
			return claims.Snapshot{}, "", "", "", oidcerr.InvalidGrant("upstream refresh failed")
		}
		snap, ferr := e.upstream.FetchIdentity(ctx, fresh.AccessToken, true)
		if ferr != nil {
			return claims.Snapshot{}, "", "", "", oidcerr.ServerError("upstream identity fetch failed")
		}
		sealedAccess, serr := e.tokens.SealUpstreamToken(fresh.AccessToken)
		if serr != nil {
			return claims.Snapshot{}, "", "", "", oidcerr.ServerError("failed to seal upstream credential")
		}
		sealedRefresh := chain.EncryptedUpstreamRefreshToken
		if fresh.RefreshToken != "" {
			sealedRefresh, serr = e.tokens.SealUpstreamToken(fresh.RefreshToken)
			if serr != nil {
				return claims.Snapshot{}, "", "", "", oidcerr.ServerError("failed to seal upstream credential")
			}
		}
		return snap, fresh.AccessToken, sealedAccess, sealedRefresh, nil
	}

	plainToken, derr := e.tokens.DecryptUpstreamToken(chain.EncryptedUpstreamToken)
	if derr != nil {
		return claims.Snapshot{}, "", "", "", oidcerr.ServerError("failed to recover upstream credential")
	}
	snap, ferr := e.upstream.FetchIdentity(ctx, plainToken, true)
	if ferr != nil {
		return claims.Snapshot{}, "", "", "", oidcerr.ServerError("upstream identity fetch failed")
	}
	return snap, plainToken, chain.EncryptedUpstreamToken, "", nil
}

func (e *Engine) mintTokenSet(rc RequestContext, clientID string, snapshot claims.Snapshot, scopes map[string]bool, nonce string, authTime *time.Time, chainID, upstreamToken string) (*TokenResult, *oidcerr.Error) {
	userinfoURL := rc.EndpointURL("/userinfo")
	issuer := rc.Issuer()

	idToken, err := e.tokens.MintIDToken(token.IDTokenParams{
		Snapshot: snapshot,
		ClientID: clientID,
		Scopes:   scopes,
		Nonce:    nonce,
		Issuer:   issuer,
		Now:      rc.Now,
		AuthTime: authTime,
	})
	if err != nil {
		logger.Errorw("flow: failed to mint ID token", "err", err)
		return nil, oidcerr.ServerError("failed to issue tokens")
	}

	accessToken, aerr := e.tokens.MintAccessToken(token.AccessTokenParams{
		ClientID:      clientID,
		Subject:       snapshot.ID,
		UserinfoURL:   userinfoURL,
		Issuer:        issuer,
		Scopes:        scopes,
		UpstreamToken: upstreamToken,
		Now:           rc.Now,
	})
	if aerr != nil {
		logger.Errorw("flow: failed to mint access token", "err", aerr)
		return nil, oidcerr.ServerError("failed to issue tokens")
	}

	refreshToken, rerr := e.tokens.MintRefreshToken(token.RefreshTokenParams{
		ClientID: clientID,
		Subject:  snapshot.ID,
		ChainID:  chainID,
		Issuer:   issuer,
		Now:      rc.Now,
	})
	if rerr != nil {
		logger.Errorw("flow: failed to mint refresh token", "err", rerr)
		return nil, oidcerr.ServerError("failed to issue tokens")
	}

	return &TokenResult{
		AccessToken:  accessToken,
		IDToken:      idToken,
		RefreshToken: refreshToken,
		TokenType:    bearerTokenType,
	}, nil
}

// redirectURIMatches re-validates the /token request's optional
// redirect_uri against the code's recorded one, applying RFC 8252 §7.3
// loopback matching to the decoded destinations rather than the raw
// /r/-wrapped strings.
func (e *Engine) redirectURIMatches(registered, requested string) bool {
	if requested == "" {
		return true
	}
	decodedRegistered, err := hostpolicy.DecodeRedirect(registered)
	if err != nil {
		return registered == requested
	}
	decodedRequested, err := hostpolicy.DecodeRedirect(requested)
	if err != nil {
		return false
	}
	return hostpolicy.MatchesRegisteredRedirect(decodedRegistered, decodedRequested)
}

func verifyPKCEForCode(code *txstore.AuthorizationCode, verifier string) *oidcerr.Error {
	if code.CodeChallenge == "" {
		return nil
	}
	if verifier == "" {
		return oidcerr.InvalidGrant("code_verifier is required")
	}
	if !verifyPKCE(code.CodeChallengeMethod, verifier, code.CodeChallenge) {
		return oidcerr.InvalidGrant("code_verifier does not match the recorded challenge")
	}
	return nil
}

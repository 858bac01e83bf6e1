package flow

import (
	"context"

	"github.com/stacklok/takagi/pkg/logger"
	"github.com/stacklok/takagi/pkg/oidcerr"
	"github.com/stacklok/takagi/pkg/txstore"
)

// CallbackParams is the parsed query string of the upstream identity
// provider's callback request.
type CallbackParams struct {
	StateRef      string
	Code          string
	UpstreamError string
}

// HandleCallback resolves the upstream callback: AWAITING_UPSTREAM
// transitions to DENIED on upstream denial, or through EXCHANGING to
// CODE_ISSUED (or FAILED_UPSTREAM) on success.
func (e *Engine) HandleCallback(ctx context.Context, rc RequestContext, p CallbackParams) *AuthorizeDecision {
	txn, err := e.store.GetAuthorizationRequest(ctx, p.StateRef)
	if err != nil {
		logger.Warnw("flow: callback for unknown or expired transaction", "stateRef", p.StateRef, "err", err)
		return &AuthorizeDecision{Kind: RespondDirect, Err: oidcerr.InvalidRequest("unknown or expired transaction")}
	}
	_ = e.store.DeleteAuthorizationRequest(ctx, p.StateRef)

	if p.UpstreamError != "" {
		logger.Debugw("flow: upstream denied", "state", stateDenied.String(), "stateRef", p.StateRef)
		return e.denial(txn, oidcerr.AccessDenied("the upstream identity provider denied the request"))
	}

	logger.Debugw("flow: exchanging upstream code", "state", stateExchanging.String(), "stateRef", p.StateRef)

	tokens, err := e.upstream.ExchangeCode(ctx, p.Code)
	if err != nil {
		logger.Warnw("flow: upstream exchange failed", "state", stateFailedUpstream.String(), "err", err)
		return &AuthorizeDecision{
			Kind: RedirectWithError, RedirectURI: txn.RedirectURI, State: txn.State,
			Err: oidcerr.ServerError("upstream exchange failed"),
		}
	}

	snapshot, err := e.upstream.FetchIdentity(ctx, tokens.AccessToken, txn.Scopes[claimsScopeGroups])
	if err != nil {
		logger.Warnw("flow: upstream identity fetch failed", "state", stateFailedUpstream.String(), "err", err)
		return &AuthorizeDecision{
			Kind: RedirectWithError, RedirectURI: txn.RedirectURI, State: txn.State,
			Err: oidcerr.ServerError("upstream identity fetch failed"),
		}
	}

	encToken, err := e.tokens.SealUpstreamToken(tokens.AccessToken)
	if err != nil {
		return e.serverErrorRedirect(txn, err)
	}
	var encRefresh string
	if tokens.RefreshToken != "" {
		encRefresh, err = e.tokens.SealUpstreamToken(tokens.RefreshToken)
		if err != nil {
			return e.serverErrorRedirect(txn, err)
		}
	}

	chain := &txstore.RefreshChain{
		ChainID:                       newID(),
		ClientID:                      txn.ClientID,
		Subject:                       snapshot.ID,
		CreatedAt:                     rc.Now,
		ExpiresAt:                     rc.Now.Add(e.refreshChainTTL),
		EncryptedUpstreamToken:        encToken,
		EncryptedUpstreamRefreshToken: encRefresh,
	}
	if err := e.store.CreateRefreshChain(ctx, chain); err != nil {
		return e.serverErrorRedirect(txn, err)
	}

	code := &txstore.AuthorizationCode{
		Code:                          newID(),
		EncryptedUpstreamToken:        encToken,
		EncryptedUpstreamRefreshToken: encRefresh,
		Snapshot:                      snapshot,
		ClientID:                      txn.ClientID,
		RedirectURI:                   txn.RedirectURI,
		Scopes:                        txn.Scopes,
		Nonce:                         txn.Nonce,
		CodeChallenge:                 txn.CodeChallenge,
		CodeChallengeMethod:           txn.CodeChallengeMethod,
		CreatedAt:                     rc.Now,
		ExpiresAt:                     rc.Now.Add(e.codeTTL),
		RefreshChainID:                chain.ChainID,
	}
	if txn.MaxAge != nil {
		authTime := txn.CreatedAt
		code.AuthTime = &authTime
	}

	if err := e.store.CreateAuthorizationCode(ctx, code); err != nil {
		return e.serverErrorRedirect(txn, err)
	}

	logger.Debugw("flow: code issued", "state", stateCodeIssued.String(), "clientID", txn.ClientID)

	return &AuthorizeDecision{
		Kind:        RedirectToClient,
		RedirectURI: txn.RedirectURI,
		State:       txn.State,
		Code:        code.Code,
	}
}

func (e *Engine) denial(txn *txstore.AuthorizationRequest, err *oidcerr.Error) *AuthorizeDecision {
	if txn.ReturnToReferrer && txn.Referer != "" {
		return &AuthorizeDecision{Kind: RedirectToReferrer, RedirectURI: txn.Referer, State: txn.State, Err: err}
	}
	return &AuthorizeDecision{Kind: RedirectWithError, RedirectURI: txn.RedirectURI, State: txn.State, Err: err}
}

func (e *Engine) serverErrorRedirect(txn *txstore.AuthorizationRequest, cause error) *AuthorizeDecision {
	logger.Errorw("flow: failed to finalize authorization code", "err", cause)
	return &AuthorizeDecision{
		Kind: RedirectWithError, RedirectURI: txn.RedirectURI, State: txn.State,
		Err: oidcerr.ServerError("failed to complete sign-in"),
	}
}

const claimsScopeGroups = "groups"

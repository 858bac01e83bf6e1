package flow

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/takagi/pkg/upstream"
)

func stateRefFrom(upstreamURL string) string {
	idx := strings.Index(upstreamURL, "state=")
	rest := upstreamURL[idx+len("state="):]
	if amp := strings.Index(rest, "&"); amp != -1 {
		return rest[:amp]
	}
	return rest
}

func authorizeAndGetStateRef(t *testing.T, h *testHarness, now time.Time) string {
	t.Helper()
	decision := h.engine.Authorize(context.Background(), h.rc(now), validParams())
	require.Equal(t, RedirectToUpstream, decision.Kind)
	return stateRefFrom(decision.UpstreamURL)
}

func TestHandleCallbackIssuesCodeOnSuccess(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Config{})
	now := time.Now()
	stateRef := authorizeAndGetStateRef(t, h, now)

	decision := h.engine.HandleCallback(context.Background(), h.rc(now), CallbackParams{StateRef: stateRef, Code: "upstream-code"})

	require.Equal(t, RedirectToClient, decision.Kind)
	assert.NotEmpty(t, decision.Code)
	assert.Equal(t, "xyz", decision.State)

	stats, err := h.store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.AuthorizationCodes)
	assert.Equal(t, 1, stats.RefreshChains)
}

func TestHandleCallbackRejectsUnknownState(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Config{})
	decision := h.engine.HandleCallback(context.Background(), h.rc(time.Now()), CallbackParams{StateRef: "bogus"})

	require.Equal(t, RespondDirect, decision.Kind)
	assert.Equal(t, "invalid_request", decision.Err.Code)
}

func TestHandleCallbackHandlesUpstreamDenial(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Config{})
	now := time.Now()
	stateRef := authorizeAndGetStateRef(t, h, now)

	decision := h.engine.HandleCallback(context.Background(), h.rc(now), CallbackParams{StateRef: stateRef, UpstreamError: "access_denied"})

	require.Equal(t, RedirectWithError, decision.Kind)
	assert.Equal(t, "access_denied", decision.Err.Code)
}

func TestHandleCallbackReturnsToReferrerWhenConfigured(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Config{ReturnToReferrer: true})
	now := time.Now()
	rc := h.rc(now)
	rc.Referer = "https://rp.example.com/"

	decision := h.engine.Authorize(context.Background(), rc, validParams())
	require.Equal(t, RedirectToUpstream, decision.Kind)
	stateRef := stateRefFrom(decision.UpstreamURL)

	cbDecision := h.engine.HandleCallback(context.Background(), rc, CallbackParams{StateRef: stateRef, UpstreamError: "access_denied"})

	require.Equal(t, RedirectToReferrer, cbDecision.Kind)
	assert.Equal(t, "https://rp.example.com/", cbDecision.RedirectURI)
}

func TestHandleCallbackSurfacesExchangeFailure(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Config{})
	h.adapter.exchangeErr = upstream.ErrRefreshUnsupported
	now := time.Now()
	stateRef := authorizeAndGetStateRef(t, h, now)

	decision := h.engine.HandleCallback(context.Background(), h.rc(now), CallbackParams{StateRef: stateRef, Code: "upstream-code"})

	require.Equal(t, RedirectWithError, decision.Kind)
	assert.Equal(t, "server_error", decision.Err.Code)
}

func TestHandleCallbackCarriesAuthTimeWhenMaxAgeRequested(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Config{})
	now := time.Now()
	p := validParams()
	p.MaxAge = "300"

	decision := h.engine.Authorize(context.Background(), h.rc(now), p)
	require.Equal(t, RedirectToUpstream, decision.Kind)
	stateRef := stateRefFrom(decision.UpstreamURL)

	cbDecision := h.engine.HandleCallback(context.Background(), h.rc(now), CallbackParams{StateRef: stateRef, Code: "upstream-code"})
	require.Equal(t, RedirectToClient, cbDecision.Kind)

	code, err := h.store.ConsumeAuthorizationCode(context.Background(), cbDecision.Code)
	require.NoError(t, err)
	require.NotNil(t, code.AuthTime)
	assert.WithinDuration(t, now, *code.AuthTime, time.Second)
}

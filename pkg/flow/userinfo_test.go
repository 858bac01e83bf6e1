package flow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mintedAccessToken(t *testing.T, h *testHarness, now time.Time) string {
	t.Helper()
	cb := issueCode(t, h, now, "", "", "")
	result, oerr := h.engine.HandleToken(context.Background(), h.rc(now), TokenParams{
		GrantType: "authorization_code",
		Code:      cb.Code,
		Auth:      ClientAuth{FormClientID: "rp-client"},
	})
	require.Nil(t, oerr)
	return result.AccessToken
}

func TestHandleUserInfoReturnsProjectedClaims(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Config{})
	now := time.Now()
	access := mintedAccessToken(t, h, now)

	claims, oerr := h.engine.HandleUserInfo(context.Background(), h.rc(now), access)

	require.Nil(t, oerr)
	assert.Equal(t, "1001", claims["sub"])
	assert.Equal(t, "octocat", claims["preferred_username"])
}

func TestHandleUserInfoRejectsEmptyToken(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Config{})
	_, oerr := h.engine.HandleUserInfo(context.Background(), h.rc(time.Now()), "")

	require.NotNil(t, oerr)
	assert.Equal(t, "invalid_token", oerr.Code)
}

func TestHandleUserInfoRejectsIDTokenPresentedAsBearer(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Config{})
	now := time.Now()
	cb := issueCode(t, h, now, "", "", "")
	result, oerr := h.engine.HandleToken(context.Background(), h.rc(now), TokenParams{
		GrantType: "authorization_code",
		Code:      cb.Code,
		Auth:      ClientAuth{FormClientID: "rp-client"},
	})
	require.Nil(t, oerr)

	_, oerr = h.engine.HandleUserInfo(context.Background(), h.rc(now), result.IDToken)

	require.NotNil(t, oerr)
	assert.Equal(t, "invalid_token", oerr.Code)
}

func TestHandleUserInfoRejectsGarbageToken(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Config{})
	_, oerr := h.engine.HandleUserInfo(context.Background(), h.rc(time.Now()), "not-a-jwt")

	require.NotNil(t, oerr)
	assert.Equal(t, "invalid_token", oerr.Code)
}

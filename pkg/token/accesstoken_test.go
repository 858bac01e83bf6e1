package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/takagi/pkg/keyset"
)

func TestMintVerifyAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	now := time.Now()

	jws, err := svc.MintAccessToken(AccessTokenParams{
		ClientID:      "rp-client",
		Subject:       "42",
		UserinfoURL:   "https://takagi.example.com/userinfo",
		Issuer:        "https://takagi.example.com",
		Scopes:        map[string]bool{"openid": true, "profile": true},
		UpstreamToken: "gho_upstreamtoken",
		Now:           now,
	})
	require.NoError(t, err)

	result, err := svc.VerifyAccessToken(jws, "https://takagi.example.com", "https://takagi.example.com/userinfo", now)
	require.NoError(t, err)
	assert.Equal(t, "42", result.Subject)
	assert.True(t, result.Scopes["profile"])
	assert.False(t, result.Scopes["email"])

	plaintext, err := svc.DecryptUpstreamToken(result.EncryptedToken)
	require.NoError(t, err)
	assert.Equal(t, "gho_upstreamtoken", plaintext)
}

func TestVerifyAccessTokenRejectsWrongAudience(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	now := time.Now()

	jws, err := svc.MintAccessToken(AccessTokenParams{
		ClientID:      "rp-client",
		Subject:       "42",
		UserinfoURL:   "https://takagi.example.com/userinfo",
		Issuer:        "https://takagi.example.com",
		Scopes:        map[string]bool{"openid": true},
		UpstreamToken: "tok",
		Now:           now,
	})
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(jws, "https://takagi.example.com", "https://evil.example.com/userinfo", now)
	require.ErrorIs(t, err, ErrAudienceMismatch)
}

func TestDecryptUpstreamTokenFailsAfterRotation(t *testing.T) {
	t.Parallel()
	km, err := keyset.NewManaged(t.TempDir())
	require.NoError(t, err)
	svc := NewService(km, time.Hour)
	now := time.Now()

	jws, err := svc.MintAccessToken(AccessTokenParams{
		ClientID:      "c",
		Subject:       "1",
		UserinfoURL:   "https://takagi.example.com/userinfo",
		Issuer:        "https://takagi.example.com",
		Scopes:        map[string]bool{"openid": true},
		UpstreamToken: "tok",
		Now:           now,
	})
	require.NoError(t, err)

	_, err = km.PublicJWKS() // sanity: manager usable
	require.NoError(t, err)

	// Decrypt before rotation succeeds; grab the encrypted claim by
	// re-parsing without verification is unnecessary — decrypt directly
	// via a second mint/verify pair is simpler:
	result, err := svc.VerifyAccessToken(jws, "https://takagi.example.com", "https://takagi.example.com/userinfo", now)
	require.NoError(t, err)

	require.NoError(t, km.Rotate())

	_, err = svc.DecryptUpstreamToken(result.EncryptedToken)
	require.Error(t, err)
}

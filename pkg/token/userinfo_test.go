package token

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stacklok/takagi/pkg/claims"
)

func TestBuildUserInfoClaimsOmitsStandardClaims(t *testing.T) {
	out := BuildUserInfoClaims("42", claims.Snapshot{ID: "42", Username: "alice", Email: "a@example.com", EmailVerified: true}, map[string]bool{"profile": true, "email": true})

	assert.Equal(t, "42", out["sub"])
	assert.Equal(t, "alice", out[claims.ClaimPreferredUsername])
	assert.Equal(t, "a@example.com", out[claims.ClaimEmail])
	assert.NotContains(t, out, "iss")
	assert.NotContains(t, out, "aud")
	assert.NotContains(t, out, "nonce")
}

package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/takagi/pkg/hostpolicy"
)

func TestResolveWebFingerAcceptsAllowedDomain(t *testing.T) {
	t.Parallel()
	allowlist := hostpolicy.NewWebFingerAllowlist([]string{"example.com"})

	resp, ok := ResolveWebFinger(allowlist, "acct:octocat@example.com", "", "https://takagi.example.com")

	require.True(t, ok)
	assert.Equal(t, "acct:octocat@example.com", resp.Subject)
	require.Len(t, resp.Links, 1)
	assert.Equal(t, "https://takagi.example.com", resp.Links[0].Href)
}

func TestResolveWebFingerRejectsDisallowedDomain(t *testing.T) {
	t.Parallel()
	allowlist := hostpolicy.NewWebFingerAllowlist([]string{"example.com"})

	_, ok := ResolveWebFinger(allowlist, "acct:octocat@evil.com", "", "https://takagi.example.com")

	assert.False(t, ok)
}

func TestResolveWebFingerRejectsNonAcctResource(t *testing.T) {
	t.Parallel()
	allowlist := hostpolicy.NewWebFingerAllowlist([]string{"example.com"})

	_, ok := ResolveWebFinger(allowlist, "https://example.com/octocat", "", "https://takagi.example.com")

	assert.False(t, ok)
}

func TestResolveWebFingerEmptyLinksForOtherRel(t *testing.T) {
	t.Parallel()
	allowlist := hostpolicy.NewWebFingerAllowlist([]string{"example.com"})

	resp, ok := ResolveWebFinger(allowlist, "acct:octocat@example.com", "http://webfinger.net/rel/avatar", "https://takagi.example.com")

	require.True(t, ok)
	assert.Empty(t, resp.Links)
}

func TestResolveWebFingerRejectsMalformedEmail(t *testing.T) {
	t.Parallel()
	allowlist := hostpolicy.NewWebFingerAllowlist([]string{"example.com"})

	_, ok := ResolveWebFinger(allowlist, "acct:not-an-email", "", "https://takagi.example.com")

	assert.False(t, ok)
}

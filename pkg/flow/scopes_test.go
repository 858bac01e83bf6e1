package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseScopes(t *testing.T) {
	t.Parallel()
	scopes := parseScopes("openid  profile email")
	assert.True(t, scopes["openid"])
	assert.True(t, scopes["profile"])
	assert.True(t, scopes["email"])
	assert.False(t, scopes["groups"])
}

func TestParseScopesEmpty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, parseScopes(""))
}

func TestScopeNames(t *testing.T) {
	t.Parallel()
	names := scopeNames(map[string]bool{"openid": true, "profile": true})
	assert.ElementsMatch(t, []string{"openid", "profile"}, names)
}

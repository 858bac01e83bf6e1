package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientAllowedWithExplicitList(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Config{AllowedClients: []string{"a", "b"}})
	assert.True(t, h.engine.clientAllowed("a"))
	assert.False(t, h.engine.clientAllowed("c"))
}

func TestClientAllowedWithWildcard(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Config{AllowedClients: []string{"*"}})
	assert.True(t, h.engine.clientAllowed("anything"))
}

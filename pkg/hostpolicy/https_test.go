package hostpolicy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireHTTPS(t *testing.T) {
	t.Parallel()
	assert.True(t, RequireHTTPS("https", "app.example.com", true))
	assert.False(t, RequireHTTPS("http", "app.example.com", true))
	assert.True(t, RequireHTTPS("http", "localhost", true))
	assert.False(t, RequireHTTPS("http", "localhost", false))
}

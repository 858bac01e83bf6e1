package hostpolicy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsLoopbackHost(t *testing.T) {
	t.Parallel()
	tests := []struct {
		hostname   string
		isLoopback bool
	}{
		{"127.0.0.1", true},
		{"::1", true},
		{"localhost", true},
		{"LOCALHOST", true},
		{"LocalHost", true},
		{"127.0.0.2", true},
		{"127.255.255.255", true},
		{"192.168.1.1", false},
		{"10.0.0.1", false},
		{"example.com", false},
		{"", false},
		{"0.0.0.0", false},
	}
	for _, tt := range tests {
		t.Run(tt.hostname, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.isLoopback, IsLoopbackHost(tt.hostname))
		})
	}
}

func TestHostAllowlist_LoopbackAlwaysAllowed(t *testing.T) {
	t.Parallel()
	h := NewHostAllowlist([]string{"example.com"})
	assert.True(t, h.Allows("localhost"))
	assert.True(t, h.Allows("127.0.0.1"))
	assert.True(t, h.Allows("[::1]"))
}

func TestHostAllowlist_LiteralMatch(t *testing.T) {
	t.Parallel()
	h := NewHostAllowlist([]string{"example.com"})
	assert.True(t, h.Allows("example.com"))
	assert.True(t, h.Allows("EXAMPLE.COM"))
	assert.False(t, h.Allows("other.com"))
}

func TestHostAllowlist_StripsPort(t *testing.T) {
	t.Parallel()
	h := NewHostAllowlist([]string{"example.com"})
	assert.True(t, h.Allows("example.com:8443"))
}

func TestHostAllowlist_WildcardDomain(t *testing.T) {
	t.Parallel()
	h := NewHostAllowlist([]string{"*.example.com"})
	assert.True(t, h.Allows("a.example.com"))
	assert.True(t, h.Allows("a.b.example.com"))
	assert.False(t, h.Allows("example.com"), "the wildcard suffix itself is not a label prefix of itself")
	assert.False(t, h.Allows("notexample.com"))
}

func TestHostAllowlist_BareStarAllowsAnyHost(t *testing.T) {
	t.Parallel()
	h := NewHostAllowlist([]string{"*"})
	assert.True(t, h.Allows("anything.invalid"))
}

func TestHostAllowlist_BareStarAlongsideWildcardDomain(t *testing.T) {
	t.Parallel()
	// Regression: a wildcard domain entry must not trigger special
	// handling when "*" is also present in the list.
	h := NewHostAllowlist([]string{"*.example.com", "*"})
	assert.True(t, h.Allows("anything.invalid"))
	assert.True(t, h.Allows("a.example.com"))
}

func TestHostAllowlist_EmptyHostRejected(t *testing.T) {
	t.Parallel()
	h := NewHostAllowlist([]string{"*"})
	assert.False(t, h.Allows(""))
}

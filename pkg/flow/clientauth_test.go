package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientAuthResolveFormCredentials(t *testing.T) {
	t.Parallel()
	id, err := ClientAuth{FormClientID: "rp-client", FormClientSecret: "shh"}.resolve()
	require.Nil(t, err)
	assert.Equal(t, "rp-client", id)
}

func TestClientAuthResolveBasicCredentials(t *testing.T) {
	t.Parallel()
	id, err := ClientAuth{BasicProvided: true, BasicClientID: "rp-client", BasicSecret: "shh"}.resolve()
	require.Nil(t, err)
	assert.Equal(t, "rp-client", id)
}

func TestClientAuthResolveRejectsBothBasicAndFormSecret(t *testing.T) {
	t.Parallel()
	_, err := ClientAuth{
		BasicProvided: true, BasicClientID: "rp-client", BasicSecret: "shh",
		FormClientSecret: "also-shh",
	}.resolve()
	require.NotNil(t, err)
	assert.Equal(t, "invalid_request", err.Code)
}

func TestClientAuthResolveRequiresClientID(t *testing.T) {
	t.Parallel()
	_, err := ClientAuth{}.resolve()
	require.NotNil(t, err)
	assert.Equal(t, "invalid_request", err.Code)
}

func TestClientAuthResolveBasicWithoutFormSecretIsFine(t *testing.T) {
	t.Parallel()
	id, err := ClientAuth{BasicProvided: true, BasicClientID: "rp-client"}.resolve()
	require.Nil(t, err)
	assert.Equal(t, "rp-client", id)
}

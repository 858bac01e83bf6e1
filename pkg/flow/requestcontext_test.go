package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestContextIssuer(t *testing.T) {
	t.Parallel()
	rc := RequestContext{Scheme: "https", Host: "takagi.example.com"}
	assert.Equal(t, "https://takagi.example.com", rc.Issuer())
}

func TestRequestContextIssuerWithBasePath(t *testing.T) {
	t.Parallel()
	rc := RequestContext{Scheme: "https", Host: "takagi.example.com", BasePath: "/takagi"}
	assert.Equal(t, "https://takagi.example.com/takagi", rc.Issuer())
}

func TestRequestContextIssuerNormalizesRootBasePath(t *testing.T) {
	t.Parallel()
	rc := RequestContext{Scheme: "https", Host: "takagi.example.com", BasePath: "/"}
	assert.Equal(t, "https://takagi.example.com", rc.Issuer())
}

func TestRequestContextEndpointURL(t *testing.T) {
	t.Parallel()
	rc := RequestContext{Scheme: "https", Host: "takagi.example.com"}
	assert.Equal(t, "https://takagi.example.com/userinfo", rc.EndpointURL("/userinfo"))
}

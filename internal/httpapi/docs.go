package httpapi

import (
	"fmt"
	"net/http"
)

// docsHTML renders a minimal human-readable index of Takagi's endpoints.
// Hand-authored rather than generated: a swag-style doc generator needs
// Go struct annotations this codebase has no reason to carry, so /docs
// stays a small static page pointing at /openapi.json instead.
const docsHTML = `<!DOCTYPE html>
<html>
<head><title>Takagi</title></head>
<body>
<h1>Takagi OIDC adapter</h1>
<p>This deployment exposes a standards-compliant OpenID Connect 1.0 provider surface.
See <a href="openapi.json">openapi.json</a> for the full endpoint description.</p>
<ul>
<li>GET /authorize</li>
<li>POST /token</li>
<li>GET/POST /userinfo</li>
<li>POST /introspect</li>
<li>GET /.well-known/openid-configuration</li>
<li>GET /.well-known/jwks.json</li>
<li>GET /.well-known/webfinger</li>
</ul>
</body>
</html>
`

func (*Server) handleDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(docsHTML))
}

// handleOpenAPI serves a static OpenAPI 3.0 description of Takagi's
// surface, built from the request's observed issuer rather than a
// baked-in server URL.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	rc := s.buildRequestContext(r)
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, openAPITemplate, rc.Issuer())
}

const openAPITemplate = `{
  "openapi": "3.0.3",
  "info": {"title": "Takagi", "version": "1.0"},
  "servers": [{"url": %q}],
  "paths": {
    "/authorize": {"get": {"summary": "Begin an OIDC authorization code flow"}},
    "/token": {"post": {"summary": "Exchange a code or refresh token for tokens"}},
    "/userinfo": {
      "get": {"summary": "Fetch the authenticated user's claims"},
      "post": {"summary": "Fetch the authenticated user's claims"}
    },
    "/introspect": {"post": {"summary": "Introspect an access token (RFC 7662)"}},
    "/.well-known/openid-configuration": {"get": {"summary": "OIDC discovery document"}},
    "/.well-known/jwks.json": {"get": {"summary": "Public signing key set"}},
    "/.well-known/webfinger": {"get": {"summary": "WebFinger issuer discovery (RFC 7033)"}}
  }
}
`

package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/stacklok/takagi/pkg/discovery"
	"github.com/stacklok/takagi/pkg/logger"
)

func (s *Server) handleDiscoveryDocument(w http.ResponseWriter, r *http.Request) {
	rc := s.buildRequestContext(r)
	doc := discovery.BuildDocument(discovery.BaseURLs{
		Issuer:                rc.Issuer(),
		AuthorizationEndpoint: rc.EndpointURL("/authorize"),
		TokenEndpoint:         rc.EndpointURL("/token"),
		UserinfoEndpoint:      rc.EndpointURL("/userinfo"),
		IntrospectionEndpoint: rc.EndpointURL("/introspect"),
		JWKSURI:               rc.EndpointURL("/.well-known/jwks.json"),
	})

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		logger.Warnw("httpapi: failed to encode discovery document", "err", err)
	}
}

func (s *Server) handleJWKS(w http.ResponseWriter, _ *http.Request) {
	out, err := discovery.MarshalJWKS(s.keys)
	if err != nil {
		logger.Errorw("httpapi: failed to build jwks document", "err", err)
		http.Error(w, "failed to build jwks document", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(out)
}

func (s *Server) handleWebFinger(w http.ResponseWriter, r *http.Request) {
	rc := s.buildRequestContext(r)
	resource := r.URL.Query().Get("resource")
	rel := r.URL.Query().Get("rel")

	resp, ok := discovery.ResolveWebFinger(s.webfinger, resource, rel, rc.Issuer())
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/jrd+json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Warnw("httpapi: failed to encode webfinger response", "err", err)
	}
}

package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/stacklok/takagi/pkg/flow"
	"github.com/stacklok/takagi/pkg/logger"
	"github.com/stacklok/takagi/pkg/oidcerr"
)

// handleIntrospect implements RFC 7662 token introspection. The caller
// must authenticate the same way a /token client would (HTTP Basic or
// form credentials); an unauthenticated or unrecognized caller gets a
// 401 with a WWW-Authenticate: Basic challenge before any token is ever
// looked at.
func (s *Server) handleIntrospect(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		oidcerr.WriteJSON(w, oidcerr.InvalidRequest("malformed request body"))
		return
	}

	auth := flow.ClientAuth{
		FormClientID:     r.PostForm.Get("client_id"),
		FormClientSecret: r.PostForm.Get("client_secret"),
	}
	if basicID, basicSecret, ok := r.BasicAuth(); ok {
		auth.BasicProvided = true
		auth.BasicClientID = basicID
		auth.BasicSecret = basicSecret
	}

	rc := s.buildRequestContext(r)
	claims, oerr := s.engine.HandleIntrospect(rc, auth, r.PostForm.Get("token"))
	if oerr != nil {
		oidcerr.WriteClientAuthError(w, oerr)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(claims); err != nil {
		logger.Warnw("httpapi: failed to encode introspection response", "err", err)
	}
}

package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/stacklok/takagi/pkg/logger"
	"github.com/stacklok/takagi/pkg/oidcerr"
)

func (s *Server) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	bearer := bearerToken(r)

	rc := s.buildRequestContext(r)
	claims, oerr := s.engine.HandleUserInfo(r.Context(), rc, bearer)
	if oerr != nil {
		oidcerr.WriteUserInfoError(w, oerr)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(claims); err != nil {
		logger.Warnw("httpapi: failed to encode userinfo response", "err", err)
	}
}

// bearerToken extracts the access token from the Authorization header,
// falling back to the "access_token" form field for POST requests per
// OAuth2 Bearer Token Usage (RFC 6750 §2).
func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if rest, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return rest
		}
	}
	if r.Method == http.MethodPost {
		_ = r.ParseForm()
		if t := r.PostForm.Get("access_token"); t != "" {
			return t
		}
	}
	return ""
}

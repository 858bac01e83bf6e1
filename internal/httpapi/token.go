package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/stacklok/takagi/pkg/flow"
	"github.com/stacklok/takagi/pkg/logger"
	"github.com/stacklok/takagi/pkg/oidcerr"
)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
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
	result, oerr := s.engine.HandleToken(r.Context(), rc, flow.TokenParams{
		GrantType:    r.PostForm.Get("grant_type"),
		Code:         r.PostForm.Get("code"),
		RedirectURI:  r.PostForm.Get("redirect_uri"),
		CodeVerifier: r.PostForm.Get("code_verifier"),
		RefreshToken: r.PostForm.Get("refresh_token"),
		Auth:         auth,
	})
	if oerr != nil {
		oidcerr.WriteJSON(w, oerr)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(tokenResponse{
		AccessToken:  result.AccessToken,
		IDToken:      result.IDToken,
		RefreshToken: result.RefreshToken,
		TokenType:    result.TokenType,
	}); err != nil {
		logger.Warnw("httpapi: failed to encode token response", "err", err)
	}
}

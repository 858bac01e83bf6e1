package httpapi

import (
	"net/http"
	"net/url"

	"github.com/stacklok/takagi/pkg/flow"
	"github.com/stacklok/takagi/pkg/oidcerr"
)

func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	rc := s.buildRequestContext(r)
	q := r.URL.Query()

	decision := s.engine.Authorize(r.Context(), rc, flow.AuthorizeParams{
		ClientID:            q.Get("client_id"),
		ResponseType:        q.Get("response_type"),
		RedirectURI:         q.Get("redirect_uri"),
		Scope:               q.Get("scope"),
		State:               q.Get("state"),
		Nonce:               q.Get("nonce"),
		CodeChallenge:       q.Get("code_challenge"),
		CodeChallengeMethod: q.Get("code_challenge_method"),
		Return:              q.Get("return"),
		MaxAge:              q.Get("max_age"),
		Prompt:              q.Get("prompt"),
	})

	s.renderDecision(w, r, decision)
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	rc := s.buildRequestContext(r)
	q := r.URL.Query()

	decision := s.engine.HandleCallback(r.Context(), rc, flow.CallbackParams{
		StateRef:      q.Get("state"),
		Code:          q.Get("code"),
		UpstreamError: q.Get("error"),
	})

	s.renderDecision(w, r, decision)
}

// renderDecision surfaces a flow.AuthorizeDecision the way its Kind
// requires: a direct JSON error, a bare redirect to the upstream IdP, or
// a redirect carrying either an OAuth2 error or an issued code.
func (*Server) renderDecision(w http.ResponseWriter, r *http.Request, d *flow.AuthorizeDecision) {
	switch d.Kind {
	case flow.RespondDirect:
		oidcerr.WriteJSON(w, d.Err)
	case flow.RedirectToUpstream:
		http.Redirect(w, r, d.UpstreamURL, http.StatusFound)
	case flow.RedirectWithError:
		oidcerr.Redirect(w, r, d.RedirectURI, d.Err, d.State)
	case flow.RedirectToReferrer:
		oidcerr.Redirect(w, r, d.RedirectURI, d.Err, d.State)
	case flow.RedirectToClient:
		redirectWithCode(w, r, d.RedirectURI, d.Code, d.State)
	default:
		oidcerr.WriteJSON(w, oidcerr.ServerError("unrecognized flow decision"))
	}
}

// redirectWithCode builds the relying-party-facing success redirect:
// redirectURI (a "/r/..." path the engine already validated) with the
// issued code and the RP's original state appended.
func redirectWithCode(w http.ResponseWriter, r *http.Request, redirectURI, code, state string) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		oidcerr.WriteJSON(w, oidcerr.ServerError("invalid redirect target"))
		return
	}
	q := u.Query()
	q.Set("code", code)
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusFound)
}

package httpapi

import (
	"net/http"
	"net/url"

	"github.com/stacklok/takagi/pkg/hostpolicy"
	"github.com/stacklok/takagi/pkg/logger"
	"github.com/stacklok/takagi/pkg/oidcerr"
)

// handleRedirect resolves Takagi's own "/r/<encoded-destination>" path:
// it decodes the real relying-party redirect URI and forwards the
// browser there, carrying whatever query parameters the Flow Engine (or
// an upstream error bounce) attached to this request — code and state on
// success, error and error_description on failure.
func (*Server) handleRedirect(w http.ResponseWriter, r *http.Request) {
	destination, err := hostpolicy.DecodeRedirect(r.URL.Path)
	if err != nil {
		logger.Warnw("httpapi: malformed /r/ path", "path", r.URL.Path, "err", err)
		oidcerr.WriteJSON(w, oidcerr.InvalidRequest("malformed redirect path"))
		return
	}

	u, err := url.Parse(destination)
	if err != nil {
		oidcerr.WriteJSON(w, oidcerr.ServerError("invalid redirect destination"))
		return
	}

	q := u.Query()
	for k, vs := range r.URL.Query() {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()

	http.Redirect(w, r, u.String(), http.StatusFound)
}

package flow

import "github.com/stacklok/takagi/pkg/oidcerr"

// ClientAuth carries the /token request's client credentials, however
// they were transmitted.
type ClientAuth struct {
	BasicProvided    bool
	BasicClientID    string
	BasicSecret      string
	FormClientID     string
	FormClientSecret string
}

// resolve applies spec.md §4.4's client authentication policy: HTTP
// Basic or form client_id/client_secret, never both at once; client_id
// is always required. client_secret itself is accepted for protocol
// conformance but Takagi has no per-client secret store to check it
// against — the client_id allowlist is the only authorization check.
func (a ClientAuth) resolve() (clientID string, err *oidcerr.Error) {
	if a.BasicProvided && a.FormClientSecret != "" {
		return "", oidcerr.InvalidRequest("client credentials must not be presented via both HTTP Basic and the request body")
	}

	if a.BasicProvided {
		clientID = a.BasicClientID
	} else {
		clientID = a.FormClientID
	}

	if clientID == "" {
		return "", oidcerr.InvalidRequest("client_id is required")
	}
	return clientID, nil
}

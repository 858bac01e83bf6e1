package flow

import "time"

// RequestContext is the immutable per-request context every Engine
// method takes instead of reading ambient state, per the "implicit
// request context" guidance: observed scheme/host/base path, the
// request's notion of "now", and the captured Referer header.
type RequestContext struct {
	Scheme   string
	Host     string
	BasePath string
	Now      time.Time
	Referer  string
}

// Issuer derives the "iss" value for tokens minted or verified against
// this request: the observed scheme+host+base-path, never a baked-in
// hostname.
func (rc RequestContext) Issuer() string {
	base := rc.BasePath
	if base == "/" {
		base = ""
	}
	return rc.Scheme + "://" + rc.Host + base
}

// EndpointURL joins the issuer with a path relative to the base path,
// for deriving e.g. the /userinfo audience URL.
func (rc RequestContext) EndpointURL(path string) string {
	return rc.Issuer() + path
}

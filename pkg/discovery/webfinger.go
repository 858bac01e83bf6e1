package discovery

import (
	"net/mail"
	"strings"

	"github.com/stacklok/takagi/pkg/hostpolicy"
)

// issuerRel is the only rel value WebFinger acts on; any other rel
// yields an empty links array rather than an error, per spec.md §4.6.
const issuerRel = "http://openid.net/specs/connect/1.0/issuer"

// WebFingerLink is one entry of a WebFinger response's "links" array.
type WebFingerLink struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// WebFingerResponse is the JRD body RFC 7033 §4.4 describes.
type WebFingerResponse struct {
	Subject string          `json:"subject"`
	Links   []WebFingerLink `json:"links"`
}

// ResolveWebFinger validates resource as "acct:<email>" against
// allowlist, and builds the response for the given rel. ok is false
// when resource is not an acct: URI with valid-syntax email whose
// domain the allowlist admits — callers render 404 in that case.
func ResolveWebFinger(allowlist *hostpolicy.WebFingerAllowlist, resource, rel, issuer string) (WebFingerResponse, bool) {
	acct, ok := strings.CutPrefix(resource, "acct:")
	if !ok {
		return WebFingerResponse{}, false
	}

	addr, err := mail.ParseAddress(acct)
	if err != nil {
		return WebFingerResponse{}, false
	}

	domain := addr.Address[strings.LastIndex(addr.Address, "@")+1:]
	if !allowlist.Allows(domain) {
		return WebFingerResponse{}, false
	}

	resp := WebFingerResponse{Subject: resource}
	if rel == "" || rel == issuerRel {
		resp.Links = []WebFingerLink{{Rel: issuerRel, Href: issuer}}
	}
	return resp, true
}

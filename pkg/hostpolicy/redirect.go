package hostpolicy

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// RedirectPrefix is the path prefix every relying-party redirect URI must
// live under at the authorization server boundary. The remainder of the
// path, percent-decoded, is the real destination.
const RedirectPrefix = "/r/"

// ErrNotUnderRedirectPrefix is returned when a redirect URI is not a
// "/r/..." subpath and FIX_REDIRECT_URIS is not enabled to rewrite it.
var ErrNotUnderRedirectPrefix = errors.New("hostpolicy: redirect URI is not under " + RedirectPrefix)

// EncodeRedirect builds the "/r/<encoded-destination>" path for a real
// destination URI, for use when FIX_REDIRECT_URIS rewrites a bare
// relying-party redirect URI.
func EncodeRedirect(destination string) string {
	return RedirectPrefix + url.PathEscape(destination)
}

// DecodeRedirect recovers the real destination URI from a requested
// redirect URI that already begins with RedirectPrefix. A URI that does
// not begin with the prefix is rejected with ErrNotUnderRedirectPrefix.
func DecodeRedirect(redirectURI string) (string, error) {
	rest, ok := strings.CutPrefix(redirectURI, RedirectPrefix)
	if !ok {
		return "", ErrNotUnderRedirectPrefix
	}
	decoded, err := url.PathUnescape(rest)
	if err != nil {
		return "", fmt.Errorf("hostpolicy: malformed redirect encoding: %w", err)
	}
	return decoded, nil
}

// MatchesRegisteredRedirect reports whether requested is an acceptable
// redirect destination given the redirect URI the relying party
// registered (captured in the AuthorizationRequest at /authorize — the
// only authoritative source, never the callback URL). Non-loopback
// destinations must match exactly; loopback destinations apply RFC 8252
// §7.3 port-agnostic matching, since native-app clients legitimately bind
// an ephemeral port chosen at request time.
func MatchesRegisteredRedirect(registered, requested string) bool {
	if registered == requested {
		return true
	}

	reg, err := url.Parse(registered)
	if err != nil {
		return false
	}
	req, err := url.Parse(requested)
	if err != nil {
		return false
	}

	regHost := reg.Hostname()
	reqHost := req.Hostname()
	if !IsLoopbackHost(regHost) || !IsLoopbackHost(reqHost) {
		return false
	}
	if !hostnamesMatch(reqHost, regHost) {
		return false
	}
	if reg.Scheme != req.Scheme || reg.Path != req.Path || reg.RawQuery != req.RawQuery {
		return false
	}
	// Ports are deliberately not compared — RFC 8252 §7.3.
	return true
}

// hostnamesMatch compares two loopback hostnames for equality without
// treating "localhost" and "127.0.0.1" as interchangeable: a native app
// that registered "127.0.0.1" must request "127.0.0.1" back, not
// "localhost", even though both are loopback.
func hostnamesMatch(a, b string) bool {
	if strings.EqualFold(a, b) {
		return true
	}
	ipA := net.ParseIP(a)
	ipB := net.ParseIP(b)
	if ipA != nil && ipB != nil {
		return ipA.Equal(ipB)
	}
	return false
}

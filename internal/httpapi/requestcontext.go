package httpapi

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/stacklok/takagi/pkg/flow"
)

// buildRequestContext derives a flow.RequestContext from the observed
// request: scheme from TLS/X-Forwarded-Proto (loopback requests may fall
// back to plain HTTP per TreatLoopbackAsSecure), host from the Host
// header or X-Forwarded-Host, the server's configured base path, and the
// captured Referer.
func (s *Server) buildRequestContext(r *http.Request) flow.RequestContext {
	return flow.RequestContext{
		Scheme:   s.observedScheme(r),
		Host:     observedHost(r),
		BasePath: s.basePath,
		Now:      time.Now(),
		Referer:  r.Referer(),
	}
}

func observedHost(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return r.Host
}

func (s *Server) observedScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func hostOnly(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

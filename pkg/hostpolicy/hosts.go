// Package hostpolicy implements Takagi's host-header allowlist,
// redirect-URI encoding/validation, loopback matching, and WebFinger
// domain allowlist — the small security-sensitive trust boundary the
// rest of the Flow Engine leans on.
package hostpolicy

import (
	"net"
	"strings"
)

// IsLoopbackHost reports whether hostname names a loopback address:
// "localhost" (any case), any address in 127.0.0.0/8, or "::1".
func IsLoopbackHost(hostname string) bool {
	if hostname == "" {
		return false
	}
	if strings.EqualFold(hostname, "localhost") {
		return true
	}
	ip := net.ParseIP(hostname)
	if ip == nil {
		return false
	}
	return ip.IsLoopback()
}

// HostAllowlist validates an observed Host header against a configured
// set of patterns: literal hostnames, IP literals, wildcard domains
// (*.example.com), and the bare "*" meaning any host. Loopback hosts are
// always accepted regardless of the configured patterns.
type HostAllowlist struct {
	patterns []string
	allowAny bool
}

// NewHostAllowlist builds an allowlist from CSV-split patterns (already
// split by the caller — pkg/config owns CSV parsing). Patterns are
// matched case-insensitively.
func NewHostAllowlist(patterns []string) *HostAllowlist {
	h := &HostAllowlist{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if p == "*" {
			h.allowAny = true
			continue
		}
		h.patterns = append(h.patterns, strings.ToLower(p))
	}
	return h
}

// Allows reports whether host (without port) is permitted.
func (h *HostAllowlist) Allows(host string) bool {
	host = strings.TrimSpace(host)
	if host == "" {
		return false
	}
	// Host headers may carry a port; strip it before matching.
	if hostOnly, _, err := net.SplitHostPort(host); err == nil {
		host = hostOnly
	}
	// A bracketed IPv6 literal without a port ("[::1]") keeps its brackets
	// through SplitHostPort; drop them so the address parses.
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")

	if IsLoopbackHost(host) {
		return true
	}
	if h.allowAny {
		return true
	}

	lower := strings.ToLower(host)
	for _, p := range h.patterns {
		if matchesHostPattern(p, lower) {
			return true
		}
	}
	return false
}

// matchesHostPattern matches a single allowlist entry against host.
// "*.example.com" matches any non-empty label prefix of "example.com"
// ("a.example.com", "a.b.example.com") but not "example.com" itself.
// Any other pattern is a literal, case-insensitive match.
func matchesHostPattern(pattern, host string) bool {
	suffix, isWildcard := strings.CutPrefix(pattern, "*.")
	if !isWildcard {
		return pattern == host
	}
	if !strings.HasSuffix(host, "."+suffix) {
		return false
	}
	prefix := strings.TrimSuffix(host, "."+suffix)
	return prefix != ""
}

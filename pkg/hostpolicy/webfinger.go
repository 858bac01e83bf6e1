package hostpolicy

import "strings"

// WebFingerAllowlist validates the domain of an "acct:" WebFinger
// resource. Unlike HostAllowlist, a bare "*" is never permitted here —
// advertising identity for literally any domain defeats the allowlist's
// purpose, so the config loader rejects it as a fatal configuration
// fault, and NewWebFingerAllowlist drops any "*" pattern it is given.
type WebFingerAllowlist struct {
	patterns []string
}

// NewWebFingerAllowlist builds an allowlist from CSV-split domain
// patterns. An absent allowlist (empty patterns) rejects every resource,
// disabling WebFinger entirely rather than defaulting open.
func NewWebFingerAllowlist(patterns []string) *WebFingerAllowlist {
	w := &WebFingerAllowlist{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" || p == "*" {
			continue
		}
		w.patterns = append(w.patterns, strings.ToLower(p))
	}
	return w
}

// Allows reports whether domain (the part after "@" in an acct: URI) is
// permitted.
func (w *WebFingerAllowlist) Allows(domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return false
	}
	for _, p := range w.patterns {
		if matchesHostPattern(p, domain) || p == domain {
			return true
		}
	}
	return false
}

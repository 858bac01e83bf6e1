package hostpolicy

// RequireHTTPS reports whether the observed scheme is acceptable: plain
// HTTP is rejected unless the request originates from a loopback host
// and treatLoopbackAsSecure is enabled (the TREAT_LOOPBACK_AS_SECURE
// default).
func RequireHTTPS(scheme, host string, treatLoopbackAsSecure bool) bool {
	if scheme == "https" {
		return true
	}
	return treatLoopbackAsSecure && IsLoopbackHost(host)
}

package upstream

import "errors"

var (
	// ErrRefreshUnsupported is returned by Refresh on upstreams that never
	// issue refresh tokens.
	ErrRefreshUnsupported = errors.New("upstream: refresh not supported by this provider")

	// ErrExchangeFailed wraps a rejected or malformed code/refresh
	// exchange response from the upstream token endpoint.
	ErrExchangeFailed = errors.New("upstream: token exchange failed")

	// ErrIdentityFetchFailed wraps a failed mandatory identity subcall
	// (the profile fetch). A failed non-mandatory subcall (groups) never
	// produces this error; it just omits the claim.
	ErrIdentityFetchFailed = errors.New("upstream: identity fetch failed")
)

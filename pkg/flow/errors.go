package flow

import "errors"

var (
	errMissingRedirectURI    = errors.New("flow: redirect_uri is required")
	errMalformedRedirectURI  = errors.New("flow: redirect_uri has malformed /r/ encoding")
	errNotUnderRedirectPrefix = errors.New("flow: redirect_uri must be a /r/ subpath")
)

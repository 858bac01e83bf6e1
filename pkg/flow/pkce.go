package flow

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// verifyPKCE implements RFC 7636's verifier-to-challenge check for the
// two methods spec.md permits: S256 (recommended) and plain (allowed).
// An unrecognized method never verifies.
func verifyPKCE(method, verifier, challenge string) bool {
	switch method {
	case "S256":
		sum := sha256.Sum256([]byte(verifier))
		computed := base64.RawURLEncoding.EncodeToString(sum[:])
		return subtle.ConstantTimeCompare([]byte(computed), []byte(challenge)) == 1
	case "plain":
		return subtle.ConstantTimeCompare([]byte(verifier), []byte(challenge)) == 1
	default:
		return false
	}
}

func validPKCEMethod(method string) bool {
	return method == "S256" || method == "plain"
}

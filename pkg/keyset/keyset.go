// Package keyset implements Takagi's Keyset Manager: the RSA signing key
// and symmetric encryption key pair backing every issued token, with
// managed-file persistence, external supply, and rotation.
package keyset

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"

	josev4 "github.com/go-jose/go-jose/v4"

	"github.com/stacklok/takagi/pkg/logger"
)

// RSAKeyBits is the size of generated signing keys. 2048 is the NIST
// SP 800-57 floor; Takagi generates at that size for managed keysets.
const RSAKeyBits = 2048

// EncKeyBytes is the length of the symmetric encryption key, A256GCM's
// required key size.
const EncKeyBytes = 32

// keys is the immutable pair of keys backing one generation of the
// keyset. A *keys value is never mutated after construction; rotation
// replaces the Manager's pointer to a new one.
type keys struct {
	signingKey *rsa.PrivateKey
	signingKID string

	encKey []byte
	encKID string
}

// generate builds a brand-new keyset with fresh key material.
func generate() (*keys, error) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, RSAKeyBits)
	if err != nil {
		return nil, fmt.Errorf("keyset: generate RSA key: %w", err)
	}

	encKey := make([]byte, EncKeyBytes)
	if _, err := rand.Read(encKey); err != nil {
		return nil, fmt.Errorf("keyset: generate encryption key: %w", err)
	}

	signingKID, err := thumbprintKID(josev4.JSONWebKey{Key: rsaKey.Public(), Algorithm: "RS256", Use: "sig"})
	if err != nil {
		return nil, fmt.Errorf("keyset: thumbprint signing key: %w", err)
	}

	encKID, err := thumbprintKID(josev4.JSONWebKey{Key: encKey, Algorithm: "A256GCM", Use: "enc"})
	if err != nil {
		return nil, fmt.Errorf("keyset: thumbprint encryption key: %w", err)
	}

	logger.Debugw("generated new keyset", "signingKID", signingKID, "encKID", encKID)

	return &keys{
		signingKey: rsaKey,
		signingKID: signingKID,
		encKey:     encKey,
		encKID:     encKID,
	}, nil
}

func thumbprintKID(jwk josev4.JSONWebKey) (string, error) {
	thumb, err := jwk.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(thumb), nil
}

// toJWKSet serializes the keyset (private material included) as a
// JWK Set, the managed on-disk / externally-supplied wire format.
func (k *keys) toJWKSet() josev4.JSONWebKeySet {
	return josev4.JSONWebKeySet{
		Keys: []josev4.JSONWebKey{
			{Key: k.signingKey, KeyID: k.signingKID, Algorithm: "RS256", Use: "sig"},
			{Key: k.encKey, KeyID: k.encKID, Algorithm: "A256GCM", Use: "enc"},
		},
	}
}

// fromJWKSet validates and extracts a keys value from an externally- or
// managed-file-supplied JWK Set: exactly one RS256 signing key with full
// private parameters, exactly one A256GCM oct key whose "k" decodes to 32
// bytes, and a non-empty kid on each.
func fromJWKSet(set josev4.JSONWebKeySet) (*keys, error) {
	var (
		signingKey *rsa.PrivateKey
		signingKID string
		encKey     []byte
		encKID     string
	)

	for _, jwk := range set.Keys {
		switch jwk.Use {
		case "sig":
			if signingKey != nil {
				return nil, fmt.Errorf("keyset: more than one signing key present")
			}
			if jwk.Algorithm != "RS256" {
				return nil, fmt.Errorf("keyset: signing key algorithm must be RS256, got %q", jwk.Algorithm)
			}
			if jwk.KeyID == "" {
				return nil, fmt.Errorf("keyset: signing key has an empty kid")
			}
			priv, ok := jwk.Key.(*rsa.PrivateKey)
			if !ok {
				return nil, fmt.Errorf("keyset: signing key is not an RSA private key (kty/use mismatch)")
			}
			if !jwk.Valid() {
				return nil, fmt.Errorf("keyset: signing key failed validity check")
			}
			signingKey = priv
			signingKID = jwk.KeyID
		case "enc":
			if encKey != nil {
				return nil, fmt.Errorf("keyset: more than one encryption key present")
			}
			if jwk.Algorithm != "A256GCM" {
				return nil, fmt.Errorf("keyset: encryption key algorithm must be A256GCM, got %q", jwk.Algorithm)
			}
			if jwk.KeyID == "" {
				return nil, fmt.Errorf("keyset: encryption key has an empty kid")
			}
			raw, ok := jwk.Key.([]byte)
			if !ok {
				return nil, fmt.Errorf("keyset: encryption key is not a symmetric (oct) key")
			}
			if len(raw) != EncKeyBytes {
				return nil, fmt.Errorf("keyset: encryption key must decode to %d bytes, got %d", EncKeyBytes, len(raw))
			}
			encKey = raw
			encKID = jwk.KeyID
		default:
			return nil, fmt.Errorf("keyset: unexpected key use %q", jwk.Use)
		}
	}

	if signingKey == nil {
		return nil, fmt.Errorf("keyset: missing a use=sig RSA signing key")
	}
	if encKey == nil {
		return nil, fmt.Errorf("keyset: missing a use=enc oct encryption key")
	}

	return &keys{
		signingKey: signingKey,
		signingKID: signingKID,
		encKey:     encKey,
		encKID:     encKID,
	}, nil
}

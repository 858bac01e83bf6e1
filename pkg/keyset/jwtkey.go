package keyset

import (
	"crypto/rsa"
	"fmt"

	josev4 "github.com/go-jose/go-jose/v4"
)

// JWTSigner returns a jose.Signer bound to the active signing key, for
// callers (pkg/token) that build claims with github.com/go-jose/go-jose/v4/jwt's
// builder API rather than signing a raw payload via Sign.
func (m *Manager) JWTSigner() (josev4.Signer, error) {
	k := m.current.Load()

	signer, err := josev4.NewSigner(josev4.SigningKey{
		Algorithm: josev4.RS256,
		Key:       k.signingKey,
	}, &josev4.SignerOptions{
		ExtraHeaders: map[josev4.HeaderKey]any{"kid": k.signingKID},
	})
	if err != nil {
		return nil, fmt.Errorf("keyset: build JWT signer: %w", err)
	}
	return signer, nil
}

// VerificationKey returns the active signing key's public half and its
// kid, for verifying a JWT and cross-checking its kid header.
func (m *Manager) VerificationKey() (*rsa.PublicKey, string) {
	k := m.current.Load()
	return &k.signingKey.PublicKey, k.signingKID
}

// EncryptionKID returns the kid of the active encryption key, the same
// kid Encrypt writes into the header of each JWE it produces.
func (m *Manager) EncryptionKID() string {
	return m.current.Load().encKID
}

package keyset

import (
	"fmt"

	"github.com/lestrrat-go/jwx/v3/jwk"
)

// PublicJWKS builds the public JWKS document served at
// /.well-known/jwks.json: the signing key's public half only. The
// encryption key is symmetric and never appears in any public document.
func (m *Manager) PublicJWKS() (jwk.Set, error) {
	k := m.current.Load()

	key, err := jwk.Import(k.signingKey.Public())
	if err != nil {
		return nil, fmt.Errorf("keyset: import public signing key: %w", err)
	}
	if err := key.Set(jwk.KeyIDKey, k.signingKID); err != nil {
		return nil, fmt.Errorf("keyset: set kid: %w", err)
	}
	if err := key.Set(jwk.AlgorithmKey, "RS256"); err != nil {
		return nil, fmt.Errorf("keyset: set alg: %w", err)
	}
	if err := key.Set(jwk.KeyUsageKey, "sig"); err != nil {
		return nil, fmt.Errorf("keyset: set use: %w", err)
	}

	set := jwk.NewSet()
	if err := set.AddKey(key); err != nil {
		return nil, fmt.Errorf("keyset: add key to set: %w", err)
	}
	return set, nil
}

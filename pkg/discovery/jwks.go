package discovery

import (
	"encoding/json"
	"fmt"

	"github.com/stacklok/takagi/pkg/keyset"
)

// MarshalJWKS renders the keyset Manager's public JWKS document as the
// JSON body served at /.well-known/jwks.json.
func MarshalJWKS(m *keyset.Manager) ([]byte, error) {
	set, err := m.PublicJWKS()
	if err != nil {
		return nil, fmt.Errorf("discovery: build public jwks: %w", err)
	}
	out, err := json.Marshal(set)
	if err != nil {
		return nil, fmt.Errorf("discovery: marshal jwks: %w", err)
	}
	return out, nil
}

package keyset

import (
	"fmt"

	josev4 "github.com/go-jose/go-jose/v4"
)

// Sign produces a compact JWS over payload using the active signing key.
func (m *Manager) Sign(payload []byte) (string, error) {
	k := m.current.Load()

	signer, err := josev4.NewSigner(josev4.SigningKey{
		Algorithm: josev4.RS256,
		Key:       k.signingKey,
	}, &josev4.SignerOptions{
		ExtraHeaders: map[josev4.HeaderKey]any{"kid": k.signingKID},
	})
	if err != nil {
		return "", fmt.Errorf("keyset: build signer: %w", err)
	}

	obj, err := signer.Sign(payload)
	if err != nil {
		return "", fmt.Errorf("keyset: sign: %w", err)
	}

	out, err := obj.CompactSerialize()
	if err != nil {
		return "", fmt.Errorf("keyset: serialize signature: %w", err)
	}
	return out, nil
}

// Verify checks a compact JWS against the active signing key's public
// half and returns the verified payload. Only RS256 is accepted; a token
// presenting any other alg is rejected outright (RFC 8725 §3.1).
func (m *Manager) Verify(compactJWS string) ([]byte, error) {
	k := m.current.Load()

	obj, err := josev4.ParseSigned(compactJWS, []josev4.SignatureAlgorithm{josev4.RS256})
	if err != nil {
		return nil, fmt.Errorf("keyset: parse signature: %w", err)
	}

	payload, err := obj.Verify(&k.signingKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("keyset: verify signature: %w", err)
	}
	return payload, nil
}

// Encrypt produces a compact JWE over plaintext using the active
// symmetric encryption key. Used to wrap opaque access-token payloads
// that must not be introspectable by the holder (SPEC_FULL.md §4.2).
func (m *Manager) Encrypt(plaintext []byte) (string, error) {
	k := m.current.Load()

	encrypter, err := josev4.NewEncrypter(josev4.A256GCM, josev4.Recipient{
		Algorithm: josev4.DIRECT,
		Key:       k.encKey,
		KeyID:     k.encKID,
	}, nil)
	if err != nil {
		return "", fmt.Errorf("keyset: build encrypter: %w", err)
	}

	obj, err := encrypter.Encrypt(plaintext)
	if err != nil {
		return "", fmt.Errorf("keyset: encrypt: %w", err)
	}

	out, err := obj.CompactSerialize()
	if err != nil {
		return "", fmt.Errorf("keyset: serialize ciphertext: %w", err)
	}
	return out, nil
}

// Decrypt reverses Encrypt using the active symmetric encryption key.
func (m *Manager) Decrypt(compactJWE string) ([]byte, error) {
	k := m.current.Load()

	obj, err := josev4.ParseEncrypted(compactJWE,
		[]josev4.KeyAlgorithm{josev4.DIRECT},
		[]josev4.ContentEncryption{josev4.A256GCM},
	)
	if err != nil {
		return nil, fmt.Errorf("keyset: parse ciphertext: %w", err)
	}

	plaintext, err := obj.Decrypt(k.encKey)
	if err != nil {
		return nil, fmt.Errorf("keyset: decrypt: %w", err)
	}
	return plaintext, nil
}

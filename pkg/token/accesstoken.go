package token

import (
	"fmt"
	"time"

	jwtv4 "github.com/go-jose/go-jose/v4/jwt"
)

// AccessTokenParams carries everything MintAccessToken needs.
type AccessTokenParams struct {
	ClientID      string
	Subject       string
	UserinfoURL   string // the access token's audience
	Issuer        string
	Scopes        map[string]bool
	UpstreamToken string // plaintext; sealed into the "token" claim
	Now           time.Time
}

// MintAccessToken builds and signs an access token carrying the fixed
// claim set (iss, sub, aud, iat, exp, token) plus a "scope" claim that
// lets /userinfo and /introspect project without a second round trip to
// the transaction store — the token claim is the only RFC-required
// envelope; scope is additive bookkeeping the same way an OAuth2 access
// token commonly carries one.
func (s *Service) MintAccessToken(p AccessTokenParams) (string, error) {
	encryptedToken, err := s.keys.Encrypt([]byte(p.UpstreamToken))
	if err != nil {
		return "", fmt.Errorf("token: seal upstream token: %w", err)
	}

	std := jwtv4.Claims{
		Issuer:   p.Issuer,
		Subject:  p.Subject,
		Audience: jwtv4.Audience{p.UserinfoURL},
		IssuedAt: jwtv4.NewNumericDate(p.Now),
		Expiry:   jwtv4.NewNumericDate(s.expiry(p.Now)),
	}

	custom := map[string]any{
		"token": encryptedToken,
		"scope": scopeString(p.Scopes),
	}

	return s.sign(std, custom)
}

// AccessTokenResult is the decoded, verified contents of an access token.
type AccessTokenResult struct {
	Subject        string
	Issuer         string
	IssuedAt       time.Time
	Expiry         time.Time
	Scopes         map[string]bool
	EncryptedToken string
}

// VerifyAccessToken verifies a compact access token JWS against the
// observed issuer and the expected audience (the /userinfo URL).
func (s *Service) VerifyAccessToken(compact, expectedIssuer, expectedUserinfoURL string, now time.Time) (*AccessTokenResult, error) {
	std, custom, err := s.parseAndVerify(compact, expectedIssuer, expectedUserinfoURL, now)
	if err != nil {
		return nil, err
	}

	encryptedToken, _ := custom["token"].(string)
	if encryptedToken == "" {
		return nil, ErrMalformed
	}

	scopeStr, _ := custom["scope"].(string)

	result := &AccessTokenResult{
		Subject:        std.Subject,
		Issuer:         std.Issuer,
		Scopes:         parseScopeString(scopeStr),
		EncryptedToken: encryptedToken,
	}
	if std.IssuedAt != nil {
		result.IssuedAt = std.IssuedAt.Time()
	}
	if std.Expiry != nil {
		result.Expiry = std.Expiry.Time()
	}
	return result, nil
}

// DecryptUpstreamToken recovers the plaintext upstream access token
// sealed in a verified access token's "token" claim.
func (s *Service) DecryptUpstreamToken(encryptedToken string) (string, error) {
	plaintext, err := s.keys.Decrypt(encryptedToken)
	if err != nil {
		return "", fmt.Errorf("token: unseal upstream token: %w", err)
	}
	return string(plaintext), nil
}

// SealUpstreamToken encrypts an upstream access or refresh token under
// the enc key, for storage in the transaction/code store, which never
// sees upstream token plaintext.
func (s *Service) SealUpstreamToken(plaintext string) (string, error) {
	encrypted, err := s.keys.Encrypt([]byte(plaintext))
	if err != nil {
		return "", fmt.Errorf("token: seal upstream token: %w", err)
	}
	return encrypted, nil
}

func parseScopeString(s string) map[string]bool {
	out := map[string]bool{}
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ' ' {
			if i > start {
				out[s[start:i]] = true
			}
			start = i + 1
		}
	}
	return out
}

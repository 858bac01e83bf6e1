// Package token mints and verifies the three JWTs Takagi issues — ID
// tokens, access tokens, and refresh tokens — and projects their claims
// for /userinfo and /introspect.
package token

import (
	"errors"
	"fmt"
	"time"

	josev4 "github.com/go-jose/go-jose/v4"
	jwtv4 "github.com/go-jose/go-jose/v4/jwt"

	"github.com/stacklok/takagi/pkg/keyset"
	"github.com/stacklok/takagi/pkg/logger"
)

// maxExpiry is the effectively-non-expiring sentinel used when no
// TOKEN_LIFETIME is configured — the max timestamp representable by the
// data model's documented convention.
var maxExpiry = time.Date(9999, 12, 31, 23, 59, 59, 999000000, time.UTC)

// Errors returned by Verify* on a malformed or rejected token. Each wraps
// enough context for the Error Mapper to produce the right OAuth2 error
// code without inspecting string text.
var (
	ErrMalformed       = errors.New("token: malformed")
	ErrUnknownKID      = errors.New("token: unknown or missing kid")
	ErrBadSignature    = errors.New("token: signature verification failed")
	ErrExpired         = errors.New("token: expired")
	ErrIssuerMismatch  = errors.New("token: issuer mismatch")
	ErrAudienceMismatch = errors.New("token: audience mismatch")
)

// Service mints and verifies tokens using a keyset.Manager. It holds no
// per-request state; every mint/verify call is independently parameterized.
type Service struct {
	keys     *keyset.Manager
	lifetime time.Duration // 0 => non-expiring (maxExpiry)
}

// NewService builds a Service. lifetime <= 0 means tokens never expire
// within any practical sense (exp is set to maxExpiry).
func NewService(keys *keyset.Manager, lifetime time.Duration) *Service {
	return &Service{keys: keys, lifetime: lifetime}
}

func (s *Service) expiry(now time.Time) time.Time {
	if s.lifetime <= 0 {
		return maxExpiry
	}
	return now.Add(s.lifetime)
}

// sign builds a compact JWS over the given standard + custom claim sets
// using the active signing key.
func (s *Service) sign(std jwtv4.Claims, custom map[string]any) (string, error) {
	signer, err := s.keys.JWTSigner()
	if err != nil {
		return "", err
	}

	out, err := jwtv4.Signed(signer).Claims(std).Claims(custom).Serialize()
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return out, nil
}

// parseAndVerify parses a compact JWS, checks its kid against the active
// signing key (rejecting anything signed under a since-rotated key), and
// decodes both the standard and custom claim sets.
func (s *Service) parseAndVerify(compact string, expectedIssuer, expectedAudience string, now time.Time) (jwtv4.Claims, map[string]any, error) {
	parsed, err := jwtv4.ParseSigned(compact, []josev4.SignatureAlgorithm{josev4.RS256})
	if err != nil {
		return jwtv4.Claims{}, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if len(parsed.Headers) == 0 {
		return jwtv4.Claims{}, nil, ErrMalformed
	}

	pub, activeKID := s.keys.VerificationKey()
	if parsed.Headers[0].KeyID == "" || parsed.Headers[0].KeyID != activeKID {
		logger.Debugw("token verification rejected unknown kid", "got", parsed.Headers[0].KeyID, "active", activeKID)
		return jwtv4.Claims{}, nil, ErrUnknownKID
	}

	var std jwtv4.Claims
	var custom map[string]any
	if err := parsed.Claims(pub, &std, &custom); err != nil {
		return jwtv4.Claims{}, nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	expected := jwtv4.Expected{Time: now}
	if expectedIssuer != "" {
		expected.Issuer = expectedIssuer
	}
	if expectedAudience != "" {
		expected.AnyAudience = jwtv4.Audience{expectedAudience}
	}

	if err := std.Validate(expected); err != nil {
		switch {
		case errors.Is(err, jwtv4.ErrExpired):
			return jwtv4.Claims{}, nil, ErrExpired
		case errors.Is(err, jwtv4.ErrInvalidIssuer):
			return jwtv4.Claims{}, nil, ErrIssuerMismatch
		case errors.Is(err, jwtv4.ErrInvalidAudience):
			return jwtv4.Claims{}, nil, ErrAudienceMismatch
		default:
			return jwtv4.Claims{}, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	return std, custom, nil
}

func scopeString(scopes map[string]bool) string {
	out := ""
	for _, name := range []string{"openid", "profile", "email", "groups", "offline_access"} {
		if scopes[name] {
			if out != "" {
				out += " "
			}
			out += name
		}
	}
	return out
}

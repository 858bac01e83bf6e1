package token

import (
	"time"

	jwtv4 "github.com/go-jose/go-jose/v4/jwt"

	"github.com/stacklok/takagi/pkg/claims"
)

// IDTokenParams carries everything MintIDToken needs to build an ID
// token's claim set.
type IDTokenParams struct {
	Snapshot claims.Snapshot
	ClientID string
	Scopes   map[string]bool
	Nonce    string
	Issuer   string
	Now      time.Time

	// AuthTime, when non-nil, is echoed as the auth_time claim (the
	// max_age/auth_time pairing OIDC Core 1.0 §2 describes). Carried only
	// when the authorize request named a max_age parameter.
	AuthTime *time.Time
}

// MintIDToken builds and signs an ID token per the claim set named in
// the data model: iss, sub, aud, iat, exp, plus scope-gated profile/
// email/groups claims, plus an echoed nonce.
func (s *Service) MintIDToken(p IDTokenParams) (string, error) {
	std := jwtv4.Claims{
		Issuer:   p.Issuer,
		Subject:  p.Snapshot.ID,
		Audience: jwtv4.Audience{p.ClientID},
		IssuedAt: jwtv4.NewNumericDate(p.Now),
		Expiry:   jwtv4.NewNumericDate(s.expiry(p.Now)),
	}

	custom := p.Snapshot.ProjectedClaims(p.Scopes)
	if p.Nonce != "" {
		custom["nonce"] = p.Nonce
	}
	if p.AuthTime != nil {
		custom["auth_time"] = p.AuthTime.Unix()
	}

	return s.sign(std, custom)
}

// IDTokenResult is the decoded, verified contents of an ID token.
type IDTokenResult struct {
	Subject string
	Issuer  string
	Nonce   string
	Claims  map[string]any
}

// VerifyIDToken verifies a compact ID token JWS against the given
// observed issuer and the relying party's client_id (the audience).
func (s *Service) VerifyIDToken(compact, expectedIssuer, expectedClientID string, now time.Time) (*IDTokenResult, error) {
	std, custom, err := s.parseAndVerify(compact, expectedIssuer, expectedClientID, now)
	if err != nil {
		return nil, err
	}

	nonce, _ := custom["nonce"].(string)
	delete(custom, "nonce")

	return &IDTokenResult{
		Subject: std.Subject,
		Issuer:  std.Issuer,
		Nonce:   nonce,
		Claims:  custom,
	}, nil
}

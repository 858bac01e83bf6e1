package token

import (
	"time"

	jwtv4 "github.com/go-jose/go-jose/v4/jwt"
)

// RefreshTokenParams carries everything MintRefreshToken needs. ChainID
// is the stable identifier threaded from the originating AuthorizationCode
// so a refresh request can be bound back to its originating client_id.
type RefreshTokenParams struct {
	ClientID string
	Subject  string
	ChainID  string
	Issuer   string
	Now      time.Time
}

// MintRefreshToken builds and signs a refresh token referencing the
// originating transaction's RefreshChainID. Refresh tokens are single-use
// and rotate on every /token refresh_token grant; the rotation itself is
// enforced by the Flow Engine against pkg/txstore, not here.
func (s *Service) MintRefreshToken(p RefreshTokenParams) (string, error) {
	std := jwtv4.Claims{
		Issuer:   p.Issuer,
		Subject:  p.Subject,
		Audience: jwtv4.Audience{p.ClientID},
		IssuedAt: jwtv4.NewNumericDate(p.Now),
		Expiry:   jwtv4.NewNumericDate(s.expiry(p.Now)),
	}

	custom := map[string]any{"chain": p.ChainID}

	return s.sign(std, custom)
}

// RefreshTokenResult is the decoded, verified contents of a refresh token.
type RefreshTokenResult struct {
	Subject  string
	ClientID string
	ChainID  string
}

// VerifyRefreshToken verifies a compact refresh token JWS against the
// observed issuer. The audience check is the caller's responsibility
// (compare ClientID against the /token request's authenticated client),
// since a refresh token's audience is the client it was issued to and
// client authentication happens earlier in the /token handler.
func (s *Service) VerifyRefreshToken(compact, expectedIssuer string, now time.Time) (*RefreshTokenResult, error) {
	std, custom, err := s.parseAndVerify(compact, expectedIssuer, "", now)
	if err != nil {
		return nil, err
	}

	chainID, _ := custom["chain"].(string)
	if chainID == "" {
		return nil, ErrMalformed
	}

	clientID := ""
	if len(std.Audience) > 0 {
		clientID = std.Audience[0]
	}

	return &RefreshTokenResult{
		Subject:  std.Subject,
		ClientID: clientID,
		ChainID:  chainID,
	}, nil
}

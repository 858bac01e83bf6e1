// Package github implements upstream.Adapter against github.com's OAuth
// Apps flow.
package github

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/oauth2"
	oauthgithub "golang.org/x/oauth2/github"

	"github.com/stacklok/takagi/pkg/claims"
	"github.com/stacklok/takagi/pkg/upstream"
)

const userAgent = "takagi-oidc-adapter"

var _ upstream.Adapter = (*Adapter)(nil)

const (
	defaultUserURL = "https://api.github.com/user"
	defaultOrgsURL = "https://api.github.com/user/orgs"
)

// Adapter is the github.com upstream.Adapter implementation. GitHub
// OAuth App tokens never expire and GitHub never issues a refresh token,
// so Refresh always returns upstream.ErrRefreshUnsupported.
type Adapter struct {
	cfg    oauth2.Config
	client *upstream.RateLimitedClient

	// userURL/orgsURL are overridden in tests to point at an httptest
	// server; production callers always get the api.github.com defaults
	// from New.
	userURL string
	orgsURL string
}

// New builds a GitHub Adapter. redirectURL is Takagi's own callback URL
// for this upstream, not an RP redirect URI.
func New(clientID, clientSecret, redirectURL string) *Adapter {
	return &Adapter{
		cfg: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     oauthgithub.Endpoint,
		},
		client:  upstream.NewRateLimitedClient(userAgent),
		userURL: defaultUserURL,
		orgsURL: defaultOrgsURL,
	}
}

func (*Adapter) Name() string { return "github" }

// MinimumScopes returns no floor: GitHub grants whatever scopes the
// relying party (via Takagi) requested, with no provider-imposed
// minimum, unlike Discord's mandatory "identify".
func (*Adapter) MinimumScopes() []string { return nil }

func (a *Adapter) AuthCodeURL(state string, scopes []string) string {
	cfg := a.cfg
	cfg.Scopes = scopes
	return cfg.AuthCodeURL(state)
}

func (a *Adapter) ExchangeCode(ctx context.Context, code string) (upstream.Tokens, error) {
	tok, err := a.cfg.Exchange(ctx, code)
	if err != nil {
		return upstream.Tokens{}, fmt.Errorf("%w: %w", upstream.ErrExchangeFailed, err)
	}
	return upstream.Tokens{AccessToken: tok.AccessToken}, nil
}

func (*Adapter) Refresh(_ context.Context, _ string) (upstream.Tokens, error) {
	return upstream.Tokens{}, upstream.ErrRefreshUnsupported
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
	Email     string `json:"email"`
}

type githubOrg struct {
	Login string `json:"login"`
}

func (a *Adapter) FetchIdentity(ctx context.Context, accessToken string, wantGroups bool) (claims.Snapshot, error) {
	body, err := a.client.GetRetrying(ctx, a.userURL, "Bearer "+accessToken)
	if err != nil {
		return claims.Snapshot{}, fmt.Errorf("%w: %w", upstream.ErrIdentityFetchFailed, err)
	}

	var user githubUser
	if err := json.Unmarshal(body, &user); err != nil {
		return claims.Snapshot{}, fmt.Errorf("%w: decode /user: %w", upstream.ErrIdentityFetchFailed, err)
	}
	if user.ID == 0 {
		return claims.Snapshot{}, fmt.Errorf("%w: /user response missing id", upstream.ErrIdentityFetchFailed)
	}

	snapshot := claims.Snapshot{
		ID:         fmt.Sprintf("%d", user.ID),
		Username:   user.Login,
		Name:       user.Name,
		AvatarURL:  user.AvatarURL,
		ProfileURL: user.HTMLURL,
		Email:      user.Email,
		// GitHub's /user response has no verification flag distinct from
		// the email field itself; a present primary email returned by
		// this endpoint is the user's verified primary, per GitHub's API
		// docs, so it is reported verified.
		EmailVerified: user.Email != "",
	}

	if wantGroups {
		groups, err := a.fetchOrgs(ctx, accessToken)
		if err != nil {
			// Groups is a non-mandatory subcall: a failure here drops the
			// claim rather than failing identity resolution.
			return snapshot, nil
		}
		snapshot.Groups = groups
	}

	return snapshot, nil
}

func (a *Adapter) fetchOrgs(ctx context.Context, accessToken string) ([]string, error) {
	body, err := a.client.GetRetrying(ctx, a.orgsURL, "Bearer "+accessToken)
	if err != nil {
		return nil, err
	}
	var orgs []githubOrg
	if err := json.Unmarshal(body, &orgs); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(orgs))
	for _, o := range orgs {
		names = append(names, o.Login)
	}
	return names, nil
}

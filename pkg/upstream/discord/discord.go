// Package discord implements upstream.Adapter against Discord's OAuth2
// flow.
package discord

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/stacklok/takagi/pkg/claims"
	"github.com/stacklok/takagi/pkg/upstream"
)

const userAgent = "takagi-oidc-adapter"

var discordEndpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/api/oauth2/authorize",
	TokenURL: "https://discord.com/api/oauth2/token",
}

// minimumScopes is Discord's floor: every authorization request must
// carry at least "identify" or Discord's /users/@me call has nothing to
// return, regardless of what scopes the relying party asked Takagi for.
var minimumScopes = []string{"identify"}

var _ upstream.Adapter = (*Adapter)(nil)

// Adapter is the Discord upstream.Adapter implementation.
const (
	defaultUserURL   = "https://discord.com/api/users/@me"
	defaultGuildsURL = "https://discord.com/api/users/@me/guilds"
)

type Adapter struct {
	cfg    oauth2.Config
	client *upstream.RateLimitedClient

	// userURL/guildsURL are overridden in tests to point at an httptest
	// server; production callers always get the discord.com defaults
	// from New.
	userURL   string
	guildsURL string
}

// New builds a Discord Adapter. redirectURL is Takagi's own callback URL
// for this upstream, not an RP redirect URI.
func New(clientID, clientSecret, redirectURL string) *Adapter {
	return &Adapter{
		cfg: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     discordEndpoint,
		},
		client:    upstream.NewRateLimitedClient(userAgent),
		userURL:   defaultUserURL,
		guildsURL: defaultGuildsURL,
	}
}

func (*Adapter) Name() string { return "discord" }

func (*Adapter) MinimumScopes() []string { return minimumScopes }

// withMinimumScopes unions the requested scopes with minimumScopes,
// Discord's "no scopes provided" quirk otherwise leaving the
// authorization request unable to identify anyone.
func withMinimumScopes(requested []string) []string {
	have := make(map[string]bool, len(requested)+len(minimumScopes))
	out := make([]string, 0, len(requested)+len(minimumScopes))
	for _, s := range requested {
		if !have[s] {
			have[s] = true
			out = append(out, s)
		}
	}
	for _, s := range minimumScopes {
		if !have[s] {
			have[s] = true
			out = append(out, s)
		}
	}
	return out
}

func (a *Adapter) AuthCodeURL(state string, scopes []string) string {
	cfg := a.cfg
	cfg.Scopes = withMinimumScopes(scopes)
	return cfg.AuthCodeURL(state)
}

func (a *Adapter) ExchangeCode(ctx context.Context, code string) (upstream.Tokens, error) {
	tok, err := a.cfg.Exchange(ctx, code)
	if err != nil {
		return upstream.Tokens{}, fmt.Errorf("%w: %w", upstream.ErrExchangeFailed, err)
	}
	return upstream.Tokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}, nil
}

func (a *Adapter) Refresh(ctx context.Context, refreshToken string) (upstream.Tokens, error) {
	src := a.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return upstream.Tokens{}, fmt.Errorf("%w: %w", upstream.ErrExchangeFailed, err)
	}
	return upstream.Tokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}, nil
}

type discordUser struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
	Avatar     string `json:"avatar"`
	Email      string `json:"email"`
	Verified   bool   `json:"verified"`
}

type discordGuild struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (a *Adapter) FetchIdentity(ctx context.Context, accessToken string, wantGroups bool) (claims.Snapshot, error) {
	body, err := a.client.GetRetrying(ctx, a.userURL, "Bearer "+accessToken)
	if err != nil {
		return claims.Snapshot{}, fmt.Errorf("%w: %w", upstream.ErrIdentityFetchFailed, err)
	}

	var user discordUser
	if err := json.Unmarshal(body, &user); err != nil {
		return claims.Snapshot{}, fmt.Errorf("%w: decode /users/@me: %w", upstream.ErrIdentityFetchFailed, err)
	}
	if user.ID == "" {
		return claims.Snapshot{}, fmt.Errorf("%w: /users/@me response missing id", upstream.ErrIdentityFetchFailed)
	}

	name := user.GlobalName
	if name == "" {
		name = user.Username
	}

	snapshot := claims.Snapshot{
		ID:            user.ID,
		Username:      user.Username,
		Name:          name,
		Email:         user.Email,
		EmailVerified: user.Verified,
	}
	if user.Avatar != "" {
		snapshot.AvatarURL = fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", user.ID, user.Avatar)
	}

	if wantGroups {
		guilds, err := a.fetchGuilds(ctx, accessToken)
		if err != nil {
			return snapshot, nil
		}
		snapshot.Groups = guilds
	}

	return snapshot, nil
}

func (a *Adapter) fetchGuilds(ctx context.Context, accessToken string) ([]string, error) {
	body, err := a.client.GetRetrying(ctx, a.guildsURL, "Bearer "+accessToken)
	if err != nil {
		return nil, err
	}
	var guilds []discordGuild
	if err := json.Unmarshal(body, &guilds); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(guilds))
	for _, g := range guilds {
		names = append(names, g.Name)
	}
	return names, nil
}

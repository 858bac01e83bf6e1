// Package config loads and validates Takagi's environment-driven
// configuration. All values must be fully resolved by the time they reach
// the rest of the codebase — no further env lookups happen outside this
// package.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/stacklok/takagi/pkg/logger"
)

// RootRedirect enumerates the behavior of the "/" endpoint.
type RootRedirect string

// Valid RootRedirect values.
const (
	RootRedirectRepo     RootRedirect = "repo"
	RootRedirectSettings RootRedirect = "settings"
	RootRedirectDocs     RootRedirect = "docs"
	RootRedirectOff      RootRedirect = "off"
)

// MinTokenLifetime is the smallest TOKEN_LIFETIME accepted, in seconds.
const MinTokenLifetime = 60

// Config is Takagi's fully-resolved runtime configuration.
type Config struct {
	// AllowedHosts is the Host/X-Forwarded-Host allowlist. Loopback
	// addresses are always implicitly accepted regardless of this list.
	AllowedHosts StringList `env:"ALLOWED_HOSTS" envSeparator:","`

	// AllowedClients is the client_id allowlist for /authorize. "*" means
	// any client_id is accepted.
	AllowedClients StringList `env:"ALLOWED_CLIENTS" envSeparator:","`

	// BasePath is the URL prefix under which Takagi is mounted.
	BasePath string `env:"BASE_PATH" envDefault:"/"`

	// FixRedirectURIs enables automatic rewriting of non-/r/ redirect
	// URIs into /r/<original>.
	FixRedirectURIs bool `env:"FIX_REDIRECT_URIS" envDefault:"false"`

	// TokenLifetime is the issued-token TTL. Zero means non-expiring; the
	// token service, not this package, implements that rule.
	TokenLifetime Duration `env:"TOKEN_LIFETIME"`

	// RootRedirect controls the behavior of GET /.
	RootRedirect RootRedirect `env:"ROOT_REDIRECT" envDefault:"repo"`

	// TreatLoopbackAsSecure permits plain HTTP for loopback requests.
	TreatLoopbackAsSecure bool `env:"TREAT_LOOPBACK_AS_SECURE" envDefault:"true"`

	// ReturnToReferrer is the default for the per-request "return" param.
	ReturnToReferrer bool `env:"RETURN_TO_REFERRER" envDefault:"false"`

	// AllowedWebfingerHosts is the WebFinger domain allowlist. A bare "*"
	// is rejected at validation time.
	AllowedWebfingerHosts StringList `env:"ALLOWED_WEBFINGER_HOSTS" envSeparator:","`

	// Keyset is an externally-supplied JWK Set JSON document. Mutually
	// exclusive with KeysetFile.
	Keyset string `env:"KEYSET"`

	// KeysetFile is a path to the same document. Mutually exclusive with
	// Keyset.
	KeysetFile string `env:"KEYSET_FILE"`

	// EnableDocs serves /docs and /openapi.json.
	EnableDocs bool `env:"ENABLE_DOCS" envDefault:"false"`

	// DataDir is where the managed keyset file is persisted when neither
	// Keyset nor KeysetFile is set.
	DataDir string `env:"DATA_DIR" envDefault:"/var/lib/takagi"`

	// UpstreamProvider selects which upstream.Adapter this binary wires up
	// at startup: "github" (Takagi) or "discord" (Snowflake). A given
	// binary speaks to exactly one upstream for its whole lifetime.
	UpstreamProvider string `env:"UPSTREAM_PROVIDER" envDefault:"github"`

	// UpstreamClientID/UpstreamClientSecret are the OAuth app credentials
	// Takagi presents to the upstream IdP (GitHub or Discord).
	UpstreamClientID     string `env:"CLIENT_ID"`
	UpstreamClientSecret string `env:"CLIENT_SECRET"`

	// UpstreamCallbackURL is Takagi's own callback URL registered with the
	// upstream OAuth app, not an RP redirect URI.
	UpstreamCallbackURL string `env:"CALLBACK_URL"`

	// LogLevel and LogDev configure pkg/logger.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogDev   bool   `env:"LOG_DEV" envDefault:"false"`

	// RedisURL, when set, switches the transaction/code store from the
	// in-memory implementation to the Redis-backed one. Absent by default.
	RedisURL string `env:"REDIS_URL"`
}

// Load reads the environment into a Config using the given variable name
// prefix ("TAKAGI_" for Takagi, "SNOWFLAKE_" for Snowflake), applies
// defaults, and validates the result. Any failure here is a fatal startup
// error.
func Load(prefix string) (*Config, error) {
	logger.Debugw("loading configuration", "prefix", prefix)

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: prefix}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger.Debugw("configuration loaded",
		"basePath", cfg.BasePath,
		"rootRedirect", cfg.RootRedirect,
		"enableDocs", cfg.EnableDocs,
		"managedKeyset", cfg.Keyset == "" && cfg.KeysetFile == "",
	)
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.AllowedHosts) == 0 {
		c.AllowedHosts = StringList{"localhost", "127.0.0.1", "::1"}
	}
	if len(c.AllowedClients) == 0 {
		c.AllowedClients = StringList{"*"}
	}
	if c.BasePath == "" {
		c.BasePath = "/"
	}
}

// Validate checks the Config for fatal configuration faults: both KEYSET
// and KEYSET_FILE set, TOKEN_LIFETIME below the minimum, and a bare "*" in
// the WebFinger allowlist.
func (c *Config) Validate() error {
	logger.Debug("validating configuration")

	if c.Keyset != "" && c.KeysetFile != "" {
		return fmt.Errorf("KEYSET and KEYSET_FILE are mutually exclusive")
	}

	if c.TokenLifetime != 0 && c.TokenLifetime.Std().Seconds() < MinTokenLifetime {
		return fmt.Errorf("TOKEN_LIFETIME must be at least %ds when set", MinTokenLifetime)
	}

	for _, h := range c.AllowedWebfingerHosts {
		if h == "*" {
			return fmt.Errorf("ALLOWED_WEBFINGER_HOSTS must not contain a bare \"*\"")
		}
	}

	switch c.RootRedirect {
	case RootRedirectRepo, RootRedirectSettings, RootRedirectDocs, RootRedirectOff:
	default:
		return fmt.Errorf("ROOT_REDIRECT must be one of repo, settings, docs, off, got %q", c.RootRedirect)
	}

	switch c.UpstreamProvider {
	case "github", "discord":
	default:
		return fmt.Errorf("UPSTREAM_PROVIDER must be one of github, discord, got %q", c.UpstreamProvider)
	}

	if c.RootRedirect == RootRedirectDocs {
		c.EnableDocs = true
	}

	c.BasePath = normalizeBasePath(c.BasePath)

	logger.Debugw("configuration validation passed", "hostCount", len(c.AllowedHosts))
	return nil
}

func normalizeBasePath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

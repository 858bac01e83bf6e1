package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/stacklok/takagi/internal/httpapi"
	"github.com/stacklok/takagi/pkg/config"
	"github.com/stacklok/takagi/pkg/flow"
	"github.com/stacklok/takagi/pkg/hostpolicy"
	"github.com/stacklok/takagi/pkg/keyset"
	"github.com/stacklok/takagi/pkg/logger"
	"github.com/stacklok/takagi/pkg/token"
	"github.com/stacklok/takagi/pkg/txstore"
	"github.com/stacklok/takagi/pkg/upstream"
	"github.com/stacklok/takagi/pkg/upstream/discord"
	"github.com/stacklok/takagi/pkg/upstream/github"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the OIDC adapter HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("address", ":8080", "address to listen on")
	serveCmd.Flags().String("env-prefix", "TAKAGI_", "environment variable prefix; SNOWFLAKE_ for a Discord-fronting deployment")
}

func runServe(cmd *cobra.Command, _ []string) error {
	prefix, err := cmd.Flags().GetString("env-prefix")
	if err != nil {
		return err
	}
	address, err := cmd.Flags().GetString("address")
	if err != nil {
		return err
	}

	cfg, err := config.Load(prefix)
	if err != nil {
		return err
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogDev); err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logger.Sync()

	keys, err := loadKeyset(cfg)
	if err != nil {
		return fmt.Errorf("load keyset: %w", err)
	}

	store, err := buildStore(cfg)
	if err != nil {
		return fmt.Errorf("build store: %w", err)
	}
	defer func() { _ = store.Close() }()

	adapter, err := buildAdapter(cfg)
	if err != nil {
		return fmt.Errorf("build upstream adapter: %w", err)
	}

	tokens := token.NewService(keys, cfg.TokenLifetime.Std())
	hosts := hostpolicy.NewHostAllowlist(cfg.AllowedHosts)
	webfinger := hostpolicy.NewWebFingerAllowlist(cfg.AllowedWebfingerHosts)

	engine := flow.NewEngine(store, adapter, tokens, hosts, flow.Config{
		AllowedClients:        cfg.AllowedClients,
		FixRedirectURIs:       cfg.FixRedirectURIs,
		ReturnToReferrer:      cfg.ReturnToReferrer,
		TreatLoopbackAsSecure: cfg.TreatLoopbackAsSecure,
	})

	server := httpapi.New(engine, keys, webfinger, cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Infow("takagi starting", "upstream", cfg.UpstreamProvider, "address", address)
	return server.Serve(ctx, address)
}

func loadKeyset(cfg *config.Config) (*keyset.Manager, error) {
	switch {
	case cfg.Keyset != "":
		return keyset.NewFromJSON([]byte(cfg.Keyset))
	case cfg.KeysetFile != "":
		return keyset.NewFromFile(cfg.KeysetFile)
	default:
		return keyset.NewManaged(cfg.DataDir)
	}
}

func buildStore(cfg *config.Config) (txstore.Store, error) {
	if cfg.RedisURL == "" {
		return txstore.NewMemoryStore(), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return txstore.NewRedisStore(redis.NewClient(opts)), nil
}

func buildAdapter(cfg *config.Config) (upstream.Adapter, error) {
	switch cfg.UpstreamProvider {
	case "github":
		return github.New(cfg.UpstreamClientID, cfg.UpstreamClientSecret, cfg.UpstreamCallbackURL), nil
	case "discord":
		return discord.New(cfg.UpstreamClientID, cfg.UpstreamClientSecret, cfg.UpstreamCallbackURL), nil
	default:
		return nil, fmt.Errorf("unsupported UPSTREAM_PROVIDER %q", cfg.UpstreamProvider)
	}
}

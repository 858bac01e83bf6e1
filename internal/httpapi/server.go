// Package httpapi wires the Flow Engine, Token Service, Keyset Manager
// and Discovery Surface onto Takagi's HTTP boundary: one chi router
// mounting every endpoint spec'd for the OIDC adapter.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stacklok/takagi/pkg/config"
	"github.com/stacklok/takagi/pkg/flow"
	"github.com/stacklok/takagi/pkg/hostpolicy"
	"github.com/stacklok/takagi/pkg/keyset"
	"github.com/stacklok/takagi/pkg/logger"
)

const (
	middlewareTimeout = 60 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Server holds everything an HTTP handler needs to serve one Takagi
// (or Snowflake) deployment. One Server is built per process.
type Server struct {
	engine    *flow.Engine
	keys      *keyset.Manager
	webfinger *hostpolicy.WebFingerAllowlist

	basePath            string
	treatLoopbackSecure bool
	rootRedirect        config.RootRedirect
	upstreamProvider    string
	enableDocs          bool
}

// New builds a Server from its dependencies and the resolved Config.
func New(engine *flow.Engine, keys *keyset.Manager, webfinger *hostpolicy.WebFingerAllowlist, cfg *config.Config) *Server {
	return &Server{
		engine:              engine,
		keys:                keys,
		webfinger:           webfinger,
		basePath:            cfg.BasePath,
		treatLoopbackSecure: cfg.TreatLoopbackAsSecure,
		rootRedirect:        cfg.RootRedirect,
		upstreamProvider:    cfg.UpstreamProvider,
		enableDocs:          cfg.EnableDocs,
	}
}

// Router builds the full chi.Router for this Server, mounted at the
// Server's configured base path.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		middleware.Timeout(middlewareTimeout),
	)

	root := chi.NewRouter()
	root.Get("/health", instrument("health", s.handleHealth))
	root.Get("/metrics", metricsHandler().ServeHTTP)
	root.Get("/", instrument("root", s.handleRoot))

	root.Get("/authorize", instrument("authorize", s.handleAuthorize))
	root.Get("/callback", instrument("callback", s.handleCallback))
	root.Post("/token", instrument("token", s.handleToken))
	root.Get("/userinfo", instrument("userinfo", s.handleUserInfo))
	root.Post("/userinfo", instrument("userinfo", s.handleUserInfo))
	root.Post("/introspect", instrument("introspect", s.handleIntrospect))
	root.Get("/r/*", instrument("redirect", s.handleRedirect))

	root.Get("/.well-known/openid-configuration", instrument("discovery", s.handleDiscoveryDocument))
	root.Get("/.well-known/jwks.json", instrument("jwks", s.handleJWKS))
	root.Get("/.well-known/webfinger", instrument("webfinger", s.handleWebFinger))

	if s.enableDocs {
		root.Get("/docs", instrument("docs", s.handleDocs))
		root.Get("/openapi.json", instrument("openapi", s.handleOpenAPI))
	}

	r.Mount(s.basePath, root)
	return r
}

// Serve starts the HTTP server on address and blocks until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, address string) error {
	srv := &http.Server{
		BaseContext:       func(net.Listener) context.Context { return ctx },
		Addr:              address,
		Handler:           s.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	logger.Infof("starting http server on %s", srv.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server stopped unexpectedly: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}

	logger.Infof("http server stopped")
	return nil
}

package flow

import (
	"time"

	"github.com/google/uuid"

	"github.com/stacklok/takagi/pkg/hostpolicy"
	"github.com/stacklok/takagi/pkg/token"
	"github.com/stacklok/takagi/pkg/txstore"
	"github.com/stacklok/takagi/pkg/upstream"
)

// DefaultTransactionTTL is the /authorize-to-callback transaction
// lifetime: at least ten minutes, per spec.md §5's "any reasonable user
// think-time" guidance.
const DefaultTransactionTTL = 10 * time.Minute

// DefaultCodeTTL is how long an issued authorization code remains
// redeemable.
const DefaultCodeTTL = 5 * time.Minute

// DefaultRefreshChainTTL bounds a refresh-token lineage's stored
// lifetime independent of the signed JWT's own exp, since refresh
// tokens commonly outlive any single access/ID token lifetime.
const DefaultRefreshChainTTL = 90 * 24 * time.Hour

// Engine is the Flow Engine: the single component that turns validated
// HTTP requests into txstore transitions, upstream adapter calls, and
// minted tokens. One Engine is built per process; it holds no
// per-request state of its own.
type Engine struct {
	store    txstore.Store
	upstream upstream.Adapter
	tokens   *token.Service

	hosts              *hostpolicy.HostAllowlist
	allowedClients     []string
	allowAnyClient     bool
	fixRedirectURIs    bool
	returnToReferrer   bool
	treatLoopbackHTTPS bool

	transactionTTL  time.Duration
	codeTTL         time.Duration
	refreshChainTTL time.Duration
}

// Config carries the subset of pkg/config.Config the Flow Engine reads
// directly, kept narrow so the engine doesn't import the whole config
// package.
type Config struct {
	AllowedClients        []string
	FixRedirectURIs       bool
	ReturnToReferrer      bool
	TreatLoopbackAsSecure bool
}

// NewEngine builds an Engine from its dependencies.
func NewEngine(store txstore.Store, adapter upstream.Adapter, tokens *token.Service, hosts *hostpolicy.HostAllowlist, cfg Config) *Engine {
	allowAny := false
	clients := make([]string, 0, len(cfg.AllowedClients))
	for _, c := range cfg.AllowedClients {
		if c == "*" {
			allowAny = true
			continue
		}
		clients = append(clients, c)
	}

	return &Engine{
		store:              store,
		upstream:           adapter,
		tokens:             tokens,
		hosts:              hosts,
		allowedClients:     clients,
		allowAnyClient:     allowAny,
		fixRedirectURIs:    cfg.FixRedirectURIs,
		returnToReferrer:   cfg.ReturnToReferrer,
		treatLoopbackHTTPS: cfg.TreatLoopbackAsSecure,
		transactionTTL:     DefaultTransactionTTL,
		codeTTL:            DefaultCodeTTL,
		refreshChainTTL:    DefaultRefreshChainTTL,
	}
}

func (e *Engine) clientAllowed(clientID string) bool {
	if e.allowAnyClient {
		return true
	}
	for _, c := range e.allowedClients {
		if c == clientID {
			return true
		}
	}
	return false
}

func newID() string {
	return uuid.NewString()
}

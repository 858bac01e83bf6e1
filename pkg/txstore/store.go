package txstore

import "context"

// Store is the Transaction/Code Store's full surface. The Flow Engine is
// the only caller; every method is safe for concurrent use.
//
// Single-use semantics (authorization codes, refresh chains) must be
// atomic: a concurrent double-consume must leave exactly one caller with
// a success and every other caller with ErrConsumed, never two
// successes. Implementations guard this with a lock held across the
// read-check-mark sequence (MemoryStore) or a Lua script / WATCH
// transaction (Store backed by Redis).
type Store interface {
	CreateAuthorizationRequest(ctx context.Context, req *AuthorizationRequest) error
	GetAuthorizationRequest(ctx context.Context, stateRef string) (*AuthorizationRequest, error)
	DeleteAuthorizationRequest(ctx context.Context, stateRef string) error

	CreateAuthorizationCode(ctx context.Context, code *AuthorizationCode) error

	// ConsumeAuthorizationCode atomically loads and marks-consumed the
	// code in one step. A second call for the same code returns
	// ErrConsumed, never the record.
	ConsumeAuthorizationCode(ctx context.Context, code string) (*AuthorizationCode, error)

	CreateRefreshChain(ctx context.Context, chain *RefreshChain) error

	// ConsumeRefreshChain atomically loads and marks-consumed the chain.
	// The caller (Flow Engine) is responsible for minting a replacement
	// chain on success; ConsumeRefreshChain never creates one itself.
	ConsumeRefreshChain(ctx context.Context, chainID string) (*RefreshChain, error)

	// Stats reports current record counts, for health checks and tests.
	Stats(ctx context.Context) (Stats, error)

	// Close stops any background cleanup and releases resources.
	Close() error
}

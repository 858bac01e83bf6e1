package txstore

import (
	"context"
	"sync"
	"time"

	"github.com/stacklok/takagi/pkg/logger"
)

// DefaultCleanupInterval is how often MemoryStore sweeps expired records
// when the caller does not override it with WithCleanupInterval.
const DefaultCleanupInterval = 5 * time.Minute

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithCleanupInterval overrides DefaultCleanupInterval.
func WithCleanupInterval(d time.Duration) Option {
	return func(m *MemoryStore) { m.cleanupInterval = d }
}

// MemoryStore is the default, single-process Store backend. It is the
// right choice for a single Takagi replica; multi-replica deployments
// should use the Redis-backed Store instead so transactions and codes
// survive a pod restart or a load-balanced retry landing on a different
// replica.
type MemoryStore struct {
	mu sync.Mutex

	requests map[string]*AuthorizationRequest
	codes    map[string]*AuthorizationCode
	chains   map[string]*RefreshChain

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	cleanupDone     chan struct{}
}

// NewMemoryStore constructs a MemoryStore and starts its background
// cleanup goroutine.
func NewMemoryStore(opts ...Option) *MemoryStore {
	m := &MemoryStore{
		requests:        make(map[string]*AuthorizationRequest),
		codes:           make(map[string]*AuthorizationCode),
		chains:          make(map[string]*RefreshChain),
		cleanupInterval: DefaultCleanupInterval,
		stopCleanup:     make(chan struct{}),
		cleanupDone:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	go m.cleanupLoop()
	return m
}

func (m *MemoryStore) cleanupLoop() {
	defer close(m.cleanupDone)
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCleanup:
			return
		case <-ticker.C:
			m.cleanupExpired(time.Now())
		}
	}
}

func (m *MemoryStore) cleanupExpired(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for k, v := range m.requests {
		if now.After(v.ExpiresAt) {
			delete(m.requests, k)
			removed++
		}
	}
	for k, v := range m.codes {
		if now.After(v.ExpiresAt) {
			delete(m.codes, k)
			removed++
		}
	}
	for k, v := range m.chains {
		if now.After(v.ExpiresAt) {
			delete(m.chains, k)
			removed++
		}
	}
	if removed > 0 {
		logger.Debugw("txstore: cleanup removed expired records", "count", removed)
	}
}

// Close stops the cleanup goroutine and waits for it to exit.
func (m *MemoryStore) Close() error {
	close(m.stopCleanup)
	<-m.cleanupDone
	return nil
}

func (m *MemoryStore) CreateAuthorizationRequest(_ context.Context, req *AuthorizationRequest) error {
	if req == nil || req.StateRef == "" || req.ExpiresAt.IsZero() {
		return ErrInvalidRequest
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[req.StateRef]; ok {
		return ErrAlreadyExists
	}
	cp := *req
	m.requests[req.StateRef] = &cp
	return nil
}

func (m *MemoryStore) GetAuthorizationRequest(_ context.Context, stateRef string) (*AuthorizationRequest, error) {
	if stateRef == "" {
		return nil, ErrInvalidRequest
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[stateRef]
	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(req.ExpiresAt) {
		return nil, ErrExpired
	}
	cp := *req
	return &cp, nil
}

func (m *MemoryStore) DeleteAuthorizationRequest(_ context.Context, stateRef string) error {
	if stateRef == "" {
		return ErrInvalidRequest
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.requests, stateRef)
	return nil
}

func (m *MemoryStore) CreateAuthorizationCode(_ context.Context, code *AuthorizationCode) error {
	if code == nil || code.Code == "" || code.ExpiresAt.IsZero() {
		return ErrInvalidRequest
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.codes[code.Code]; ok {
		return ErrAlreadyExists
	}
	cp := *code
	m.codes[code.Code] = &cp
	return nil
}

func (m *MemoryStore) ConsumeAuthorizationCode(_ context.Context, code string) (*AuthorizationCode, error) {
	if code == "" {
		return nil, ErrInvalidRequest
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.codes[code]
	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(rec.ExpiresAt) {
		return nil, ErrExpired
	}
	if rec.Consumed {
		return nil, ErrConsumed
	}
	now := time.Now()
	rec.Consumed = true
	rec.ConsumedAt = &now
	cp := *rec
	return &cp, nil
}

func (m *MemoryStore) CreateRefreshChain(_ context.Context, chain *RefreshChain) error {
	if chain == nil || chain.ChainID == "" || chain.ExpiresAt.IsZero() {
		return ErrInvalidRequest
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.chains[chain.ChainID]; ok {
		return ErrAlreadyExists
	}
	cp := *chain
	m.chains[chain.ChainID] = &cp
	return nil
}

func (m *MemoryStore) ConsumeRefreshChain(_ context.Context, chainID string) (*RefreshChain, error) {
	if chainID == "" {
		return nil, ErrInvalidRequest
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.chains[chainID]
	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(rec.ExpiresAt) {
		return nil, ErrExpired
	}
	if rec.Consumed {
		return nil, ErrConsumed
	}
	now := time.Now()
	rec.Consumed = true
	rec.ConsumedAt = &now
	cp := *rec
	return &cp, nil
}

func (m *MemoryStore) Stats(_ context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		AuthorizationRequests: len(m.requests),
		AuthorizationCodes:    len(m.codes),
		RefreshChains:         len(m.chains),
	}, nil
}

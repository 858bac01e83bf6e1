package keyset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	josev4 "github.com/go-jose/go-jose/v4"

	"github.com/stacklok/takagi/pkg/logger"
)

// managedFileName is the file a managed keyset is persisted under inside
// a Manager's data directory.
const managedFileName = "keyset.json"

// ErrRotateUnsupported is returned by Rotate when the Manager was
// constructed from an externally-supplied keyset. Externally-supplied
// keysets are never persisted or regenerated by Takagi; the operator
// owns their lifecycle.
var ErrRotateUnsupported = errors.New("keyset: rotation is unsupported for an externally-supplied keyset")

// Manager owns the active signing and encryption keys and serves every
// sign/verify/encrypt/decrypt operation in the process. It is safe for
// concurrent use; Rotate swaps the active keys without interrupting
// in-flight Sign/Verify/Encrypt/Decrypt calls, which each read a single
// consistent snapshot via current.Load().
type Manager struct {
	current atomic.Pointer[keys]

	// managed is true when this Manager owns persistence (data dir mode)
	// and may Rotate; false when keys were externally supplied.
	managed bool

	// dataDir is where the managed keyset file lives. Empty unless managed.
	dataDir string
}

// NewManaged loads a persisted keyset from dataDir/keyset.json, or
// generates and persists a fresh one if none exists yet. The returned
// Manager supports Rotate.
func NewManaged(dataDir string) (*Manager, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("keyset: data directory must not be empty")
	}

	path := filepath.Join(dataDir, managedFileName)

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		var set josev4.JSONWebKeySet
		if jsonErr := json.Unmarshal(raw, &set); jsonErr != nil {
			return nil, fmt.Errorf("keyset: parse managed keyset file %s: %w", path, jsonErr)
		}
		k, fromErr := fromJWKSet(set)
		if fromErr != nil {
			return nil, fmt.Errorf("keyset: managed keyset file %s: %w", path, fromErr)
		}
		logger.Infow("loaded managed keyset", "path", path, "signingKID", k.signingKID)
		m := &Manager{managed: true, dataDir: dataDir}
		m.current.Store(k)
		return m, nil

	case os.IsNotExist(err):
		logger.Infow("no managed keyset found, generating one", "path", path)
		k, genErr := generate()
		if genErr != nil {
			return nil, genErr
		}
		m := &Manager{managed: true, dataDir: dataDir}
		m.current.Store(k)
		if persistErr := m.persist(k); persistErr != nil {
			return nil, persistErr
		}
		return m, nil

	default:
		return nil, fmt.Errorf("keyset: read managed keyset file %s: %w", path, err)
	}
}

// NewFromJSON builds a Manager from an externally-supplied JWK Set
// document. The returned Manager does not support Rotate.
func NewFromJSON(jwkSetJSON []byte) (*Manager, error) {
	var set josev4.JSONWebKeySet
	if err := json.Unmarshal(jwkSetJSON, &set); err != nil {
		return nil, fmt.Errorf("keyset: parse externally-supplied keyset: %w", err)
	}
	k, err := fromJWKSet(set)
	if err != nil {
		return nil, fmt.Errorf("keyset: externally-supplied keyset: %w", err)
	}
	logger.Infow("loaded externally-supplied keyset", "signingKID", k.signingKID)
	m := &Manager{managed: false}
	m.current.Store(k)
	return m, nil
}

// NewFromFile builds a Manager from a JWK Set document read from path.
// Like NewFromJSON, the returned Manager does not support Rotate.
func NewFromFile(path string) (*Manager, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keyset: read keyset file %s: %w", path, err)
	}
	return NewFromJSON(raw)
}

// Rotate generates a fresh keyset, persists it (managed mode only), and
// atomically swaps it in as the active keyset. Verify/Decrypt calls
// against material signed/encrypted under the previous keyset will fail
// once rotated; the previous keys are not retained, so every outstanding
// code and token is invalidated (SPEC_FULL.md §4.1).
func (m *Manager) Rotate() error {
	if !m.managed {
		return ErrRotateUnsupported
	}

	k, err := generate()
	if err != nil {
		return err
	}
	if err := m.persist(k); err != nil {
		return err
	}
	m.current.Store(k)
	logger.Infow("rotated keyset", "signingKID", k.signingKID)
	return nil
}

func (m *Manager) persist(k *keys) error {
	if err := os.MkdirAll(m.dataDir, 0o700); err != nil {
		return fmt.Errorf("keyset: create data directory %s: %w", m.dataDir, err)
	}

	raw, err := json.Marshal(k.toJWKSet())
	if err != nil {
		return fmt.Errorf("keyset: marshal managed keyset: %w", err)
	}

	path := filepath.Join(m.dataDir, managedFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("keyset: write managed keyset: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("keyset: install managed keyset: %w", err)
	}
	return nil
}

// SigningKID returns the kid of the currently active signing key, for
// callers that need to tag claims or look up a specific key generation.
func (m *Manager) SigningKID() string {
	return m.current.Load().signingKID
}

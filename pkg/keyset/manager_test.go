package keyset

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	josev4 "github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagedGeneratesWhenAbsent(t *testing.T) {
	dir := t.TempDir()

	m, err := NewManaged(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, m.SigningKID())

	_, statErr := os.Stat(filepath.Join(dir, managedFileName))
	require.NoError(t, statErr)
}

func TestNewManagedLoadsExistingFile(t *testing.T) {
	dir := t.TempDir()

	first, err := NewManaged(dir)
	require.NoError(t, err)
	firstKID := first.SigningKID()

	second, err := NewManaged(dir)
	require.NoError(t, err)
	assert.Equal(t, firstKID, second.SigningKID())
}

func TestRotateChangesKIDAndPersists(t *testing.T) {
	dir := t.TempDir()

	m, err := NewManaged(dir)
	require.NoError(t, err)
	before := m.SigningKID()

	require.NoError(t, m.Rotate())
	after := m.SigningKID()
	assert.NotEqual(t, before, after)

	reloaded, err := NewManaged(dir)
	require.NoError(t, err)
	assert.Equal(t, after, reloaded.SigningKID())
}

func TestRotateUnsupportedForExternalKeyset(t *testing.T) {
	k, err := generate()
	require.NoError(t, err)
	raw, err := json.Marshal(k.toJWKSet())
	require.NoError(t, err)

	m, err := NewFromJSON(raw)
	require.NoError(t, err)

	err = m.Rotate()
	require.ErrorIs(t, err, ErrRotateUnsupported)
}

func TestNewFromFileReadsJSONDocument(t *testing.T) {
	dir := t.TempDir()
	k, err := generate()
	require.NoError(t, err)
	raw, err := json.Marshal(k.toJWKSet())
	require.NoError(t, err)

	path := filepath.Join(dir, "external-keyset.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	m, err := NewFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, k.signingKID, m.SigningKID())
}

func TestNewFromJSONRejectsMalformedDocument(t *testing.T) {
	_, err := NewFromJSON([]byte("not json"))
	require.Error(t, err)
}

func TestManagedKeysetFilePermissions(t *testing.T) {
	dir := t.TempDir()
	_, err := NewManaged(dir)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, managedFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

// Guard against accidental signature changes to the persisted format: a
// managed keyset file must round-trip through josev4's JWK Set type.
func TestManagedKeysetFileIsAValidJWKSet(t *testing.T) {
	dir := t.TempDir()
	_, err := NewManaged(dir)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, managedFileName))
	require.NoError(t, err)

	var set josev4.JSONWebKeySet
	require.NoError(t, json.Unmarshal(raw, &set))
	assert.Len(t, set.Keys, 2)
}

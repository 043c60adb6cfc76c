// Package testing builds key managers with fresh random keys for tests.
package testing

import (
	"context"
	"crypto/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/viewvault/internal/crypto/domain"
	cryptoService "github.com/allisson/viewvault/internal/crypto/service"
)

// RandomKey returns 32 random bytes.
func RandomKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, cryptoDomain.KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

// VaultKeySource hands out fresh vault key handles built from fixed material.
// Fail makes every Load return an error, as when the cold key is unreachable.
type VaultKeySource struct {
	mu       sync.Mutex
	material []byte
	loads    int
	Fail     error
}

// Load returns a new handle over the source's material.
func (s *VaultKeySource) Load(ctx context.Context) (*cryptoDomain.Key, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	s.loads++
	return cryptoDomain.NewKey(cryptoDomain.PurposeVault, 1, s.material)
}

// Loads reports how many times the vault key was loaded.
func (s *VaultKeySource) Loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

// NewKeyManager returns a KeyManager with a random compliance key (version 1) and a
// random vault key, plus the vault key source so tests can count or break loads.
func NewKeyManager(t *testing.T) (cryptoService.KeyManager, *VaultKeySource) {
	t.Helper()

	complianceKey, err := cryptoDomain.NewKey(cryptoDomain.PurposeCompliance, 1, RandomKey(t))
	require.NoError(t, err)
	keyring, err := cryptoDomain.NewComplianceKeyring(complianceKey)
	require.NoError(t, err)
	t.Cleanup(keyring.Close)

	source := &VaultKeySource{material: RandomKey(t)}
	km := cryptoService.NewKeyManager(cryptoService.NewAEADManager(), keyring, cryptoDomain.AESGCM, source)
	return km, source
}

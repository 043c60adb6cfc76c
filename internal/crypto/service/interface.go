// Package service provides the cryptographic services of the pipeline: AEAD ciphers
// with an inline nonce layout, and the key manager that keeps the compliance and
// vault keys in separate slots.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/viewvault/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt seals plaintext with a fresh random nonce and returns nonce || ciphertext || tag.
	Encrypt(plaintext, aad []byte) ([]byte, error)

	// Decrypt opens a nonce || ciphertext || tag blob. On authentication failure no
	// plaintext is returned.
	Decrypt(blob, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// KeyManager supplies the compliance and vault keys.
//
// The compliance key lives in the compliance keyring for the lifetime of the
// process. The vault key is loaded into its own slot only inside WithVaultKey
// and destroyed before WithVaultKey returns, so the two keys never share a slot
// and a vault operation can never reach the compliance keyring.
type KeyManager interface {
	// CurrentComplianceVersion returns the version new Tier-2 ciphertexts carry.
	CurrentComplianceVersion() uint16

	// EncryptCompliance encrypts plaintext under the current compliance key.
	EncryptCompliance(plaintext []byte) ([]byte, error)

	// DecryptCompliance decrypts a Tier-2 blob with the key version named in its header.
	DecryptCompliance(blob []byte) ([]byte, error)

	// WithVaultKey loads the vault key, runs fn, and destroys the key.
	WithVaultKey(ctx context.Context, fn func(vault VaultCipher) error) error
}

// VaultCipher encrypts and decrypts Tier-3 blobs. It is only valid inside WithVaultKey.
type VaultCipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(blob []byte) ([]byte, error)
}

// VaultKeySource loads the vault key on demand. Every call returns a fresh
// handle that the caller must destroy.
type VaultKeySource interface {
	Load(ctx context.Context) (*cryptoDomain.Key, error)
}

package service

import (
	"context"
	"fmt"

	cryptoDomain "github.com/allisson/viewvault/internal/crypto/domain"
	apperrors "github.com/allisson/viewvault/internal/errors"
)

// vaultAlgorithm is the AEAD used for Tier-3 ciphertexts.
const vaultAlgorithm = cryptoDomain.AESGCM

// keyManager implements KeyManager over a compliance keyring and a vault key source.
type keyManager struct {
	aeadManager   AEADManager
	keyring       *cryptoDomain.ComplianceKeyring
	complianceAlg cryptoDomain.Algorithm
	vaultSource   VaultKeySource
}

// NewKeyManager creates a KeyManager. complianceAlg selects the AEAD for new
// Tier-2 ciphertexts; existing ciphertexts are opened with the algorithm recorded
// in their header.
func NewKeyManager(
	aeadManager AEADManager,
	keyring *cryptoDomain.ComplianceKeyring,
	complianceAlg cryptoDomain.Algorithm,
	vaultSource VaultKeySource,
) KeyManager {
	return &keyManager{
		aeadManager:   aeadManager,
		keyring:       keyring,
		complianceAlg: complianceAlg,
		vaultSource:   vaultSource,
	}
}

// CurrentComplianceVersion returns the version new Tier-2 ciphertexts carry.
func (k *keyManager) CurrentComplianceVersion() uint16 {
	return k.keyring.CurrentVersion()
}

// EncryptCompliance encrypts plaintext under the current compliance key.
func (k *keyManager) EncryptCompliance(plaintext []byte) ([]byte, error) {
	key, err := k.keyring.Current()
	if err != nil {
		return nil, err
	}
	return seal(k.aeadManager, key, k.complianceAlg, plaintext)
}

// DecryptCompliance decrypts a Tier-2 blob. Vault blobs are refused.
func (k *keyManager) DecryptCompliance(blob []byte) ([]byte, error) {
	header, _, _, err := cryptoDomain.ParseHeader(blob)
	if err != nil {
		return nil, err
	}
	if header.Purpose != cryptoDomain.PurposeCompliance {
		return nil, cryptoDomain.ErrKeyPurposeMismatch
	}

	key, err := k.keyring.Get(header.KeyVersion)
	if err != nil {
		return nil, err
	}
	return open(k.aeadManager, key, blob)
}

// WithVaultKey loads the vault key into a dedicated slot for the duration of fn.
func (k *keyManager) WithVaultKey(ctx context.Context, fn func(vault VaultCipher) error) error {
	key, err := k.vaultSource.Load(ctx)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrCryptoFailed) {
			return err
		}
		return fmt.Errorf("%w: vault key unavailable: %w", apperrors.ErrCryptoFailed, err)
	}
	defer key.Destroy()

	if key.Purpose() != cryptoDomain.PurposeVault {
		return cryptoDomain.ErrKeyPurposeMismatch
	}

	return fn(&vaultCipher{aeadManager: k.aeadManager, key: key})
}

// vaultCipher is the short-lived VaultCipher handed out by WithVaultKey.
type vaultCipher struct {
	aeadManager AEADManager
	key         *cryptoDomain.Key
}

func (v *vaultCipher) Encrypt(plaintext []byte) ([]byte, error) {
	return seal(v.aeadManager, v.key, vaultAlgorithm, plaintext)
}

func (v *vaultCipher) Decrypt(blob []byte) ([]byte, error) {
	header, _, _, err := cryptoDomain.ParseHeader(blob)
	if err != nil {
		return nil, err
	}
	if header.Purpose != cryptoDomain.PurposeVault {
		return nil, cryptoDomain.ErrKeyPurposeMismatch
	}
	if header.KeyVersion != v.key.Version() {
		return nil, cryptoDomain.ErrKeyVersionNotFound
	}
	return open(v.aeadManager, v.key, blob)
}

// seal produces header || nonce || ciphertext || tag, authenticating the header.
func seal(
	aeadManager AEADManager,
	key *cryptoDomain.Key,
	alg cryptoDomain.Algorithm,
	plaintext []byte,
) ([]byte, error) {
	header := cryptoDomain.Header{
		Purpose:    key.Purpose(),
		Algorithm:  alg,
		KeyVersion: key.Version(),
	}.Bytes()

	var out []byte
	err := key.Use(func(material []byte) error {
		aead, err := aeadManager.CreateCipher(material, alg)
		if err != nil {
			return err
		}
		body, err := aead.Encrypt(plaintext, header)
		if err != nil {
			return err
		}
		out = append(header, body...)
		return nil
	})
	if err != nil {
		if apperrors.Is(err, apperrors.ErrCryptoFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", cryptoDomain.ErrEncryptionFailed, err)
	}

	return out, nil
}

// open authenticates and decrypts a blob produced by seal with key.
func open(aeadManager AEADManager, key *cryptoDomain.Key, blob []byte) ([]byte, error) {
	header, aad, body, err := cryptoDomain.ParseHeader(blob)
	if err != nil {
		return nil, err
	}
	if header.Purpose != key.Purpose() {
		return nil, cryptoDomain.ErrKeyPurposeMismatch
	}

	var plaintext []byte
	err = key.Use(func(material []byte) error {
		aead, err := aeadManager.CreateCipher(material, header.Algorithm)
		if err != nil {
			return err
		}
		plaintext, err = aead.Decrypt(body, aad)
		return err
	})
	if err != nil {
		if apperrors.Is(err, cryptoDomain.ErrKeyDestroyed) {
			return nil, err
		}
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	return plaintext, nil
}

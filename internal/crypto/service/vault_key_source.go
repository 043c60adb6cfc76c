package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"gocloud.dev/secrets"

	cryptoDomain "github.com/allisson/viewvault/internal/crypto/domain"

	// KMS drivers selectable through VAULT_KMS_KEY_URI.
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// vaultKeyVersion is recorded in Tier-3 ciphertext headers. The vault key is
// not rotated in place; a new vault key means re-sealing under new cases.
const vaultKeyVersion = 1

// envVaultKeySource reads the vault key from the environment on every load,
// so the raw key is only decoded while a vault operation runs.
type envVaultKeySource struct {
	envVar string
}

// NewEnvVaultKeySource creates a VaultKeySource reading a hex or base64 key from envVar.
func NewEnvVaultKeySource(envVar string) VaultKeySource {
	return &envVaultKeySource{envVar: envVar}
}

// Load decodes the vault key into a fresh handle.
func (s *envVaultKeySource) Load(ctx context.Context) (*cryptoDomain.Key, error) {
	encoded := os.Getenv(s.envVar)
	if encoded == "" {
		return nil, cryptoDomain.ErrVaultKeyNotSet
	}
	return cryptoDomain.ParseKey(cryptoDomain.PurposeVault, vaultKeyVersion, encoded)
}

// KeeperOpener opens the keeper that wraps the vault key.
type KeeperOpener func(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error)

// OpenSecretsKeeper opens a gocloud.dev/secrets keeper. Supported schemes are
// gcpkms://, awskms://, azurekeyvault://, hashivault:// and base64key://.
func OpenSecretsKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return keeper, nil
}

// kmsVaultKeySource unwraps a KMS-encrypted vault key on every load. The wrapped
// key (base64) is read from envVar; the keeper is opened and closed per load.
type kmsVaultKeySource struct {
	open   KeeperOpener
	keyURI string
	envVar string
}

// NewKMSVaultKeySource creates a VaultKeySource that unwraps the key with open.
func NewKMSVaultKeySource(open KeeperOpener, keyURI, envVar string) VaultKeySource {
	return &kmsVaultKeySource{
		open:   open,
		keyURI: keyURI,
		envVar: envVar,
	}
}

// Load opens the keeper, unwraps the vault key and returns a fresh handle.
func (s *kmsVaultKeySource) Load(ctx context.Context) (*cryptoDomain.Key, error) {
	encoded := os.Getenv(s.envVar)
	if encoded == "" {
		return nil, cryptoDomain.ErrVaultKeyNotSet
	}

	wrapped, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: wrapped vault key is not base64", cryptoDomain.ErrInvalidKeyEncoding)
	}

	keeper, err := s.open(ctx, s.keyURI)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = keeper.Close()
	}()

	material, err := keeper.Decrypt(ctx, wrapped)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap vault key: %w", err)
	}
	defer cryptoDomain.SecureWipe(material)

	return cryptoDomain.NewKey(cryptoDomain.PurposeVault, vaultKeyVersion, material)
}

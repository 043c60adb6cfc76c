package app

import (
	"fmt"
	"os"

	auditService "github.com/allisson/viewvault/internal/audit/service"
	authService "github.com/allisson/viewvault/internal/auth/service"
	"github.com/allisson/viewvault/internal/config"
	cryptoDomain "github.com/allisson/viewvault/internal/crypto/domain"
	cryptoService "github.com/allisson/viewvault/internal/crypto/service"
)

// auditSigningKeyVersion is recorded as the key id of signed audit records.
const auditSigningKeyVersion = 1

// ComplianceKeyring returns the Tier-2 keyring loaded from the environment.
func (c *Container) ComplianceKeyring() (*cryptoDomain.ComplianceKeyring, error) {
	err := c.lazy(&c.complianceKeyringInit, "complianceKeyring", func() error {
		keyring, err := cryptoDomain.LoadComplianceKeyringFromEnv()
		if err != nil {
			return fmt.Errorf("failed to load compliance keyring: %w", err)
		}
		c.complianceKeyring = keyring
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.complianceKeyring, nil
}

// KeyManager returns the key manager holding the compliance keyring and the vault key source.
// The vault key is KMS-wrapped when VAULT_KMS_KEY_URI is set.
func (c *Container) KeyManager() (cryptoService.KeyManager, error) {
	err := c.lazy(&c.keyManagerInit, "keyManager", func() error {
		keyring, err := c.ComplianceKeyring()
		if err != nil {
			return err
		}

		alg, err := cryptoDomain.ParseAlgorithm(c.config.ComplianceCipher)
		if err != nil {
			return fmt.Errorf("invalid compliance cipher %q: %w", c.config.ComplianceCipher, err)
		}

		var vaultSource cryptoService.VaultKeySource
		if c.config.VaultKMSKeyURI != "" {
			vaultSource = cryptoService.NewKMSVaultKeySource(
				cryptoService.OpenSecretsKeeper,
				c.config.VaultKMSKeyURI,
				config.VaultKeyEnv,
			)
		} else {
			vaultSource = cryptoService.NewEnvVaultKeySource(config.VaultKeyEnv)
		}

		c.keyManager = cryptoService.NewKeyManager(cryptoService.NewAEADManager(), keyring, alg, vaultSource)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.keyManager, nil
}

// AuditSigningKey returns the audit signing key, or nil when AUDIT_SIGNING_KEY is unset.
func (c *Container) AuditSigningKey() (*cryptoDomain.Key, error) {
	err := c.lazy(&c.auditSigningKeyInit, "auditSigningKey", func() error {
		encoded := os.Getenv(config.AuditSigningKeyEnv)
		if encoded == "" {
			c.Logger().Warn("audit signing key not configured, audit records will be unsigned")
			return nil
		}
		key, err := cryptoDomain.ParseKey(cryptoDomain.PurposeAudit, auditSigningKeyVersion, encoded)
		if err != nil {
			return fmt.Errorf("%s: %w", config.AuditSigningKeyEnv, err)
		}
		c.auditSigningKey = key
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.auditSigningKey, nil
}

// AuditSigner returns the HMAC audit signer.
func (c *Container) AuditSigner() auditService.Signer {
	c.auditSignerInit.Do(func() {
		c.auditSigner = auditService.NewSigner()
	})
	return c.auditSigner
}

// KeyVerifier returns the internal API key verifier.
func (c *Container) KeyVerifier() authService.KeyVerifier {
	c.keyVerifierInit.Do(func() {
		c.keyVerifier = authService.NewKeyVerifier(c.config.InternalAPIKey)
	})
	return c.keyVerifier
}

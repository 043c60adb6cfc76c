package domain

import (
	"github.com/allisson/viewvault/internal/errors"
)

// Cryptographic operation error definitions.
//
// Runtime failures wrap ErrCryptoFailed and are fatal to the in-flight call.
// Failures detected while building key handles wrap ErrConfigInvalid so the
// process refuses to start.
var (
	// ErrUnsupportedAlgorithm indicates the requested encryption algorithm is not supported.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrConfigInvalid, "unsupported algorithm")

	// ErrInvalidKeySize indicates key material is not exactly 32 bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrConfigInvalid, "invalid key size")

	// ErrInvalidKeyEncoding indicates key material is neither hex nor base64.
	ErrInvalidKeyEncoding = errors.Wrap(errors.ErrConfigInvalid, "invalid key encoding")

	// ErrComplianceKeyNotSet indicates COMPLIANCE_ENCRYPTION_KEY is missing.
	ErrComplianceKeyNotSet = errors.Wrap(errors.ErrConfigInvalid, "compliance encryption key not set")

	// ErrInvalidKeyVersion indicates a key version outside 1..65535.
	ErrInvalidKeyVersion = errors.Wrap(errors.ErrConfigInvalid, "invalid key version")

	// ErrInvalidPreviousKeys indicates COMPLIANCE_PREVIOUS_KEYS is malformed.
	ErrInvalidPreviousKeys = errors.Wrap(errors.ErrConfigInvalid, "invalid previous compliance keys format")

	// ErrVaultKeyNotSet indicates VAULT_ENCRYPTION_KEY is missing.
	ErrVaultKeyNotSet = errors.Wrap(errors.ErrCryptoFailed, "vault encryption key not set")

	// ErrDecryptionFailed indicates authentication of a ciphertext failed. The specific
	// cause (wrong key, tampering, truncation) is not disclosed.
	ErrDecryptionFailed = errors.Wrap(errors.ErrCryptoFailed, "decryption failed")

	// ErrEncryptionFailed indicates nonce generation or sealing failed.
	ErrEncryptionFailed = errors.Wrap(errors.ErrCryptoFailed, "encryption failed")

	// ErrMalformedCiphertext indicates a stored blob is too short or has an unknown header.
	ErrMalformedCiphertext = errors.Wrap(errors.ErrCryptoFailed, "malformed ciphertext")

	// ErrKeyVersionNotFound indicates the ciphertext was produced by a key the keyring no longer holds.
	ErrKeyVersionNotFound = errors.Wrap(errors.ErrCryptoFailed, "key version not found")

	// ErrKeyPurposeMismatch indicates an attempt to use a key of one tier on data of another.
	ErrKeyPurposeMismatch = errors.Wrap(errors.ErrCryptoFailed, "key purpose mismatch")

	// ErrKeyDestroyed indicates the key handle was already wiped.
	ErrKeyDestroyed = errors.Wrap(errors.ErrCryptoFailed, "key destroyed")

	// ErrKeyNotSerializable is returned by every marshal method of a key handle.
	ErrKeyNotSerializable = errors.New("key material cannot be serialized")
)

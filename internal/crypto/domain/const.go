package domain

// Algorithm represents the cryptographic algorithm used for encryption.
//
// All supported algorithms provide Authenticated Encryption with Associated Data (AEAD),
// ensuring both confidentiality and authenticity of the stored identifying fields.
// Both use 256-bit keys, a 12-byte random nonce and a 16-byte authentication tag.
type Algorithm string

const (
	// AESGCM represents the AES-256-GCM authenticated encryption algorithm.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 represents the ChaCha20-Poly1305 authenticated encryption algorithm.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// KeySize is the size in bytes of every key handled by the service.
const KeySize = 32

// NonceSize and TagSize describe the inline ciphertext layout nonce || ciphertext || tag.
const (
	NonceSize = 12
	TagSize   = 16
)

// KeyPurpose identifies which tier a key belongs to. A key handle only ever serves
// one purpose, and ciphertext headers record the purpose so a blob can never be
// opened with a key from the other tier.
type KeyPurpose byte

const (
	// PurposeCompliance marks the rotating Tier-2 compliance key.
	PurposeCompliance KeyPurpose = 'C'
	// PurposeVault marks the cold Tier-3 vault key.
	PurposeVault KeyPurpose = 'V'
	// PurposeAudit marks the audit log signing key.
	PurposeAudit KeyPurpose = 'A'
)

// String returns a human readable purpose name.
func (p KeyPurpose) String() string {
	switch p {
	case PurposeCompliance:
		return "compliance"
	case PurposeVault:
		return "vault"
	case PurposeAudit:
		return "audit"
	default:
		return "unknown"
	}
}

// algorithmCodes maps algorithms to their one-byte header encoding.
var algorithmCodes = map[Algorithm]byte{
	AESGCM:   1,
	ChaCha20: 2,
}

// ParseAlgorithm validates an algorithm name coming from configuration.
func ParseAlgorithm(name string) (Algorithm, error) {
	alg := Algorithm(name)
	if _, ok := algorithmCodes[alg]; !ok {
		return "", ErrUnsupportedAlgorithm
	}
	return alg, nil
}

package service

import (
	"crypto/sha256"
	"crypto/subtle"
)

// keyVerifier keeps only the SHA-256 digest of the internal API key in memory.
type keyVerifier struct {
	digest [sha256.Size]byte
}

// NewKeyVerifier creates a KeyVerifier for rawKey.
func NewKeyVerifier(rawKey string) KeyVerifier {
	return &keyVerifier{digest: sha256.Sum256([]byte(rawKey))}
}

func (k *keyVerifier) Verify(presented string) bool {
	if presented == "" {
		return false
	}
	digest := sha256.Sum256([]byte(presented))
	return subtle.ConstantTimeCompare(digest[:], k.digest[:]) == 1
}

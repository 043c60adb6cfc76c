package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	cryptoDomain "github.com/allisson/viewvault/internal/crypto/domain"
)

// inlineAEAD wraps a cipher.AEAD and stores the nonce inline, so ciphertexts
// are self-describing and no external nonce table exists.
//
// Thread safety: stateless apart from the underlying cipher.AEAD, which is safe
// for concurrent use. Every Encrypt draws an independent random nonce.
type inlineAEAD struct {
	aead cipher.AEAD
}

// Encrypt returns nonce || ciphertext || tag. Empty plaintext is allowed and
// produces a 28-byte blob.
func (a *inlineAEAD) Encrypt(plaintext, aad []byte) ([]byte, error) {
	nonceSize := a.aead.NonceSize()
	out := make([]byte, nonceSize, nonceSize+len(plaintext)+a.aead.Overhead())
	if _, err := rand.Read(out); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return a.aead.Seal(out, out[:nonceSize], plaintext, aad), nil
}

// Decrypt verifies the tag before returning any plaintext.
func (a *inlineAEAD) Decrypt(blob, aad []byte) ([]byte, error) {
	nonceSize := a.aead.NonceSize()
	if len(blob) < nonceSize+a.aead.Overhead() {
		return nil, errors.New("ciphertext too short")
	}

	plaintext, err := a.aead.Open(nil, blob[:nonceSize], blob[nonceSize:], aad)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

// AESGCMCipher implements AEAD using AES-256-GCM. Preferred on CPUs with AES-NI.
type AESGCMCipher struct {
	inlineAEAD
}

// NewAESGCM creates a new AES-256-GCM cipher instance. The key must be 32 bytes.
func NewAESGCM(key []byte) (*AESGCMCipher, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, errors.New("key must be exactly 32 bytes")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESGCMCipher{inlineAEAD{aead: aead}}, nil
}

// ChaCha20Poly1305Cipher implements AEAD using ChaCha20-Poly1305. Preferred
// where AES hardware acceleration is absent.
type ChaCha20Poly1305Cipher struct {
	inlineAEAD
}

// NewChaCha20Poly1305 creates a new ChaCha20-Poly1305 cipher instance. The key must be 32 bytes.
func NewChaCha20Poly1305(key []byte) (*ChaCha20Poly1305Cipher, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create ChaCha20-Poly1305 cipher: %w", err)
	}

	return &ChaCha20Poly1305Cipher{inlineAEAD{aead: aead}}, nil
}

// CipherFunc adapts a constructor function to AEADManager.
type CipherFunc func(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)

// CreateCipher calls f.
func (f CipherFunc) CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error) {
	return f(key, alg)
}

// NewAEADManager returns the AEADManager covering every algorithm a ciphertext
// header can name.
func NewAEADManager() AEADManager {
	return CipherFunc(newCipher)
}

func newCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}
	switch alg {
	case cryptoDomain.AESGCM:
		return NewAESGCM(key)
	case cryptoDomain.ChaCha20:
		return NewChaCha20Poly1305(key)
	}
	return nil, cryptoDomain.ErrUnsupportedAlgorithm
}

package domain

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

const redacted = "[REDACTED]"

// Key is an opaque handle around 32 bytes of key material.
//
// The raw bytes never leave the handle: callers borrow them for the duration of
// Use, and every formatting or serialization path prints [REDACTED] or fails.
// Destroy wipes the material; a destroyed handle refuses further use.
//
// Thread safety: Use may run concurrently; Destroy waits for in-flight uses.
type Key struct {
	purpose KeyPurpose
	version uint16

	mu       sync.RWMutex
	material []byte
}

// NewKey copies material into a new handle. The caller keeps ownership of
// material and should wipe it once the handle is built.
func NewKey(purpose KeyPurpose, version uint16, material []byte) (*Key, error) {
	if len(material) != KeySize {
		return nil, ErrInvalidKeySize
	}
	if version == 0 {
		return nil, ErrInvalidKeyVersion
	}

	buf := make([]byte, KeySize)
	copy(buf, material)

	return &Key{purpose: purpose, version: version, material: buf}, nil
}

// Purpose returns the tier the key serves.
func (k *Key) Purpose() KeyPurpose {
	return k.purpose
}

// Version returns the key version recorded in ciphertext headers.
func (k *Key) Version() uint16 {
	return k.version
}

// Use lends the raw key material to fn. fn must not retain or copy the slice.
func (k *Key) Use(fn func(material []byte) error) error {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.material == nil {
		return ErrKeyDestroyed
	}
	return fn(k.material)
}

// Destroy wipes the key material. It is safe to call more than once.
func (k *Key) Destroy() {
	k.mu.Lock()
	defer k.mu.Unlock()

	SecureWipe(k.material)
	k.material = nil
}

// Destroyed reports whether Destroy has been called.
func (k *Key) Destroyed() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.material == nil
}

// String implements fmt.Stringer.
func (k *Key) String() string {
	return redacted
}

// GoString implements fmt.GoStringer so %#v does not dump the struct.
func (k *Key) GoString() string {
	return redacted
}

// Format implements fmt.Formatter for every verb.
func (k *Key) Format(f fmt.State, _ rune) {
	_, _ = f.Write([]byte(redacted))
}

// LogValue implements slog.LogValuer.
func (k *Key) LogValue() slog.Value {
	return slog.StringValue(redacted)
}

// MarshalJSON refuses to serialize key material.
func (k *Key) MarshalJSON() ([]byte, error) {
	return nil, ErrKeyNotSerializable
}

// MarshalText refuses to serialize key material.
func (k *Key) MarshalText() ([]byte, error) {
	return nil, ErrKeyNotSerializable
}

// MarshalBinary refuses to serialize key material.
func (k *Key) MarshalBinary() ([]byte, error) {
	return nil, ErrKeyNotSerializable
}

// DecodeKeyMaterial decodes a 32-byte key supplied as hex (64 characters) or
// base64 (standard or URL alphabet, padded or raw). The caller owns the
// returned slice and must wipe it.
func DecodeKeyMaterial(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, ErrInvalidKeyEncoding
	}

	if len(encoded) == hex.EncodedLen(KeySize) {
		if b, err := hex.DecodeString(encoded); err == nil {
			return b, nil
		}
	}

	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		b, err := enc.DecodeString(encoded)
		if err != nil {
			continue
		}
		if len(b) != KeySize {
			SecureWipe(b)
			return nil, ErrInvalidKeySize
		}
		return b, nil
	}

	return nil, ErrInvalidKeyEncoding
}

// ParseKey decodes encoded key material into a handle and wipes the intermediate buffer.
func ParseKey(purpose KeyPurpose, version uint16, encoded string) (*Key, error) {
	material, err := DecodeKeyMaterial(encoded)
	if err != nil {
		return nil, err
	}
	defer SecureWipe(material)

	return NewKey(purpose, version, material)
}

// Package service provides the audit record signer.
package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	auditDomain "github.com/allisson/viewvault/internal/audit/domain"
	cryptoDomain "github.com/allisson/viewvault/internal/crypto/domain"
)

// Signer computes and checks audit record signatures.
type Signer interface {
	// Sign returns the HMAC-SHA256 signature of record under a key derived from secret.
	Sign(secret []byte, record *auditDomain.AuditRecord) ([]byte, error)

	// Verify returns ErrSignatureInvalid when record.Signature does not match.
	Verify(secret []byte, record *auditDomain.AuditRecord) error
}

type hmacSigner struct{}

// NewSigner creates a Signer using HKDF-SHA256 for key derivation and HMAC-SHA256
// for the signature.
func NewSigner() Signer {
	return &hmacSigner{}
}

// deriveSigningKey derives a 32-byte signing key. The info string is versioned so
// the canonical form can change without reusing keys.
func (s *hmacSigner) deriveSigningKey(secret []byte) ([]byte, error) {
	info := []byte("audit-log-signing-v1")
	reader := hkdf.New(sha256.New, secret, nil, info)

	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(reader, signingKey); err != nil {
		return nil, err
	}

	return signingKey, nil
}

// canonicalize returns the byte form that is signed:
// id || actor || action || target || reason || outcome || failure_kind || metadata || created_at
// Variable-length fields are length-prefixed to prevent ambiguity.
func (s *hmacSigner) canonicalize(record *auditDomain.AuditRecord) ([]byte, error) {
	buf := make([]byte, 0, 512)

	buf = append(buf, record.ID[:]...)
	buf = appendLengthPrefixed(buf, []byte(record.Actor))
	buf = appendLengthPrefixed(buf, []byte(record.Action))
	buf = appendLengthPrefixed(buf, []byte(record.TargetID))
	buf = appendLengthPrefixed(buf, []byte(record.Reason))
	buf = appendLengthPrefixed(buf, []byte(record.Outcome))
	buf = appendLengthPrefixed(buf, []byte(record.FailureKind))

	// encoding/json sorts map keys, so the metadata encoding is deterministic
	if record.Metadata != nil {
		metadataBytes, err := json.Marshal(record.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		buf = appendLengthPrefixed(buf, metadataBytes)
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	buf = binary.BigEndian.AppendUint64(buf, uint64(record.CreatedAt.UnixNano()))

	return buf, nil
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(data)))
	return append(buf, data...)
}

func (s *hmacSigner) Sign(secret []byte, record *auditDomain.AuditRecord) ([]byte, error) {
	signingKey, err := s.deriveSigningKey(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}
	defer cryptoDomain.SecureWipe(signingKey)

	canonical, err := s.canonicalize(record)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize record: %w", err)
	}

	mac := hmac.New(sha256.New, signingKey)
	mac.Write(canonical)
	return mac.Sum(nil), nil
}

func (s *hmacSigner) Verify(secret []byte, record *auditDomain.AuditRecord) error {
	expected, err := s.Sign(secret, record)
	if err != nil {
		return fmt.Errorf("failed to compute expected signature: %w", err)
	}

	if !hmac.Equal(record.Signature, expected) {
		return auditDomain.ErrSignatureInvalid
	}

	return nil
}

package domain

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// ComplianceKeyring holds the current compliance key and the retired versions
// that old Tier-2 ciphertexts still reference.
//
// New ciphertexts are always produced with the current key; decryption picks
// the key named by the version in the ciphertext header. Rotation therefore
// only requires moving the old key into COMPLIANCE_PREVIOUS_KEYS and setting a
// new COMPLIANCE_ENCRYPTION_KEY with a higher COMPLIANCE_KEY_VERSION.
//
// Thread safety: the keyring uses sync.Map internally for concurrent access.
type ComplianceKeyring struct {
	currentVersion uint16
	keys           sync.Map // map[uint16]*Key
}

// NewComplianceKeyring builds a keyring from handles. All handles must carry
// PurposeCompliance and distinct versions.
func NewComplianceKeyring(current *Key, previous ...*Key) (*ComplianceKeyring, error) {
	kr := &ComplianceKeyring{currentVersion: current.Version()}

	for _, k := range append([]*Key{current}, previous...) {
		if k.Purpose() != PurposeCompliance {
			kr.Close()
			return nil, ErrKeyPurposeMismatch
		}
		if _, loaded := kr.keys.LoadOrStore(k.Version(), k); loaded {
			kr.Close()
			return nil, fmt.Errorf("%w: duplicate version %d", ErrInvalidPreviousKeys, k.Version())
		}
	}

	return kr, nil
}

// CurrentVersion returns the version used for new ciphertexts.
func (kr *ComplianceKeyring) CurrentVersion() uint16 {
	return kr.currentVersion
}

// Current returns the handle used for new ciphertexts.
func (kr *ComplianceKeyring) Current() (*Key, error) {
	return kr.Get(kr.currentVersion)
}

// Get returns the handle for version, or ErrKeyVersionNotFound.
func (kr *ComplianceKeyring) Get(version uint16) (*Key, error) {
	if v, ok := kr.keys.Load(version); ok {
		return v.(*Key), nil
	}
	return nil, ErrKeyVersionNotFound
}

// Close destroys every key in the keyring.
func (kr *ComplianceKeyring) Close() {
	kr.keys.Range(func(k, v any) bool {
		v.(*Key).Destroy()
		kr.keys.Delete(k)
		return true
	})
}

// LoadComplianceKeyringFromEnv builds the keyring from:
//   - COMPLIANCE_ENCRYPTION_KEY: current key, hex or base64
//   - COMPLIANCE_KEY_VERSION: its version (default 1)
//   - COMPLIANCE_PREVIOUS_KEYS: optional "version:key,version:key" list of retired keys
func LoadComplianceKeyringFromEnv() (*ComplianceKeyring, error) {
	encoded := os.Getenv("COMPLIANCE_ENCRYPTION_KEY")
	if encoded == "" {
		return nil, ErrComplianceKeyNotSet
	}

	version := uint16(1)
	if raw := os.Getenv("COMPLIANCE_KEY_VERSION"); raw != "" {
		v, err := parseKeyVersion(raw)
		if err != nil {
			return nil, err
		}
		version = v
	}

	current, err := ParseKey(PurposeCompliance, version, encoded)
	if err != nil {
		return nil, fmt.Errorf("COMPLIANCE_ENCRYPTION_KEY: %w", err)
	}

	previous, err := parsePreviousKeys(os.Getenv("COMPLIANCE_PREVIOUS_KEYS"))
	if err != nil {
		current.Destroy()
		return nil, err
	}

	return NewComplianceKeyring(current, previous...)
}

func parsePreviousKeys(raw string) ([]*Key, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var keys []*Key
	fail := func(err error) ([]*Key, error) {
		for _, k := range keys {
			k.Destroy()
		}
		return nil, err
	}

	for _, entry := range strings.Split(raw, ",") {
		versionStr, encoded, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok {
			return fail(ErrInvalidPreviousKeys)
		}
		version, err := parseKeyVersion(versionStr)
		if err != nil {
			return fail(err)
		}
		k, err := ParseKey(PurposeCompliance, version, encoded)
		if err != nil {
			return fail(fmt.Errorf("COMPLIANCE_PREVIOUS_KEYS version %d: %w", version, err))
		}
		keys = append(keys, k)
	}

	return keys, nil
}

func parseKeyVersion(raw string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 16)
	if err != nil || v == 0 {
		return 0, ErrInvalidKeyVersion
	}
	return uint16(v), nil
}

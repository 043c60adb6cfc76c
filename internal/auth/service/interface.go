// Package service verifies the internal API key presented by privileged callers.
package service

// KeyVerifier checks a presented internal API key.
type KeyVerifier interface {
	// Verify reports whether presented is the configured key. The comparison is
	// constant-time over SHA-256 digests, so neither the key length nor a matching
	// prefix leaks through timing.
	Verify(presented string) bool
}

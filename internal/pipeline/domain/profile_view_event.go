// Package domain defines the ingest event: one served profile view with the viewer's
// identifying request data.
package domain

import (
	"fmt"
	"net"
	"time"

	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/viewvault/internal/crypto/domain"
	apperrors "github.com/allisson/viewvault/internal/errors"
)

// ErrInvalidEvent indicates a profile view event failed validation.
var ErrInvalidEvent = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid profile view event")

// ProfileViewEvent is one profile view as reported by the profile read path.
//
// IP, UserAgent and Referrer are plaintext PII. The event owns these buffers
// exclusively: they are never copied into a record, a log line or a shared
// container, and Wipe zeroes them.
type ProfileViewEvent struct {
	ProfileID string
	IP        []byte
	UserAgent []byte
	Referrer  []byte
	ViewedAt  time.Time
	ViewerID  *string
	LegalHold bool
}

// Wipe zeroes the plaintext buffers.
func (e *ProfileViewEvent) Wipe() {
	cryptoDomain.SecureWipeAll(e.IP, e.UserAgent, e.Referrer)
}

// Validate checks the event before anything is encrypted or stored.
func (e *ProfileViewEvent) Validate() error {
	err := validation.ValidateStruct(e,
		validation.Field(&e.ProfileID, validation.Required, validation.Length(1, 255)),
		validation.Field(&e.ViewedAt, validation.Required),
		validation.Field(&e.ViewerID, validation.NilOrNotEmpty, validation.Length(1, 255)),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	if len(e.IP) == 0 {
		return fmt.Errorf("%w: ip: cannot be blank", ErrInvalidEvent)
	}
	return nil
}

// ParseIP parses the event address. IPv4 is parsed in place; anything else goes
// through net.ParseIP. A nil result means the address did not parse.
func (e *ProfileViewEvent) ParseIP() net.IP {
	if ip := parseIPv4(e.IP); ip != nil {
		return ip
	}
	for _, c := range e.IP {
		if c == ':' {
			return net.ParseIP(string(e.IP))
		}
	}
	return nil
}

// parseIPv4 parses a dotted quad without building a string.
func parseIPv4(b []byte) net.IP {
	var out [4]byte
	part, digits := 0, 0
	n := 0
	for i := 0; i <= len(b); i++ {
		if i == len(b) || b[i] == '.' {
			if digits == 0 || part > 3 {
				return nil
			}
			out[part] = byte(n)
			part++
			n, digits = 0, 0
			continue
		}
		c := b[i]
		if c < '0' || c > '9' {
			return nil
		}
		if digits > 0 && n == 0 {
			return nil
		}
		n = n*10 + int(c-'0')
		digits++
		if n > 255 {
			return nil
		}
	}
	if part != 4 {
		return nil
	}
	return net.IPv4(out[0], out[1], out[2], out[3])
}

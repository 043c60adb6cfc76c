// Package dto provides data transfer objects for the ingest endpoint.
package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/viewvault/internal/crypto/domain"
	pipelineDomain "github.com/allisson/viewvault/internal/pipeline/domain"
	customValidation "github.com/allisson/viewvault/internal/validation"
)

// Plaintext is a JSON string decoded straight into a byte buffer, so the value
// can be wiped once the request is handled.
type Plaintext []byte

// UnmarshalJSON copies the string contents into the buffer.
func (p *Plaintext) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*p = nil
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("must be a string")
	}

	inner := data[1 : len(data)-1]
	if bytes.IndexByte(inner, '\\') < 0 {
		*p = append(Plaintext(nil), inner...)
		return nil
	}

	// Escaped strings are rare in these fields; decode them the slow way.
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*p = Plaintext(s)
	return nil
}

// RecordViewRequest is one served profile view.
type RecordViewRequest struct {
	ProfileID string    `json:"profile_id"`
	IP        Plaintext `json:"ip"`
	UserAgent Plaintext `json:"user_agent"`
	Referrer  Plaintext `json:"referrer"`
	Timestamp int64     `json:"timestamp"`
	ViewerID  *string   `json:"viewer_id"`
	LegalHold bool      `json:"legal_hold"`
}

var ipAddress = validation.By(func(value any) error {
	b, _ := value.(Plaintext)
	event := pipelineDomain.ProfileViewEvent{IP: b}
	if event.ParseIP() == nil {
		return validation.NewError("validation_ip_address", "must be a valid IP address")
	}
	return nil
})

// Validate checks the request shape.
func (r *RecordViewRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProfileID, validation.Required, customValidation.NotBlank, validation.Length(1, 255)),
		validation.Field(&r.IP, validation.Required, ipAddress),
		validation.Field(&r.UserAgent, validation.Length(0, 2048)),
		validation.Field(&r.Referrer, validation.Length(0, 2048)),
		validation.Field(&r.Timestamp, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.ViewerID, validation.NilOrNotEmpty, validation.Length(1, 255)),
	)
}

// ToEvent hands the plaintext buffers over to a domain event. The request must not
// be used afterwards.
func (r *RecordViewRequest) ToEvent() *pipelineDomain.ProfileViewEvent {
	return &pipelineDomain.ProfileViewEvent{
		ProfileID: r.ProfileID,
		IP:        r.IP,
		UserAgent: r.UserAgent,
		Referrer:  r.Referrer,
		ViewedAt:  time.UnixMilli(r.Timestamp).UTC(),
		ViewerID:  r.ViewerID,
		LegalHold: r.LegalHold,
	}
}

// Wipe zeroes the plaintext buffers.
func (r *RecordViewRequest) Wipe() {
	cryptoDomain.SecureWipeAll(r.IP, r.UserAgent, r.Referrer)
}

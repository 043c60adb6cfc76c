package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/viewvault/internal/errors"
)

func blob() []byte {
	return make([]byte, minCiphertextSize)
}

func validRecord() *ComplianceRecord {
	viewedAt := time.UnixMilli(1700000000000).UTC()
	return &ComplianceRecord{
		ID:                 uuid.Must(uuid.NewV7()),
		ViewID:             uuid.New(),
		ProfileID:          "p1",
		ViewedAt:           viewedAt,
		EncryptedIP:        blob(),
		EncryptedUserAgent: blob(),
		EncryptedReferrer:  blob(),
		KeyVersion:         1,
		RetentionExpiry:    RetentionExpiry(viewedAt, 12),
	}
}

func TestRetentionExpiry(t *testing.T) {
	viewedAt := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 11, 14, 22, 13, 20, 0, time.UTC), RetentionExpiry(viewedAt, 12))
}

func TestComplianceRecord_Reapable(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name     string
		expiry   time.Time
		held     bool
		reapable bool
	}{
		{"expired one second ago", now.Add(-time.Second), false, true},
		{"expires in one second", now.Add(time.Second), false, false},
		{"expired at exactly now", now, false, false},
		{"expired but held", now.Add(-30 * 24 * time.Hour), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &ComplianceRecord{RetentionExpiry: tt.expiry, UnderInvestigation: tt.held}
			assert.Equal(t, tt.reapable, r.Reapable(now))
		})
	}
}

func TestComplianceRecord_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validRecord().Validate())
	})

	t.Run("plaintext-sized field", func(t *testing.T) {
		r := validRecord()
		r.EncryptedIP = []byte("203.0.113.5")
		err := r.Validate()
		assert.ErrorIs(t, err, ErrInvalidRecord)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("missing key version", func(t *testing.T) {
		r := validRecord()
		r.KeyVersion = 0
		assert.ErrorIs(t, r.Validate(), ErrInvalidRecord)
	})

	t.Run("empty viewer id", func(t *testing.T) {
		r := validRecord()
		empty := ""
		r.ViewerID = &empty
		assert.ErrorIs(t, r.Validate(), ErrInvalidRecord)
	})

	t.Run("expiry before view", func(t *testing.T) {
		r := validRecord()
		r.RetentionExpiry = r.ViewedAt.Add(-time.Hour)
		assert.ErrorIs(t, r.Validate(), ErrInvalidRecord)
	})
}

func TestQueryFilter_Validate(t *testing.T) {
	viewID := uuid.New()
	nilID := uuid.Nil
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		filter  QueryFilter
		wantErr bool
	}{
		{"by view", QueryFilter{ViewID: &viewID}, false},
		{"by profile", QueryFilter{ProfileID: "p1", From: from, To: from.Add(time.Hour)}, false},
		{"nil view id", QueryFilter{ViewID: &nilID}, true},
		{"both", QueryFilter{ViewID: &viewID, ProfileID: "p1"}, true},
		{"neither", QueryFilter{}, true},
		{"inverted range", QueryFilter{ProfileID: "p1", From: from, To: from.Add(-time.Hour)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFilter)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDecryptedView_Wipe(t *testing.T) {
	v := &DecryptedView{IP: []byte("203.0.113.5"), UserAgent: []byte("ua"), Referrer: []byte{}}
	WipeViews([]*DecryptedView{v, nil})
	assert.Equal(t, make([]byte, 11), v.IP)
	assert.Equal(t, []byte{0, 0}, v.UserAgent)
}

func TestQueryFilter_Target(t *testing.T) {
	viewID := uuid.New()
	assert.Equal(t, viewID.String(), QueryFilter{ViewID: &viewID}.Target())
	assert.Equal(t, "p1", QueryFilter{ProfileID: "p1"}.Target())
}

package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/viewvault/internal/audit/domain"
	auditTesting "github.com/allisson/viewvault/internal/audit/testing"
	complianceDomain "github.com/allisson/viewvault/internal/compliance/domain"
	complianceTesting "github.com/allisson/viewvault/internal/compliance/testing"
	cryptoService "github.com/allisson/viewvault/internal/crypto/service"
	cryptoTesting "github.com/allisson/viewvault/internal/crypto/testing"
	apperrors "github.com/allisson/viewvault/internal/errors"
	vaultDomain "github.com/allisson/viewvault/internal/vault/domain"
	vaultTesting "github.com/allisson/viewvault/internal/vault/testing"
)

const (
	testIP        = "203.0.113.5"
	testUserAgent = "Mozilla/5.0 (Android 13) Chrome/120"
	testReferrer  = "https://g.example/"
)

type fixture struct {
	uc         VaultUseCase
	store      *vaultTesting.Store
	compliance *complianceTesting.Store
	audit      *auditTesting.Recorder
	km         cryptoService.KeyManager
	vaultKey   *cryptoTesting.VaultKeySource
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	km, source := cryptoTesting.NewKeyManager(t)
	store := vaultTesting.NewStore()
	compliance := complianceTesting.NewStore()
	audit := auditTesting.NewRecorder()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		uc:         NewVaultUseCase(store, store, store.Vault(), compliance, km, audit, logger),
		store:      store,
		compliance: compliance,
		audit:      audit,
		km:         km,
		vaultKey:   source,
	}
}

// seedCompliance stores a Tier-2 record for a fresh view.
func (f *fixture) seedCompliance(t *testing.T) *complianceDomain.ComplianceRecord {
	t.Helper()
	encrypt := func(p string) []byte {
		blob, err := f.km.EncryptCompliance([]byte(p))
		require.NoError(t, err)
		return blob
	}
	viewedAt := time.Now().UTC()
	record := &complianceDomain.ComplianceRecord{
		ID:                 uuid.Must(uuid.NewV7()),
		ViewID:             uuid.New(),
		ProfileID:          "p1",
		ViewedAt:           viewedAt,
		EncryptedIP:        encrypt(testIP),
		EncryptedUserAgent: encrypt(testUserAgent),
		EncryptedReferrer:  encrypt(testReferrer),
		KeyVersion:         f.km.CurrentComplianceVersion(),
		RetentionExpiry:    complianceDomain.RetentionExpiry(viewedAt, 12),
		CreatedAt:          viewedAt,
	}
	f.compliance.Put(record)
	return record
}

// pendingRecord builds a legal-hold record as the ingest path writes it.
func (f *fixture) pendingRecord(t *testing.T) *vaultDomain.VaultRecord {
	t.Helper()
	record := &vaultDomain.VaultRecord{
		ID:        uuid.Must(uuid.NewV7()),
		LogID:     uuid.Must(uuid.NewV7()),
		ViewID:    uuid.New(),
		ProfileID: "p1",
	}
	err := f.km.WithVaultKey(context.Background(), func(vault cryptoService.VaultCipher) error {
		var err error
		if record.EncryptedIP, err = vault.Encrypt([]byte(testIP)); err != nil {
			return err
		}
		if record.EncryptedUserAgent, err = vault.Encrypt([]byte(testUserAgent)); err != nil {
			return err
		}
		record.EncryptedReferrer, err = vault.Encrypt([]byte(testReferrer))
		return err
	})
	require.NoError(t, err)
	return record
}

func sealInput(caseID string, views ...uuid.UUID) vaultDomain.SealInput {
	return vaultDomain.SealInput{
		CaseID:         caseID,
		OrderReference: "ORD-2024-17",
		ViewIDs:        views,
		Authorizers:    []string{"alice", "bob"},
		Actor:          "legal",
		Reason:         "court order",
	}
}

func exportInput(caseID string, authorizers ...string) vaultDomain.ExportInput {
	return vaultDomain.ExportInput{
		CaseID:      caseID,
		Authorizers: authorizers,
		Actor:       "legal",
		Reason:      "production to court",
	}
}

func TestVaultUseCase_StorePending(t *testing.T) {
	ctx := context.Background()

	t.Run("stores once", func(t *testing.T) {
		f := newFixture(t)
		record := f.pendingRecord(t)

		require.NoError(t, f.uc.StorePending(ctx, record))
		require.NoError(t, f.uc.StorePending(ctx, record))

		records := f.store.Records()
		require.Len(t, records, 1)
		assert.True(t, records[0].Pending())
		assert.False(t, records[0].CreatedAt.IsZero())
	})

	t.Run("refuses a sealed record", func(t *testing.T) {
		f := newFixture(t)
		record := f.pendingRecord(t)
		caseID := "K1"
		record.CaseID = &caseID

		err := f.uc.StorePending(ctx, record)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.Empty(t, f.store.Records())
	})

	t.Run("store failure", func(t *testing.T) {
		f := newFixture(t)
		f.store.FailCreates(1, apperrors.ErrUnavailable)

		err := f.uc.StorePending(ctx, f.pendingRecord(t))
		assert.ErrorIs(t, err, apperrors.ErrUnavailable)
	})
}

func TestVaultUseCase_Seal(t *testing.T) {
	ctx := context.Background()

	t.Run("opens case and reseals tier-2 records", func(t *testing.T) {
		f := newFixture(t)
		a := f.seedCompliance(t)
		b := f.seedCompliance(t)

		result, err := f.uc.Seal(ctx, sealInput("K1", a.ViewID, b.ViewID, a.ViewID))
		require.NoError(t, err)
		assert.Equal(t, 2, result.Sealed)
		assert.Equal(t, 0, result.Claimed)
		assert.Equal(t, "K1", result.Case.ID)
		assert.Equal(t, vaultDomain.CaseStatusOpen, f.store.Case("K1").Status)

		records := f.store.Records()
		require.Len(t, records, 2)
		for _, r := range records {
			assert.Equal(t, "K1", *r.CaseID)
			assert.Equal(t, []string{"alice", "bob"}, r.Authorizers)
			assert.NotEqual(t, a.EncryptedIP, r.EncryptedIP)
			_, err := f.km.DecryptCompliance(r.EncryptedIP)
			assert.Error(t, err, "vault ciphertext must not open under the compliance key")
		}

		audits := f.audit.ByTarget(auditDomain.ActionSealT3, "K1")
		require.Len(t, audits, 1)
		assert.Equal(t, auditDomain.OutcomeSuccess, audits[0].Outcome)
		assert.Equal(t, 2, audits[0].Metadata["sealed"])
	})

	t.Run("claims pending legal-hold records without touching tier-2", func(t *testing.T) {
		f := newFixture(t)
		pending := f.pendingRecord(t)
		require.NoError(t, f.uc.StorePending(ctx, pending))

		result, err := f.uc.Seal(ctx, sealInput("K1", pending.ViewID))
		require.NoError(t, err)
		assert.Equal(t, 1, result.Claimed)
		assert.Equal(t, 0, result.Sealed)
		assert.Equal(t, 0, f.vaultKey.Loads())

		records := f.store.Records()
		require.Len(t, records, 1)
		assert.Equal(t, pending.ID, records[0].ID)
		assert.False(t, records[0].Pending())
		require.NotNil(t, records[0].SealedAt)
	})

	t.Run("resealing is idempotent", func(t *testing.T) {
		f := newFixture(t)
		a := f.seedCompliance(t)

		_, err := f.uc.Seal(ctx, sealInput("K1", a.ViewID))
		require.NoError(t, err)
		result, err := f.uc.Seal(ctx, sealInput("K1", a.ViewID))
		require.NoError(t, err)
		assert.Equal(t, 1, result.AlreadySealed)
		assert.Len(t, f.store.Records(), 1)
	})

	t.Run("missing auth is refused before any key load", func(t *testing.T) {
		f := newFixture(t)
		a := f.seedCompliance(t)
		in := sealInput("K1", a.ViewID)
		in.Authorizers = []string{"alice", " Alice "}

		_, err := f.uc.Seal(ctx, in)
		assert.ErrorIs(t, err, vaultDomain.ErrMissingAuth)
		assert.Equal(t, 0, f.vaultKey.Loads())
		assert.Nil(t, f.store.Case("K1"))

		audits := f.audit.ByTarget(auditDomain.ActionSealT3, "K1")
		require.Len(t, audits, 1)
		assert.Equal(t, auditDomain.OutcomeFailure, audits[0].Outcome)
		assert.Equal(t, string(apperrors.KindMissingAuth), audits[0].FailureKind)
	})

	t.Run("unknown view rolls back the case", func(t *testing.T) {
		f := newFixture(t)
		a := f.seedCompliance(t)

		_, err := f.uc.Seal(ctx, sealInput("K1", a.ViewID, uuid.New()))
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.Nil(t, f.store.Case("K1"))
		assert.Empty(t, f.store.Records())
	})

	t.Run("order reference mismatch", func(t *testing.T) {
		f := newFixture(t)
		a := f.seedCompliance(t)
		_, err := f.uc.Seal(ctx, sealInput("K1", a.ViewID))
		require.NoError(t, err)

		in := sealInput("K1", f.seedCompliance(t).ViewID)
		in.OrderReference = "ORD-OTHER"
		_, err = f.uc.Seal(ctx, in)
		assert.ErrorIs(t, err, vaultDomain.ErrOrderMismatch)
		assert.Len(t, f.store.Records(), 1)
	})

	t.Run("vault key unavailable", func(t *testing.T) {
		f := newFixture(t)
		f.vaultKey.Fail = errors.New("kms unreachable")
		a := f.seedCompliance(t)

		_, err := f.uc.Seal(ctx, sealInput("K1", a.ViewID))
		assert.ErrorIs(t, err, apperrors.ErrCryptoFailed)
		assert.Empty(t, f.store.Records())

		audits := f.audit.ByTarget(auditDomain.ActionSealT3, "K1")
		require.Len(t, audits, 1)
		assert.Equal(t, string(apperrors.KindCryptoFailed), audits[0].FailureKind)
	})

	t.Run("audit failure rolls back the seal", func(t *testing.T) {
		f := newFixture(t)
		a := f.seedCompliance(t)
		f.audit.FailNext(1, apperrors.ErrUnavailable)

		_, err := f.uc.Seal(ctx, sealInput("K1", a.ViewID))
		assert.ErrorIs(t, err, apperrors.ErrUnavailable)
		assert.Empty(t, f.store.Records())
		assert.Empty(t, f.audit.Records())
	})

	t.Run("invalid input", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.Seal(ctx, sealInput("K1"))
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestVaultUseCase_Export_TwoPersonRule(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pending := f.pendingRecord(t)
	require.NoError(t, f.uc.StorePending(ctx, pending))
	_, err := f.uc.Seal(ctx, sealInput("K1", pending.ViewID))
	require.NoError(t, err)
	loads := f.vaultKey.Loads()

	export, err := f.uc.Export(ctx, exportInput("K1", "alice", "alice"))
	assert.ErrorIs(t, err, vaultDomain.ErrMissingAuth)
	assert.Nil(t, export)
	assert.Equal(t, loads, f.vaultKey.Loads())

	export, err = f.uc.Export(ctx, exportInput("K1", "alice", "bob"))
	require.NoError(t, err)
	defer export.Wipe()
	require.Len(t, export.Records, 1)
	assert.Equal(t, testIP, string(export.Records[0].IP))
	assert.Equal(t, testUserAgent, string(export.Records[0].UserAgent))
	assert.Equal(t, testReferrer, string(export.Records[0].Referrer))
	assert.Equal(t, pending.ViewID, export.Records[0].ViewID)

	audits := f.audit.ByTarget(auditDomain.ActionExportT3, "K1")
	require.Len(t, audits, 2)
	assert.Equal(t, auditDomain.OutcomeFailure, audits[0].Outcome)
	assert.Equal(t, string(apperrors.KindMissingAuth), audits[0].FailureKind)
	assert.Equal(t, auditDomain.OutcomeSuccess, audits[1].Outcome)
	assert.Equal(t, []string{"alice", "bob"}, audits[1].Metadata["authorizers"])
	assert.Equal(t, 1, audits[1].Metadata["count"])
}

func TestVaultUseCase_Export(t *testing.T) {
	ctx := context.Background()

	sealed := func(t *testing.T) (*fixture, []*vaultDomain.VaultRecord) {
		f := newFixture(t)
		a := f.seedCompliance(t)
		b := f.seedCompliance(t)
		_, err := f.uc.Seal(ctx, sealInput("K1", a.ViewID, b.ViewID))
		require.NoError(t, err)
		return f, f.store.Records()
	}

	t.Run("whole case from resealed tier-2", func(t *testing.T) {
		f, _ := sealed(t)
		export, err := f.uc.Export(ctx, exportInput("K1", "alice", "bob"))
		require.NoError(t, err)
		require.Len(t, export.Records, 2)
		assert.Equal(t, testIP, string(export.Records[1].IP))

		export.Wipe()
		assert.Equal(t, make([]byte, len(testIP)), export.Records[1].IP)
	})

	t.Run("one record", func(t *testing.T) {
		f, records := sealed(t)
		in := exportInput("K1", "alice", "carol")
		in.RecordID = &records[0].ID

		export, err := f.uc.Export(ctx, in)
		require.NoError(t, err)
		defer export.Wipe()
		require.Len(t, export.Records, 1)
		assert.Equal(t, records[0].ID, export.Records[0].RecordID)
	})

	t.Run("unknown case is not audited", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.Export(ctx, exportInput("K9", "alice", "bob"))
		assert.ErrorIs(t, err, vaultDomain.ErrCaseNotFound)
		assert.Empty(t, f.audit.ByAction(auditDomain.ActionExportT3))
		assert.Equal(t, 0, f.vaultKey.Loads())
	})

	t.Run("unknown record", func(t *testing.T) {
		f, _ := sealed(t)
		in := exportInput("K1", "alice", "bob")
		missing := uuid.Must(uuid.NewV7())
		in.RecordID = &missing

		_, err := f.uc.Export(ctx, in)
		assert.ErrorIs(t, err, vaultDomain.ErrRecordNotFound)
	})

	t.Run("closed case", func(t *testing.T) {
		f, _ := sealed(t)
		_, err := f.uc.CloseCase(ctx, vaultDomain.CloseInput{CaseID: "K1", Actor: "legal", Reason: "order discharged"})
		require.NoError(t, err)

		_, err = f.uc.Export(ctx, exportInput("K1", "alice", "bob"))
		assert.ErrorIs(t, err, vaultDomain.ErrCaseClosed)
		assert.ErrorIs(t, err, apperrors.ErrGone)

		audits := f.audit.ByTarget(auditDomain.ActionExportT3, "K1")
		require.Len(t, audits, 1)
		assert.Equal(t, string(apperrors.KindCaseClosed), audits[0].FailureKind)
	})

	t.Run("vault key unavailable", func(t *testing.T) {
		f, _ := sealed(t)
		f.vaultKey.Fail = errors.New("kms unreachable")

		export, err := f.uc.Export(ctx, exportInput("K1", "alice", "bob"))
		assert.ErrorIs(t, err, apperrors.ErrCryptoFailed)
		assert.Nil(t, export)

		audits := f.audit.ByTarget(auditDomain.ActionExportT3, "K1")
		require.Len(t, audits, 1)
		assert.Equal(t, auditDomain.OutcomeFailure, audits[0].Outcome)
	})

	t.Run("audit failure returns no plaintext", func(t *testing.T) {
		f, _ := sealed(t)
		f.audit.FailNext(1, apperrors.ErrUnavailable)

		export, err := f.uc.Export(ctx, exportInput("K1", "alice", "bob"))
		assert.ErrorIs(t, err, apperrors.ErrUnavailable)
		assert.Nil(t, export)
		assert.Empty(t, f.audit.ByAction(auditDomain.ActionExportT3))
	})
}

func TestVaultUseCase_CloseCase(t *testing.T) {
	ctx := context.Background()
	closeInput := vaultDomain.CloseInput{CaseID: "K1", Actor: "legal", Reason: "order discharged"}

	t.Run("destroys records and audits", func(t *testing.T) {
		f := newFixture(t)
		a := f.seedCompliance(t)
		pending := f.pendingRecord(t)
		require.NoError(t, f.uc.StorePending(ctx, pending))
		_, err := f.uc.Seal(ctx, sealInput("K1", a.ViewID))
		require.NoError(t, err)

		result, err := f.uc.CloseCase(ctx, closeInput)
		require.NoError(t, err)
		assert.Equal(t, int64(1), result.DestroyedCount)
		assert.True(t, result.Case.Closed())
		assert.True(t, f.store.Case("K1").Closed())

		remaining := f.store.Records()
		require.Len(t, remaining, 1)
		assert.Equal(t, pending.ID, remaining[0].ID)

		audits := f.audit.ByTarget(auditDomain.ActionDestroyT3, "K1")
		require.Len(t, audits, 1)
		assert.Equal(t, int64(1), audits[0].Metadata["destroyed_count"])
	})

	t.Run("closing twice", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.Seal(ctx, sealInput("K1", f.seedCompliance(t).ViewID))
		require.NoError(t, err)
		_, err = f.uc.CloseCase(ctx, closeInput)
		require.NoError(t, err)

		_, err = f.uc.CloseCase(ctx, closeInput)
		assert.ErrorIs(t, err, vaultDomain.ErrCaseClosed)
	})

	t.Run("audit failure keeps the records", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.Seal(ctx, sealInput("K1", f.seedCompliance(t).ViewID))
		require.NoError(t, err)
		f.audit.FailNext(1, apperrors.ErrUnavailable)

		_, err = f.uc.CloseCase(ctx, closeInput)
		assert.ErrorIs(t, err, apperrors.ErrUnavailable)
		assert.Len(t, f.store.Records(), 1)
		assert.False(t, f.store.Case("K1").Closed())
	})

	t.Run("unknown case", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.CloseCase(ctx, closeInput)
		assert.ErrorIs(t, err, vaultDomain.ErrCaseNotFound)
		assert.Empty(t, f.audit.Records())
	})
}
